package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specforge/specforge/config"
	"github.com/specforge/specforge/guardian"
	"github.com/specforge/specforge/lint"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [target]",
		Short: "Check specs for implementation leakage",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := requireInitialized()
			if err != nil {
				return err
			}
			cfg, err := config.Load(root)
			if err != nil {
				return err
			}
			vocab, err := loadVocab(root)
			if err != nil {
				return err
			}
			target := "specs"
			if len(args) > 0 {
				target = args[0]
			}

			checker, err := lint.NewChecker(vocab)
			if err != nil {
				return err
			}
			violations, err := checker.CheckTarget(target)
			if err != nil {
				return err
			}

			var warnings []guardian.Warning
			if cfg.Guardian.Enabled {
				warnings, err = guardian.AnalyzeTarget(
					target, cfg.Guardian.Sensitivity, cfg.Guardian.Allowlist)
				if err != nil {
					return err
				}
			}

			if len(violations) == 0 && len(warnings) == 0 {
				fmt.Println("No violations found.")
				return nil
			}

			for _, v := range violations {
				fmt.Printf("%s:%d:%d: [%s] %s\n", v.File, v.Line, v.Column, v.Kind, v.Message)
				fmt.Printf("  Suggestion: %s\n", v.Suggestion)
			}
			for _, w := range warnings {
				fmt.Printf("[guardian/%s] %s\n", w.Category, w.OriginalText)
				fmt.Printf("  Suggestion: %s\n", w.SuggestedAlternative)
			}
			return fmt.Errorf("%d violation(s) found", len(violations)+len(warnings))
		},
	}
}
