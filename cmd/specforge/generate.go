package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specforge/specforge/config"
	"github.com/specforge/specforge/generator"
	"github.com/specforge/specforge/pipeline"
)

func bootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Bootstrap the parser/generator pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := requireInitialized()
			if err != nil {
				return err
			}
			summary, err := pipeline.Bootstrap(root)
			if err != nil {
				return err
			}
			validation := "failed"
			if summary.Validated {
				validation = "passed"
			}
			fmt.Printf("Pipeline bootstrapped for %s/%s\n",
				strings.Join(summary.Languages, ","), summary.Framework)
			fmt.Printf("  Pipeline dir: %s\n", summary.PipelineDir)
			fmt.Printf("  Validation: %s\n", validation)
			return nil
		},
	}
}

func generateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate test stubs from parsed specs",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := requireInitialized()
			if err != nil {
				return err
			}
			result, err := parseAllSpecs(root)
			if err != nil {
				return err
			}
			if len(result.Scenarios) == 0 {
				fmt.Println("No scenarios found. Write specs first.")
				return nil
			}

			cfg, err := config.Load(root)
			if err != nil {
				return err
			}
			framework := cfg.Framework
			if framework == "" {
				framework = "pytest"
			}
			gen, err := generator.ForFramework(framework)
			if err != nil {
				return err
			}

			generated, err := generator.GenerateTests(root, result.Scenarios, gen)
			if err != nil {
				return err
			}

			generatedDir := filepath.Join(root, config.ProjectDir, "generated")
			fmt.Printf("Generated %d test file(s) in %s/\n", len(generated), generatedDir)
			names := make([]string, 0, len(generated))
			for name := range generated {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  %s\n", name)
			}

			gitignore := filepath.Join(root, ".gitignore")
			if content, err := os.ReadFile(gitignore); err == nil {
				if !strings.Contains(string(content), config.ProjectDir+"/generated/") {
					fmt.Printf("\nNote: Consider adding %s/generated/ to .gitignore\n", config.ProjectDir)
				}
			} else {
				fmt.Println("\nNote: Generated files should be gitignored.")
			}
			return nil
		},
	}
}
