package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specforge/specforge/gaps"
	"github.com/specforge/specforge/graph"
)

func gapsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gaps",
		Short: "Analyze the state machine graph for completeness gaps",
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

			model := graph.Build(result.Scenarios)
			triaged, err := gaps.LoadTriaged(root)
			if err != nil {
				return err
			}
			gapList := gaps.Analyze(model, triaged)
			if _, err := gaps.Save(gapList, root); err != nil {
				return err
			}

			if len(gapList) == 0 {
				fmt.Println("No gaps found.")
				return nil
			}
			fmt.Printf("Found %d gap(s):\n", len(gapList))
			for _, g := range gapList {
				fmt.Printf("  [%s] %s: %s\n", strings.ToUpper(string(g.Severity)), g.Type, g.Description)
				fmt.Printf("    ? %s\n", firstLine(g.Question))
			}
			return nil
		},
	}
}

func triageCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "triage",
		Short: "Triage gaps interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := requireInitialized()
			if err != nil {
				return err
			}
			gapList, err := gaps.Load(root)
			if err != nil {
				return err
			}

			var untriaged []int
			for i, g := range gapList {
				if g.TriageStatus == "" {
					untriaged = append(untriaged, i)
				}
			}
			if len(untriaged) == 0 {
				fmt.Println("No untriaged gaps.")
				return nil
			}

			reader := bufio.NewReader(os.Stdin)
			for n, idx := range untriaged {
				g := &gapList[idx]
				fmt.Printf("\nGap %d/%d:\n", n+1, len(untriaged))
				fmt.Printf("  Type: %s\n", g.Type)
				fmt.Printf("  %s\n", g.Description)
				fmt.Printf("  ? %s\n", firstLine(g.Question))

				if flags.nonInteractive {
					g.TriageStatus = gaps.TriageNeedsSpec
				} else {
					g.TriageStatus = promptTriage(reader)
				}

				if g.TriageStatus == gaps.TriageNeedsSpec {
					if err := writeGapTemplate(*g, root); err != nil {
						return err
					}
				}
			}

			if _, err := gaps.Save(gapList, root); err != nil {
				return err
			}
			fmt.Printf("\nTriaged %d gap(s).\n", len(untriaged))
			return nil
		},
	}
}

func promptTriage(reader *bufio.Reader) string {
	for {
		fmt.Print("  Action [needs-spec/intentional/out-of-scope] (needs-spec): ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return gaps.TriageNeedsSpec
		}
		switch strings.TrimSpace(line) {
		case "", gaps.TriageNeedsSpec:
			return gaps.TriageNeedsSpec
		case gaps.TriageIntentional:
			return gaps.TriageIntentional
		case gaps.TriageOutOfScope:
			return gaps.TriageOutOfScope
		}
		fmt.Println("  Please answer needs-spec, intentional, or out-of-scope.")
	}
}

// writeGapTemplate appends a scaffold scenario for a gap triaged as
// needs-spec.
func writeGapTemplate(g gaps.Gap, root string) error {
	specsDir := filepath.Join(root, "specs")
	if err := os.MkdirAll(specsDir, 0o755); err != nil {
		return err
	}

	state := "unknown"
	if len(g.States) > 0 {
		state = g.States[0]
	}
	slug := slugify(state)
	if slug == "" {
		slug = "unknown"
	}
	target := filepath.Join(specsDir, slug+".txt")

	template := fmt.Sprintf(`
%s
; Address gap - %s
%s
GIVEN %s.

WHEN <error or missing event>.

THEN <expected outcome>.
`, headerBar, g.Description, headerBar, state)

	if _, err := os.Stat(target); err == nil {
		f, err := os.OpenFile(target, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := f.WriteString(template); err != nil {
			return err
		}
		fmt.Printf("  Appended template to %s\n", target)
		return nil
	}

	if err := os.WriteFile(target, []byte(strings.TrimLeft(template, "\n")), 0o644); err != nil {
		return err
	}
	fmt.Printf("  Created %s\n", target)
	return nil
}
