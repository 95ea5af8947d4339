package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/specforge/specforge/config"
	"github.com/specforge/specforge/gaps"
	"github.com/specforge/specforge/generator"
	"github.com/specforge/specforge/graph"
	"github.com/specforge/specforge/pipeline"
	"github.com/specforge/specforge/runner"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current state of the project",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := projectRoot()
			if err != nil {
				return err
			}
			if !config.IsInitialized(root) {
				fmt.Println("Project is not initialized. Run `specforge init`.")
				return nil
			}

			files := specFiles(root)
			result, err := parseAllSpecs(root)
			if err != nil {
				return err
			}
			fmt.Printf("Spec files: %d\n", len(files))
			fmt.Printf("Scenarios: %d\n", len(result.Scenarios))

			graphPath := filepath.Join(root, config.ProjectDir, "graph.json")
			if data, err := os.ReadFile(graphPath); err == nil {
				var summary struct {
					States      map[string]json.RawMessage `json:"states"`
					Transitions []json.RawMessage          `json:"transitions"`
				}
				if err := json.Unmarshal(data, &summary); err == nil {
					fmt.Printf("Graph: %d states, %d transitions\n",
						len(summary.States), len(summary.Transitions))
				}
			} else {
				fmt.Println("Graph: not built")
			}

			gapList, err := gaps.Load(root)
			if err != nil {
				return err
			}
			unresolved := 0
			for _, g := range gapList {
				if g.TriageStatus == "" {
					unresolved++
				}
			}
			fmt.Printf("Gaps: %d unresolved\n", unresolved)

			pipelineStatus := "not bootstrapped"
			if pipeline.IsBootstrapped(root) {
				pipelineStatus = "bootstrapped"
			}
			fmt.Printf("Pipeline: %s\n", pipelineStatus)

			genDir := filepath.Join(root, config.ProjectDir, "generated")
			matches, _ := filepath.Glob(filepath.Join(genDir, "test_*.py"))
			if len(matches) > 0 {
				fmt.Println("Generated tests: present")
			} else {
				fmt.Println("Generated tests: none")
			}
			return nil
		},
	}
}

func ciCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ci",
		Short: "Run the full verification pipeline for CI (non-interactive)",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := requireInitialized()
			if err != nil {
				return err
			}

			fmt.Println("Parsing specs...")
			result, err := parseAllSpecs(root)
			if err != nil {
				return err
			}
			if len(result.Errors) > 0 {
				for _, e := range result.Errors {
					fmt.Printf("  Parse error: %s\n", e.Message)
				}
				return fmt.Errorf("parse errors")
			}
			if len(result.Scenarios) == 0 {
				return fmt.Errorf("no scenarios found")
			}
			fmt.Printf("  %d scenario(s) parsed.\n", len(result.Scenarios))

			fmt.Println("Building graph...")
			model := graph.Build(result.Scenarios)
			fmt.Printf("  %d states, %d transitions.\n", len(model.States), len(model.Transitions))

			fmt.Println("Analyzing gaps...")
			triaged, err := gaps.LoadTriaged(root)
			if err != nil {
				return err
			}
			gapList := gaps.Analyze(model, triaged)
			if _, err := gaps.Save(gapList, root); err != nil {
				return err
			}

			var critical []gaps.Gap
			for _, g := range gapList {
				if g.Severity == gaps.SeverityHigh {
					critical = append(critical, g)
				}
			}
			if len(critical) > 0 {
				fmt.Printf("  %d critical gap(s) found!\n", len(critical))
				for _, g := range critical {
					fmt.Printf("    %s: %s\n", g.Type, g.Description)
				}
				return fmt.Errorf("critical gaps present")
			}
			fmt.Printf("  %d gap(s), 0 critical.\n", len(gapList))

			fmt.Println("Generating tests...")
			generated, err := generator.GenerateTests(root, result.Scenarios, &generator.PytestGenerator{})
			if err != nil {
				return err
			}
			fmt.Printf("  %d test file(s) generated.\n", len(generated))

			fmt.Println("Running acceptance tests...")
			acc := runner.RunAcceptance(cmd.Context(), root)
			fmt.Printf("  %d passed, %d failed, %d skipped.\n", acc.Passed, acc.Failed, acc.Skipped)

			fmt.Println("Running unit tests...")
			unit := runner.RunUnit(cmd.Context(), root)
			fmt.Printf("  %d passed, %d failed.\n", unit.Passed, unit.Failed)

			if acc.Success() && (unit.Success() || unit.Total() == 0) {
				fmt.Println("\nCI: PASSED")
				return nil
			}
			fmt.Println("\nCI: FAILED")
			return fmt.Errorf("ci failed")
		},
	}
}
