package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specforge/specforge/config"
	"github.com/specforge/specforge/graph"
	"github.com/specforge/specforge/scenario"
)

func graphCmd() *cobra.Command {
	var (
		format       string
		filePath     string
		equivalences bool
		threshold    float64
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Build and display the state machine graph from specs",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result scenario.Result
			root, err := projectRoot()
			if err != nil {
				return err
			}

			if filePath != "" {
				if filepath.Ext(filePath) == ".md" {
					result, err = scenario.ParseMarkdown(filePath)
				} else {
					result, err = scenario.ParseFile(filePath)
				}
				if err != nil {
					return err
				}
			} else {
				root, err = requireInitialized()
				if err != nil {
					return err
				}
				result, err = parseAllSpecs(root)
				if err != nil {
					return err
				}
			}

			if len(result.Scenarios) == 0 {
				fmt.Println("No scenarios found.")
				return nil
			}

			model := graph.Build(result.Scenarios)

			if equivalences {
				if threshold <= 0 || threshold > 1 {
					return fmt.Errorf("threshold must be in (0, 1], got %v", threshold)
				}
				pairs := graph.FindSemanticEquivalences(model, threshold)
				if len(pairs) == 0 {
					fmt.Println("No near-duplicate states found.")
					return nil
				}
				fmt.Printf("%d near-duplicate state pair(s):\n", len(pairs))
				for _, pair := range pairs {
					fmt.Printf("  %.2f  %q ~ %q\n", pair.Score, pair.LabelA, pair.LabelB)
				}
				return nil
			}

			data, err := graph.ExportJSON(model)
			if err != nil {
				return err
			}
			outDir := filepath.Join(root, config.ProjectDir)
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(outDir, "graph.json"), data, 0o644); err != nil {
				return err
			}

			switch format {
			case "dot":
				fmt.Println(graph.ExportDOT(model))
			case "json":
				fmt.Println(string(data))
			default:
				fmt.Printf("Graph built: %d states, %d transitions\n",
					len(model.States), len(model.Transitions))
				if len(model.EntryPoints) > 0 {
					fmt.Printf("Entry points: %s\n", strings.Join(model.EntryPoints, ", "))
				}
				if len(model.TerminalStates) > 0 {
					fmt.Printf("Terminal states: %s\n", strings.Join(model.TerminalStates, ", "))
				}
				if len(model.Cycles) > 0 {
					fmt.Printf("Cycles detected: %d\n", len(model.Cycles))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Output format (json or dot)")
	cmd.Flags().StringVar(&filePath, "file", "", "Parse a single file instead of specs/")
	cmd.Flags().BoolVar(&equivalences, "equivalences", false, "Report near-duplicate state labels instead of the graph")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.7, "Similarity threshold for --equivalences")
	return cmd
}
