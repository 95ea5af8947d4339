package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/specforge/specforge/config"
	"github.com/specforge/specforge/scenario"
)

type clauseSummary struct {
	Text string `json:"text"`
	Line int    `json:"line"`
}

type scenarioSummary struct {
	Title      string          `json:"title"`
	SourceFile string          `json:"source_file"`
	LineNumber int             `json:"line_number"`
	Givens     []clauseSummary `json:"givens"`
	Whens      []clauseSummary `json:"whens"`
	Thens      []clauseSummary `json:"thens"`
}

func parseCmd() *cobra.Command {
	var inspect bool

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse spec files and produce a scenario summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := requireInitialized()
			if err != nil {
				return err
			}
			result, err := parseAllSpecs(root)
			if err != nil {
				return err
			}
			for _, e := range result.Errors {
				fmt.Printf("Error: %s\n", e.Error())
			}
			if len(result.Scenarios) == 0 {
				fmt.Println("No scenarios found.")
				return nil
			}

			summary := make([]scenarioSummary, 0, len(result.Scenarios))
			for _, sc := range result.Scenarios {
				summary = append(summary, scenarioSummary{
					Title:      sc.Title,
					SourceFile: sc.SourceFile,
					LineNumber: sc.LineNumber,
					Givens:     clauses(sc.Givens),
					Whens:      clauses(sc.Whens),
					Thens:      clauses(sc.Thens),
				})
			}
			data, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return err
			}

			outDir := filepath.Join(root, config.ProjectDir)
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(outDir, "ir.json"), data, 0o644); err != nil {
				return err
			}

			fmt.Printf("Parsed %d scenario(s) from %d file(s).\n",
				len(result.Scenarios), len(specFiles(root)))

			if inspect {
				for _, entry := range summary {
					fmt.Printf("\n  Scenario: %s\n", entry.Title)
					fmt.Printf("  Source: %s:%d\n", entry.SourceFile, entry.LineNumber)
					for _, g := range entry.Givens {
						fmt.Printf("    GIVEN %s.\n", g.Text)
					}
					for _, w := range entry.Whens {
						fmt.Printf("    WHEN %s.\n", w.Text)
					}
					for _, t := range entry.Thens {
						fmt.Printf("    THEN %s.\n", t.Text)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&inspect, "inspect", false, "Display scenarios in readable form")
	return cmd
}

func clauses(in []scenario.Clause) []clauseSummary {
	out := make([]clauseSummary, 0, len(in))
	for _, c := range in {
		out = append(out, clauseSummary{Text: c.Text, Line: c.LineNumber})
	}
	return out
}
