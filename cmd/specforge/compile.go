package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/specforge/specforge/compiler"
)

func compileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <spec-file>",
		Short: "Compile a GWT or DAL spec into synchronized artifacts",
		Long: `Compile parses a .txt (GWT) or .dal spec into canonical IR and
emits the sibling notation, the IR JSON, and a round-trip diff. For
GWT input the canonical rendering must reparse to the identical IR
before any file is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := requireInitialized()
			if err != nil {
				return err
			}
			vocab, err := loadVocab(root)
			if err != nil {
				return err
			}
			outputs, err := compiler.Compile(args[0], vocab, root)
			if err != nil {
				return err
			}

			fmt.Println("Compiled:")
			if outputs.DAL != "" {
				fmt.Printf("  DAL:       %s\n", outputs.DAL)
			}
			fmt.Printf("  Canonical: %s\n", outputs.CanonicalGWT)
			fmt.Printf("  IR:        %s\n", outputs.IR)
			if outputs.Diff != "" {
				fmt.Printf("  Diff:      %s\n", outputs.Diff)
			}
			return nil
		},
	}
}
