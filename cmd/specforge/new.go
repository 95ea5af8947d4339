package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new <description>",
		Short: "Create a new spec file from a description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := requireInitialized()
			if err != nil {
				return err
			}
			description := args[0]
			slug := slugify(description)
			if slug == "" {
				return fmt.Errorf("description yields an empty file name")
			}

			specsDir := filepath.Join(root, "specs")
			if err := os.MkdirAll(specsDir, 0o755); err != nil {
				return err
			}
			target := filepath.Join(specsDir, slug+".txt")
			if _, err := os.Stat(target); err == nil {
				fmt.Printf("Warning: %s already exists. Skipping.\n", target)
				return nil
			}

			content := fmt.Sprintf(`%s
; %s.
%s
GIVEN <precondition>.

WHEN <action>.

THEN <expected result>.
`, headerBar, description, headerBar)
			if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
				return err
			}
			fmt.Printf("Created: %s\n", target)
			return nil
		},
	}
}
