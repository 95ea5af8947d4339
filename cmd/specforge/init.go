package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specforge/specforge/config"
)

func initCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a project for spec engineering",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := projectRoot()
			if err != nil {
				return err
			}
			already := config.IsInitialized(root)
			if already {
				fmt.Println("Warning: Project is already initialized. Updating configuration.")
			}

			detector := config.NewDetector(slog.Default())
			languages := detector.DetectLanguages(root)
			framework := ""
			if len(languages) > 0 {
				if len(languages) > 1 && !flags.nonInteractive {
					fmt.Printf("Detected languages: %s\n", strings.Join(languages, ", "))
					fmt.Println("Select a primary language or configure both.")
				}
				framework = detector.DetectFramework(root, languages[0])
				if !flags.nonInteractive {
					fmt.Printf("Detected language: %s\n", languages[0])
					fmt.Printf("Detected framework: %s\n", framework)
				}
			}

			var cfg *config.Config
			if already {
				cfg, err = config.Load(root)
				if err != nil {
					return err
				}
				if len(languages) > 0 {
					cfg.Languages = languages
				}
				if framework != "" {
					cfg.Framework = framework
				}
			} else {
				cfg = config.DefaultConfig()
				cfg.Languages = languages
				cfg.Framework = framework
			}

			specsDir := filepath.Join(root, config.SpecsDir)
			if err := os.MkdirAll(specsDir, 0o755); err != nil {
				return err
			}
			configPath, err := cfg.Save(root)
			if err != nil {
				return err
			}

			if already {
				fmt.Println("Configuration updated. Existing spec files preserved.")
			} else {
				fmt.Println("Initialized spec engineering project.")
				fmt.Printf("  Created: %s/\n", filepath.Join(root, config.ProjectDir))
				fmt.Printf("  Created: %s/\n", specsDir)
				fmt.Printf("  Config:  %s\n", configPath)
			}
			return nil
		},
	}
}
