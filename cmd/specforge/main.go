// Package main provides the specforge binary entry point.
// Specforge compiles behavioral specs between free-text GWT and the
// strict DAL notation, builds the state-machine graph, and analyzes it
// for completeness gaps.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "specforge"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	logLevel       string
	nonInteractive bool
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Behavioral spec compiler and gap analyzer",
		Long: `Specforge turns behavioral specifications into verified artifacts.

It provides:
- Dual-notation compilation between free-text GWT and strict DAL
- A canonical IR with a round-trip stability guarantee
- State-machine graph extraction from scenarios
- Gap analysis for dead ends, unreachable states, and contradictions`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(flags.logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&flags.nonInteractive, "non-interactive", false, "Non-interactive mode")

	cmd.AddCommand(
		initCmd(flags),
		newCmd(),
		compileCmd(),
		checkCmd(),
		parseCmd(),
		graphCmd(),
		gapsCmd(),
		triageCmd(flags),
		bootstrapCmd(),
		generateCmd(),
		testCmd(),
		verifyCmd(),
		statusCmd(),
		ciCmd(),
		interrogateCmd(),
		watchCmd(),
		serveCmd(),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

func configureLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
