package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/specforge/specforge/compiler"
	"github.com/specforge/specforge/graph"
	"github.com/specforge/specforge/scenario"
	"github.com/specforge/specforge/vocabulary"
	"github.com/specforge/specforge/watch"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch specs/ and recompile on change",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := requireInitialized()
			if err != nil {
				return err
			}
			vocab, err := loadVocab(root)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			watcher, err := watch.NewSpecWatcher(
				watch.DefaultConfig(), filepath.Join(root, "specs"), slog.Default())
			if err != nil {
				return err
			}
			if err := watcher.Start(ctx); err != nil {
				return err
			}
			defer watcher.Stop()

			model := graph.Build(nil)
			if result, err := parseAllSpecs(root); err != nil {
				slog.Warn("Initial graph build skipped", "error", err)
			} else {
				model = graph.Build(result.Scenarios)
				slog.Info("Graph built",
					"states", len(model.States), "transitions", len(model.Transitions))
			}

			fmt.Println("Watching specs/ for changes. Ctrl-C to stop.")
			for {
				select {
				case <-ctx.Done():
					return nil
				case event, ok := <-watcher.Events():
					if !ok {
						return nil
					}
					model = applyWatchEvent(event, vocab, root, model)
				}
			}
		},
	}
}

// applyWatchEvent recompiles the changed spec and folds it into the
// running graph model, returning the updated model.
func applyWatchEvent(event watch.Event, vocab *vocabulary.Vocabulary, root string, model *graph.Model) *graph.Model {
	if event.Operation == watch.OpDelete {
		slog.Info("Spec removed", "path", event.Path)
		// A removed file's states may still be shared with other
		// scenarios, so rebuild from what is left.
		result, err := parseAllSpecs(root)
		if err != nil {
			slog.Warn("Graph rebuild skipped", "error", err)
			return model
		}
		model = graph.Build(result.Scenarios)
		slog.Info("Graph rebuilt",
			"states", len(model.States), "transitions", len(model.Transitions))
		return model
	}
	if filepath.Base(event.AbsPath) == "vocab.yaml" {
		return model
	}

	outputs, err := compiler.Compile(event.AbsPath, vocab, root)
	if err != nil {
		slog.Error("Compile failed", "path", event.Path, "error", err)
		return model
	}
	slog.Info("Recompiled", "path", event.Path, "ir", outputs.IR)

	parsed, err := scenario.ParseFile(event.AbsPath)
	if err != nil {
		slog.Warn("Graph update skipped", "path", event.Path, "error", err)
		return model
	}
	model = graph.UpdateIncremental(model, parsed.Scenarios)
	slog.Info("Graph updated", "path", event.Path,
		"states", len(model.States), "transitions", len(model.Transitions))
	return model
}
