// Package watch monitors a specs directory for changes so the compile
// and analysis pipeline can re-run incrementally on edit.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const eventChannelBuffer = 500

// Config configures spec file watching.
type Config struct {
	// DebounceDelay is how long to wait for more changes before
	// processing.
	DebounceDelay time.Duration
	// FileExtensions lists extensions to watch.
	FileExtensions []string
	// ExcludeDirs lists directory names to skip.
	ExcludeDirs []string
}

// DefaultConfig returns the default watch configuration.
func DefaultConfig() Config {
	return Config{
		DebounceDelay:  500 * time.Millisecond,
		FileExtensions: []string{".txt", ".dal"},
		ExcludeDirs:    []string{".git", "node_modules", "vendor"},
	}
}

// Operation indicates the type of file operation.
type Operation string

const (
	OpCreate Operation = "create"
	OpModify Operation = "modify"
	OpDelete Operation = "delete"
)

// Event represents a spec file change.
type Event struct {
	// Path is relative to the watched directory.
	Path      string
	AbsPath   string
	Operation Operation
}

// SpecWatcher watches for spec file changes and emits debounced,
// content-hash-deduplicated events.
type SpecWatcher struct {
	config   Config
	specsDir string
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	extensions map[string]bool
	excludes   map[string]bool

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	hashMu sync.RWMutex
	hashes map[string]string

	events chan Event

	droppedEvents atomic.Int64
}

// NewSpecWatcher creates a watcher over specsDir.
func NewSpecWatcher(config Config, specsDir string, logger *slog.Logger) (*SpecWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	extensions := make(map[string]bool)
	for _, ext := range config.FileExtensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[ext] = true
	}
	if len(extensions) == 0 {
		extensions[".txt"] = true
		extensions[".dal"] = true
	}

	excludes := make(map[string]bool)
	for _, dir := range config.ExcludeDirs {
		excludes[dir] = true
	}

	return &SpecWatcher{
		config:     config,
		specsDir:   specsDir,
		watcher:    fsw,
		logger:     logger,
		extensions: extensions,
		excludes:   excludes,
		pending:    make(map[string]fsnotify.Op),
		hashes:     make(map[string]string),
		events:     make(chan Event, eventChannelBuffer),
	}, nil
}

// Events returns the channel of watch events.
func (w *SpecWatcher) Events() <-chan Event {
	return w.events
}

// Start begins watching the specs directory for changes.
func (w *SpecWatcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.specsDir, 0o755); err != nil {
		return err
	}
	if err := w.addWatchesRecursive(w.specsDir); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Spec watcher started",
		"specs_dir", w.specsDir,
		"debounce", w.debounce(),
		"extensions", w.config.FileExtensions)
	return nil
}

// Stop stops the watcher. The events channel is closed by
// processEvents when it exits.
func (w *SpecWatcher) Stop() error {
	return w.watcher.Close()
}

// SetHash records the hash for a file (used during initial indexing).
func (w *SpecWatcher) SetHash(path, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[path] = hash
}

// GetHash returns the recorded hash for a file.
func (w *SpecWatcher) GetHash(path string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	hash, ok := w.hashes[path]
	return hash, ok
}

// DroppedEvents returns the number of events dropped due to channel
// overflow.
func (w *SpecWatcher) DroppedEvents() int64 {
	return w.droppedEvents.Load()
}

func (w *SpecWatcher) debounce() time.Duration {
	if w.config.DebounceDelay <= 0 {
		return 500 * time.Millisecond
	}
	return w.config.DebounceDelay
}

func (w *SpecWatcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if w.excludes[base] || (strings.HasPrefix(base, ".") && base != ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}
		return nil
	})
}

func (w *SpecWatcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.debounce())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *SpecWatcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	ext := strings.ToLower(filepath.Ext(path))
	if !w.extensions[ext] {
		// Directory creation needs a new watch.
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.handleNewDirectory(path)
			}
		}
		return
	}

	relPath, _ := filepath.Rel(w.specsDir, path)
	for excludeDir := range w.excludes {
		if strings.Contains(relPath, excludeDir+string(filepath.Separator)) {
			return
		}
	}

	w.pendingMu.Lock()
	w.pending[path] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Spec change detected", "path", relPath, "op", event.Op.String())
}

func (w *SpecWatcher) handleNewDirectory(path string) {
	base := filepath.Base(path)
	if w.excludes[base] || strings.HasPrefix(base, ".") {
		return
	}
	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
	} else {
		w.logger.Debug("Added watch for new directory", "path", path)
	}
}

func (w *SpecWatcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		select {
		case <-ctx.Done():
			return
		default:
		}

		relPath, _ := filepath.Rel(w.specsDir, path)
		event := Event{Path: relPath, AbsPath: path}

		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			event.Operation = OpDelete
			w.hashMu.Lock()
			delete(w.hashes, relPath)
			w.hashMu.Unlock()
			w.sendEvent(event)
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			event.Operation = OpDelete
			w.sendEvent(event)
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			w.logger.Warn("Failed to read file for hash check", "path", relPath, "error", err)
			continue
		}

		newHash := ContentHash(content)
		oldHash, hadHash := w.GetHash(relPath)
		if hadHash && oldHash == newHash {
			continue
		}
		w.SetHash(relPath, newHash)

		if op.Has(fsnotify.Create) || !hadHash {
			event.Operation = OpCreate
		} else {
			event.Operation = OpModify
		}
		w.sendEvent(event)
	}
}

func (w *SpecWatcher) sendEvent(event Event) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event", "path", event.Path, "op", event.Operation)
	default:
		dropped := w.droppedEvents.Add(1)
		w.logger.Warn("Event channel full, dropping event",
			"path", event.Path,
			"total_dropped", dropped)
	}
}

// ContentHash returns the hex sha256 of content.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
