// Package server exposes the compile, check, and interrogate workflow
// plus the graph and gap reports over a small JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/specforge/specforge/compiler"
	"github.com/specforge/specforge/config"
	"github.com/specforge/specforge/gaps"
	"github.com/specforge/specforge/graph"
	"github.com/specforge/specforge/guardian"
	"github.com/specforge/specforge/interrogation"
	"github.com/specforge/specforge/lint"
	"github.com/specforge/specforge/scenario"
	"github.com/specforge/specforge/vocabulary"
)

// Server serves the workflow API for one project root.
type Server struct {
	projectRoot string
	logger      *slog.Logger
	httpServer  *http.Server
}

// New creates a server for projectRoot listening on addr.
func New(projectRoot, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{projectRoot: projectRoot, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /graph", s.handleGraph)
	mux.HandleFunc("GET /gaps", s.handleGaps)
	mux.HandleFunc("GET /equivalences", s.handleEquivalences)
	mux.HandleFunc("POST /compile", s.handleCompile)
	mux.HandleFunc("POST /check", s.handleCheck)
	mux.HandleFunc("POST /interrogate", s.handleInterrogate)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe runs the server until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("API server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "specforge-api"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	specs, _ := filepath.Glob(filepath.Join(s.projectRoot, "specs", "*.txt"))
	dals, _ := filepath.Glob(filepath.Join(s.projectRoot, "specs", "*.dal"))
	gapList, err := gaps.Load(s.projectRoot)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	open := 0
	for _, g := range gapList {
		if g.TriageStatus == "" || g.TriageStatus == gaps.TriageNeedsSpec {
			open++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"initialized": config.IsInitialized(s.projectRoot),
		"gwt_specs":   len(specs),
		"dal_specs":   len(dals),
		"gaps_total":  len(gapList),
		"gaps_open":   open,
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, _ *http.Request) {
	model, err := s.buildGraph()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	data, err := graph.ExportJSON(model)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(data, '\n'))
}

func (s *Server) handleGaps(w http.ResponseWriter, _ *http.Request) {
	model, err := s.buildGraph()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	triaged, err := gaps.LoadTriaged(s.projectRoot)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	found := gaps.Analyze(model, triaged)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": len(found), "gaps": found})
}

func (s *Server) handleEquivalences(w http.ResponseWriter, r *http.Request) {
	threshold := 0.7
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 || parsed > 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid threshold %q", raw))
			return
		}
		threshold = parsed
	}
	model, err := s.buildGraph()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	pairs := graph.FindSemanticEquivalences(model, threshold)
	if pairs == nil {
		pairs = []graph.Equivalence{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":           true,
		"count":        len(pairs),
		"threshold":    threshold,
		"equivalences": pairs,
	})
}

type compileRequest struct {
	InputPath   string `json:"input_path"`
	ProjectRoot string `json:"project_root"`
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req compileRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	root := s.resolveRoot(req.ProjectRoot)
	input := resolvePath(root, req.InputPath)

	vocab, err := vocabularyForRoot(root)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	outputs, err := compiler.Compile(input, vocab, root)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	paths := map[string]string{}
	if outputs.DAL != "" {
		paths["dal"] = outputs.DAL
	}
	if outputs.CanonicalGWT != "" {
		paths["canonical_gwt"] = outputs.CanonicalGWT
	}
	if outputs.IR != "" {
		paths["ir"] = outputs.IR
	}
	if outputs.Diff != "" {
		paths["diff"] = outputs.Diff
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "outputs": paths})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req compileRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	root := s.resolveRoot(req.ProjectRoot)
	target := resolvePath(root, req.InputPath)

	vocab, err := vocabularyForRoot(root)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	checker, err := lint.NewChecker(vocab)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	violations, err := checker.CheckTarget(target)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if violations == nil {
		violations = []lint.Violation{}
	}

	warnings := []guardian.Warning{}
	cfg := s.loadConfig()
	if cfg.Guardian.Enabled {
		warnings, err = guardian.AnalyzeTarget(
			target, cfg.Guardian.Sensitivity, cfg.Guardian.Allowlist)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if warnings == nil {
			warnings = []guardian.Warning{}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":                len(violations) == 0 && len(warnings) == 0,
		"count":             len(violations),
		"violations":        violations,
		"guardian_count":    len(warnings),
		"guardian_warnings": warnings,
	})
}

// loadConfig returns the project config, or defaults when the project
// has no config file yet.
func (s *Server) loadConfig() *config.Config {
	if !config.IsInitialized(s.projectRoot) {
		return config.DefaultConfig()
	}
	cfg, err := config.Load(s.projectRoot)
	if err != nil {
		s.logger.Warn("Failed to load project config, using defaults", "error", err)
		return config.DefaultConfig()
	}
	return cfg
}

type interrogateRequest struct {
	Idea        string   `json:"idea"`
	ProjectRoot string   `json:"project_root"`
	Slug        string   `json:"slug"`
	Answers     []string `json:"answers"`
	Approve     bool     `json:"approve"`
}

func (s *Server) handleInterrogate(w http.ResponseWriter, r *http.Request) {
	var req interrogateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	root := s.resolveRoot(req.ProjectRoot)

	answers, err := interrogation.ParseAnswerFlags(req.Answers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	session, questions, err := interrogation.Iterate(root, req.Idea, req.Slug, answers, req.Approve)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if questions == nil {
		questions = []interrogation.Question{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"session":   session,
		"questions": questions,
	})
}

// buildGraph parses every spec source under specs/ and builds the
// state-machine model.
func (s *Server) buildGraph() (*graph.Model, error) {
	specsDir := filepath.Join(s.projectRoot, "specs")
	matches, err := filepath.Glob(filepath.Join(specsDir, "*.txt"))
	if err != nil {
		return nil, err
	}

	var result scenario.Result
	for _, path := range matches {
		parsed, err := scenario.ParseFile(path)
		if err != nil {
			return nil, err
		}
		result.Merge(parsed)
	}
	return graph.Build(result.Scenarios), nil
}

func (s *Server) resolveRoot(root string) string {
	if root == "" {
		return s.projectRoot
	}
	return root
}

func resolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func vocabularyForRoot(root string) (*vocabulary.Vocabulary, error) {
	path := filepath.Join(root, "specs", "vocab.yaml")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("missing vocabulary file: %s", path)
	}
	return vocabulary.Load(path)
}

func readJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"ok": false, "error": err.Error()})
}
