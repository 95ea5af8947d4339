// Package interrogation drives the deterministic spec-drafting loop:
// each iteration re-renders a draft spec from the accumulated answers,
// compiles it, and records the IR hash. Approval is gated on all
// blocking questions being answered and the IR hash being stable
// across two consecutive iterations.
package interrogation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/specforge/specforge/compiler"
	"github.com/specforge/specforge/lint"
	"github.com/specforge/specforge/vocabulary"
)

// Question is one clarifying question in the loop.
type Question struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Blocking bool   `json:"blocking"`
}

// Session is the persistent state for one drafting loop.
type Session struct {
	SessionID     string            `json:"session_id"`
	Slug          string            `json:"slug"`
	Idea          string            `json:"idea"`
	Iteration     int               `json:"iteration"`
	Approved      bool              `json:"approved"`
	Answers       map[string]string `json:"answers"`
	IRHashHistory []string          `json:"ir_hash_history"`
	LastOutputs   map[string]string `json:"last_outputs"`
}

// Stable reports whether the last two iterations produced the same IR.
func (s *Session) Stable() bool {
	n := len(s.IRHashHistory)
	return n >= 2 && s.IRHashHistory[n-1] == s.IRHashHistory[n-2]
}

var (
	slugStripRe = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaceRe = regexp.MustCompile(`\s+`)
)

// DefaultSlug derives a session slug from the idea text.
func DefaultSlug(idea string) string {
	slug := strings.TrimSpace(strings.ToLower(idea))
	slug = slugStripRe.ReplaceAllString(slug, "")
	slug = slugSpaceRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "interrogation-spec"
	}
	return slug
}

func sessionPath(projectRoot, slug string) string {
	return filepath.Join(projectRoot, ".specforge", "interrogation", slug+".json")
}

// LoadSession reads a persisted session, nil if none exists.
func LoadSession(projectRoot, slug string) (*Session, error) {
	data, err := os.ReadFile(sessionPath(projectRoot, slug))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SaveSession persists the session under .specforge/interrogation.
func SaveSession(projectRoot string, session *Session) (string, error) {
	path := sessionPath(projectRoot, session.Slug)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if session.Answers == nil {
		session.Answers = map[string]string{}
	}
	if session.LastOutputs == nil {
		session.LastOutputs = map[string]string{}
	}
	if session.IRHashHistory == nil {
		session.IRHashHistory = []string{}
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ParseAnswerFlags parses repeated key=value answer flags.
func ParseAnswerFlags(flags []string) (map[string]string, error) {
	parsed := make(map[string]string, len(flags))
	for _, flag := range flags {
		key, value, ok := strings.Cut(flag, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --answer '%s', expected key=value", flag)
		}
		parsed[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return parsed, nil
}

// BuildQuestions returns the blocking questions still unanswered.
func BuildQuestions(session *Session) []Question {
	var questions []Question
	required := []struct{ id, text string }{
		{"success_criteria", "What observable behavior proves this idea is successful?"},
		{"failure_case", "What failure or invalid input behavior must be specified?"},
		{"constraints", "What constraints or limits must be explicit in acceptance behavior?"},
	}
	for _, q := range required {
		if _, answered := session.Answers[q.id]; !answered {
			questions = append(questions, Question{ID: q.id, Text: q.text, Blocking: true})
		}
	}
	return questions
}

// RenderDraft renders a deterministic draft GWT file from session
// state. The same session always yields the same bytes, which is what
// makes the IR-hash stability gate meaningful.
func RenderDraft(session *Session) string {
	title := strings.TrimRight(strings.TrimSpace(session.Idea), ".")

	lines := []string{
		";===============================================================",
		fmt.Sprintf("; Interrogation draft for: %s.", title),
		";===============================================================",
		fmt.Sprintf("GIVEN there is no acceptance spec describing %s.", title),
		"",
		fmt.Sprintf("WHEN the user starts the ATDD workflow for %q.", title),
		"",
		fmt.Sprintf("THEN a DAL spec file exists at \"specs/%s.dal\".", session.Slug),
		fmt.Sprintf("THEN a GWT spec file exists at \"specs/%s.txt\".", session.Slug),
	}
	for _, id := range []string{"success_criteria", "failure_case", "constraints"} {
		if answer := session.Answers[id]; answer != "" {
			lines = append(lines,
				fmt.Sprintf("THEN the regenerated GWT spec includes a scenario describing %s.", answer))
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

// Iterate runs one interrogation iteration: merge answers, write the
// draft, compile it, lint it, and record the IR hash. With approve set
// it marks the session approved when stable and fully answered.
func Iterate(projectRoot, idea, slug string, answers map[string]string, approve bool) (*Session, []Question, error) {
	if slug == "" {
		slug = DefaultSlug(idea)
	}
	session, err := LoadSession(projectRoot, slug)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		session = &Session{
			SessionID: uuid.NewString(),
			Slug:      slug,
			Idea:      strings.TrimSpace(idea),
			Answers:   map[string]string{},
		}
	}
	trimmed := strings.TrimSpace(idea)
	if trimmed != "" && session.Idea != trimmed && session.Iteration > 0 {
		return nil, nil, fmt.Errorf("session '%s' already exists for a different idea", slug)
	}

	for k, v := range answers {
		if v != "" {
			session.Answers[k] = v
		}
	}
	session.Iteration++

	specsDir := filepath.Join(projectRoot, "specs")
	if err := os.MkdirAll(specsDir, 0o755); err != nil {
		return nil, nil, err
	}
	gwtPath := filepath.Join(specsDir, session.Slug+".txt")
	if err := os.WriteFile(gwtPath, []byte(RenderDraft(session)), 0o644); err != nil {
		return nil, nil, err
	}

	vocabPath := filepath.Join(specsDir, "vocab.yaml")
	if _, err := os.Stat(vocabPath); err != nil {
		return nil, nil, fmt.Errorf("missing vocabulary file: %s", vocabPath)
	}
	vocab, err := vocabulary.Load(vocabPath)
	if err != nil {
		return nil, nil, err
	}

	outputs, err := compiler.Compile(gwtPath, vocab, projectRoot)
	if err != nil {
		return nil, nil, err
	}

	checker, err := lint.NewChecker(vocab)
	if err != nil {
		return nil, nil, err
	}
	violations, err := checker.CheckTarget(gwtPath)
	if err != nil {
		return nil, nil, err
	}
	if len(violations) > 0 {
		first := violations[0]
		return nil, nil, fmt.Errorf("spec-check violation at %s:%d:%d: %s",
			first.File, first.Line, first.Column, first.Message)
	}

	irData, err := os.ReadFile(outputs.IR)
	if err != nil {
		return nil, nil, err
	}
	sum := sha256.Sum256(irData)
	session.IRHashHistory = append(session.IRHashHistory, hex.EncodeToString(sum[:]))
	session.LastOutputs = outputPaths(outputs)

	questions := BuildQuestions(session)

	if approve {
		if len(questions) > 0 {
			return nil, nil, fmt.Errorf("cannot approve: unresolved blocking questions remain")
		}
		if !session.Stable() {
			return nil, nil, fmt.Errorf("cannot approve: IR is not yet stable across iterations")
		}
		session.Approved = true
	}

	if _, err := SaveSession(projectRoot, session); err != nil {
		return nil, nil, err
	}
	return session, questions, nil
}

func outputPaths(outputs *compiler.Outputs) map[string]string {
	paths := map[string]string{}
	for key, value := range map[string]string{
		"dal":           outputs.DAL,
		"canonical_gwt": outputs.CanonicalGWT,
		"ir":            outputs.IR,
		"diff":          outputs.Diff,
	} {
		if value != "" {
			paths[key] = value
		}
	}
	return paths
}

// SortedAnswerKeys returns answer keys in stable order for display.
func SortedAnswerKeys(session *Session) []string {
	keys := make([]string, 0, len(session.Answers))
	for k := range session.Answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
