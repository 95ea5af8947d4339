// Package lint scans spec files for implementation leakage: technology
// identifiers, endpoint paths, and other phrasing that describes how a
// system is built instead of how it behaves.
package lint

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/specforge/specforge/vocabulary"
)

// Violation is one flagged occurrence in a spec file.
type Violation struct {
	File       string `json:"file"`
	Line       int    `json:"line"`
	Column     int    `json:"column"`
	Kind       string `json:"kind"` // "token", "identifier", "regex"
	Matched    string `json:"matched"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

var identifierRe = regexp.MustCompile(
	`(?i)\b[A-Za-z_]*(service|repository|controller|dao|orm|method|function|class)\b`)

// Checker holds patterns compiled once from the vocabulary lint config.
type Checker struct {
	tokenPatterns []tokenPattern
	regexPatterns []*regexp.Regexp
	regexSources  []string
}

type tokenPattern struct {
	token   string
	pattern *regexp.Regexp
}

// NewChecker compiles the banned-token and banned-regex patterns.
func NewChecker(vocab *vocabulary.Vocabulary) (*Checker, error) {
	allowed := make(map[string]bool, len(vocab.Lint.AllowedContextualTokens))
	for _, tok := range vocab.Lint.AllowedContextualTokens {
		allowed[strings.ToLower(tok)] = true
	}

	c := &Checker{}
	for _, token := range vocab.Lint.BannedTokens {
		if allowed[strings.ToLower(token)] {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(token) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("banned token %q: %w", token, err)
		}
		c.tokenPatterns = append(c.tokenPatterns, tokenPattern{token: token, pattern: re})
	}
	for _, src := range vocab.Lint.BannedRegex {
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("banned regex %q: %w", src, err)
		}
		c.regexPatterns = append(c.regexPatterns, re)
		c.regexSources = append(c.regexSources, src)
	}
	return c, nil
}

// CheckTarget lints a single file or every .txt and .dal file under a
// directory. Results are deduplicated by occurrence.
func (c *Checker) CheckTarget(target string) ([]Violation, error) {
	files, err := collectSpecFiles(target)
	if err != nil {
		return nil, err
	}
	var violations []Violation
	for _, file := range files {
		vs, err := c.checkFile(file)
		if err != nil {
			return nil, err
		}
		violations = append(violations, vs...)
	}
	return dedupe(violations), nil
}

func (c *Checker) checkFile(path string) ([]Violation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var violations []Violation
	for i, raw := range strings.Split(string(data), "\n") {
		lineNo := i + 1
		line := strings.TrimRight(raw, "\n")
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, ";") {
			continue
		}

		for _, tp := range c.tokenPatterns {
			for _, loc := range tp.pattern.FindAllStringIndex(line, -1) {
				matched := line[loc[0]:loc[1]]
				violations = append(violations, Violation{
					File:       path,
					Line:       lineNo,
					Column:     loc[0] + 1,
					Kind:       "token",
					Matched:    matched,
					Message:    fmt.Sprintf("Implementation token '%s' is banned", matched),
					Suggestion: suggestRewrite(line),
				})
			}
		}

		for _, loc := range identifierRe.FindAllStringIndex(line, -1) {
			matched := line[loc[0]:loc[1]]
			violations = append(violations, Violation{
				File:       path,
				Line:       lineNo,
				Column:     loc[0] + 1,
				Kind:       "identifier",
				Matched:    matched,
				Message:    fmt.Sprintf("Implementation identifier '%s' is banned", matched),
				Suggestion: suggestRewrite(line),
			})
		}

		for ri, re := range c.regexPatterns {
			for _, loc := range re.FindAllStringIndex(line, -1) {
				violations = append(violations, Violation{
					File:       path,
					Line:       lineNo,
					Column:     loc[0] + 1,
					Kind:       "regex",
					Matched:    line[loc[0]:loc[1]],
					Message:    fmt.Sprintf("Implementation pattern matched: %s", c.regexSources[ri]),
					Suggestion: suggestRewrite(line),
				})
			}
		}
	}
	return violations, nil
}

func collectSpecFiles(target string) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{target}, nil
	}

	var files []string
	for _, pattern := range []string{"**/*.txt", "**/*.dal"} {
		matches, err := doublestar.Glob(os.DirFS(target), pattern)
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		for _, m := range matches {
			files = append(files, filepath.Join(target, m))
		}
	}
	return files, nil
}

var httpVerbs = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

func suggestRewrite(line string) string {
	lower := strings.ToLower(line)
	if strings.Contains(lower, "userservice") || strings.Contains(lower, "repository") ||
		strings.Contains(lower, "user_repository") {
		return "GIVEN no registered users."
	}
	if strings.Contains(lower, "/api/") || containsAny(line, httpVerbs) {
		return `WHEN a user registers with email "bob@example.com" and password "secret123".`
	}
	return "Rewrite this line as behavioral intent without implementation details."
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func dedupe(violations []Violation) []Violation {
	type key struct {
		file    string
		line    int
		column  int
		kind    string
		matched string
	}
	seen := make(map[key]bool, len(violations))
	var out []Violation
	for _, v := range violations {
		k := key{v.File, v.Line, v.Column, v.Kind, v.Matched}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}
