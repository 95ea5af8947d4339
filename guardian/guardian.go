// Package guardian flags implementation-detail leakage in free-form
// scenarios: class names, database vocabulary, API surface, and
// framework names that belong in code, not in behavioral specs.
package guardian

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/specforge/specforge/scenario"
)

// Warning is one flagged clause with a behavioral rewrite suggestion.
type Warning struct {
	OriginalText         string   `json:"original_text"`
	FlaggedTerms         []string `json:"flagged_terms"`
	SuggestedAlternative string   `json:"suggested_alternative"`
	Category             string   `json:"category"`
}

// Sensitivity levels accepted by Analyze*.
const (
	SensitivityLow    = "low"
	SensitivityMedium = "medium"
	SensitivityHigh   = "high"
)

type leakPattern struct {
	re         *regexp.Regexp
	suggestion string
}

type category struct {
	name     string
	patterns []leakPattern
}

var categories = []category{
	{"class_name", []leakPattern{
		// CamelCase identifiers with at least two humps.
		{regexp.MustCompile(`\b([A-Z][a-z]+(?:[A-Z][a-z]+)+)\b`), "a behavioral description"},
		{regexp.MustCompile(`\b\w*(?:Service|Repository|Controller|Manager|Factory|Handler)\b`), "a behavioral description"},
	}},
	{"database", []leakPattern{
		{regexp.MustCompile(`(?i)\b(?:table|tables)\b`), "collection/group"},
		{regexp.MustCompile(`(?i)\b(?:row|rows)\b`), "record/entry"},
		{regexp.MustCompile(`(?i)\b(?:column|columns)\b`), "field/attribute"},
		{regexp.MustCompile(`(?i)\bschema\b`), "structure"},
		{regexp.MustCompile(`(?i)\bmigration\b`), "update"},
		{regexp.MustCompile(`\bSQL\b`), "query"},
		{regexp.MustCompile(`(?i)\bdatabase\b`), "data store"},
	}},
	{"api", []leakPattern{
		{regexp.MustCompile(`\b(?:POST|GET|PUT|DELETE|PATCH)\s+(?:request|to)\b`), "action"},
		{regexp.MustCompile(`/api/\S+`), "the system"},
		{regexp.MustCompile(`(?i)\bendpoint\b`), "capability"},
		{regexp.MustCompile(`\bHTTP\b`), "request"},
		{regexp.MustCompile(`(?i)\bstatus\s+code\b`), "response"},
	}},
	{"framework", []leakPattern{
		{regexp.MustCompile(`\bRedis\b`), "cache"},
		{regexp.MustCompile(`\bKafka\b`), "message queue"},
		{regexp.MustCompile(`\bMongoDB\b`), "data store"},
		{regexp.MustCompile(`(?i)\bcache\b`), "stored data"},
		{regexp.MustCompile(`(?i)\bqueue\b`), "pending items"},
		{regexp.MustCompile(`(?i)\bmiddleware\b`), "processing step"},
	}},
}

// Known implementation terms and their behavioral replacements,
// checked in order before falling back to the pattern default.
var substitutions = []struct{ term, behavioral string }{
	{"UserService", "GIVEN no registered users"},
	{"users table", "registered users"},
	{"row", "registered user"},
	{"POST request", "a user registers"},
	{"/api/users", "a user registers"},
	{"Redis cache", "no cached sessions"},
	{"Redis", "cached"},
}

var classSuffixes = []string{"Service", "Repository", "Controller", "Manager", "Factory", "Handler"}

// AnalyzeClause checks one clause. At low sensitivity only class names
// and API surface are checked, and single-word CamelCase without a
// known suffix is ignored.
func AnalyzeClause(clause scenario.Clause, sensitivity string, allowlist []string) []Warning {
	var warnings []Warning
	text := clause.Text

	for _, cat := range categories {
		if sensitivity == SensitivityLow && cat.name != "class_name" && cat.name != "api" {
			continue
		}
		for _, lp := range cat.patterns {
			for _, match := range lp.re.FindAllString(text, -1) {
				if allowlisted(match, allowlist) {
					continue
				}
				if sensitivity == SensitivityLow && cat.name == "class_name" && !hasClassSuffix(match) {
					continue
				}
				warnings = append(warnings, Warning{
					OriginalText:         text,
					FlaggedTerms:         []string{match},
					SuggestedAlternative: suggest(text, match, lp.suggestion),
					Category:             cat.name,
				})
			}
		}
	}
	return warnings
}

// AnalyzeScenario checks every clause of a scenario.
func AnalyzeScenario(sc scenario.Scenario, sensitivity string, allowlist []string) []Warning {
	var warnings []Warning
	for _, clauses := range [][]scenario.Clause{sc.Givens, sc.Whens, sc.Thens} {
		for _, c := range clauses {
			warnings = append(warnings, AnalyzeClause(c, sensitivity, allowlist)...)
		}
	}
	return warnings
}

// AnalyzeAll checks every scenario from a parsed file.
func AnalyzeAll(scenarios []scenario.Scenario, sensitivity string, allowlist []string) []Warning {
	var warnings []Warning
	for _, sc := range scenarios {
		warnings = append(warnings, AnalyzeScenario(sc, sensitivity, allowlist)...)
	}
	return warnings
}

// AnalyzeTarget analyzes the free-form scenarios of a .txt spec file,
// or of every .txt file under a directory.
func AnalyzeTarget(target, sensitivity string, allowlist []string) ([]Warning, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}

	var files []string
	if info.IsDir() {
		matches, err := doublestar.Glob(os.DirFS(target), "**/*.txt")
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		for _, m := range matches {
			files = append(files, filepath.Join(target, m))
		}
	} else if filepath.Ext(target) == ".txt" {
		files = append(files, target)
	}

	var warnings []Warning
	for _, file := range files {
		result, err := scenario.ParseFile(file)
		if err != nil {
			return nil, err
		}
		warnings = append(warnings, AnalyzeAll(result.Scenarios, sensitivity, allowlist)...)
	}
	return warnings, nil
}

func allowlisted(match string, allowlist []string) bool {
	lower := strings.ToLower(match)
	for _, allowed := range allowlist {
		if strings.Contains(lower, strings.ToLower(allowed)) {
			return true
		}
	}
	return false
}

func hasClassSuffix(match string) bool {
	for _, suffix := range classSuffixes {
		if strings.Contains(match, suffix) {
			return true
		}
	}
	return false
}

func suggest(original, flagged, fallback string) string {
	lowerFlagged := strings.ToLower(flagged)
	lowerOriginal := strings.ToLower(original)
	for _, sub := range substitutions {
		term := strings.ToLower(sub.term)
		if strings.Contains(lowerFlagged, term) || strings.Contains(lowerOriginal, term) {
			return sub.behavioral
		}
	}
	return fallback
}
