// Package gwt parses and renders the free-text Given/When/Then notation.
// Parsing matches each clause against vocabulary-supplied patterns and
// runs a multi-stage argument enrichment pipeline so free text compiles
// to the same canonical IR the strict DAL notation produces.
package gwt

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/specforge/specforge/dal"
	"github.com/specforge/specforge/ir"
	"github.com/specforge/specforge/vocabulary"
)

var kindKeywords = map[string]string{
	ir.KindFact:        "GIVEN",
	ir.KindAction:      "WHEN",
	ir.KindExpectation: "THEN",
}

var keywordKinds = map[string]string{
	"GIVEN": ir.KindFact,
	"WHEN":  ir.KindAction,
	"THEN":  ir.KindExpectation,
}

// ParseFile parses a GWT file into canonical IR.
func ParseFile(path string, vocab *vocabulary.Vocabulary) (*ir.Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data), path, vocab)
}

// Parse parses GWT text into canonical IR. The feature id is derived
// from the name's file stem.
func Parse(content, name string, vocab *vocabulary.Vocabulary) (*ir.Feature, error) {
	feature := &ir.Feature{
		FeatureID: featureIDFromName(name),
		Scenarios: []ir.Scenario{},
	}

	var (
		currentName     string
		givens          []ir.Step
		whens           []ir.Step
		thens           []ir.Step
		imports         []string
		lastKind        string
		inHeader        bool
		headerLines     []string
		scenarioCounter int
	)
	context := Context{}

	flush := func() {
		if len(givens) == 0 && len(whens) == 0 && len(thens) == 0 {
			return
		}
		scenarioName := currentName
		if scenarioName == "" {
			scenarioName = fmt.Sprintf("scenario_%d", len(feature.Scenarios)+1)
		}
		feature.Scenarios = append(feature.Scenarios, ir.Scenario{
			Name:    slugToScenarioName(scenarioName),
			Imports: imports,
			Givens:  givens,
			Whens:   whens,
			Thens:   thens,
		})
		currentName = ""
		givens, whens, thens = []ir.Step{}, []ir.Step{}, []ir.Step{}
		imports = []string{}
		context = context.afterFlush()
	}
	givens, whens, thens = []ir.Step{}, []ir.Step{}, []ir.Step{}
	imports = []string{}

	for lineNo, raw := range splitLines(content) {
		lineNo++
		stripped := strings.TrimSpace(raw)
		if stripped == "" {
			continue
		}

		if strings.HasPrefix(stripped, ";") && strings.Contains(stripped, "===") {
			if inHeader {
				if title := strings.TrimSpace(strings.Join(headerLines, " ")); title != "" {
					currentName = title
				}
				headerLines = nil
				inHeader = false
			} else {
				if len(givens) > 0 || len(whens) > 0 || len(thens) > 0 {
					flush()
				}
				inHeader = true
				headerLines = nil
			}
			continue
		}

		if strings.HasPrefix(stripped, ";") {
			if inHeader {
				headerLines = append(headerLines, strings.TrimSpace(strings.TrimLeft(stripped, ";")))
			}
			continue
		}

		keyword, rest, ok := splitKeyword(stripped, vocab)
		if !ok {
			return nil, unknownLineError(name, lineNo, stripped, vocab)
		}

		var kind, lineForMatch string
		if keyword == "AND" {
			if lastKind == "" {
				return nil, ir.Errorf(name, lineNo, "AND used before GIVEN/WHEN/THEN")
			}
			kind = lastKind
			lineForMatch = kindKeywords[kind] + " " + rest
		} else {
			kind = keywordKinds[keyword]
			lineForMatch = stripped
		}

		entry, captured, matchIdx := matchLine(lineForMatch, kind, vocab)
		if entry == nil {
			return nil, unknownLineError(name, lineNo, stripped, vocab)
		}

		args, err := enrich(entry, captured, matchIdx, vocab, context)
		if err != nil {
			return nil, ir.Errorf(name, lineNo, "%s", err)
		}
		if err := dal.ValidateStepArgs(vocab, entry, args, name, lineNo); err != nil {
			return nil, err
		}
		context.update(args)

		step := ir.Step{Kind: kind, Symbol: entry.Symbol, Args: args}
		switch kind {
		case ir.KindFact:
			// A new GIVEN after WHEN/THEN steps marks a scenario restart.
			if len(whens) > 0 || len(thens) > 0 {
				flush()
			}
			givens = append(givens, step)
		case ir.KindAction:
			whens = append(whens, step)
		default:
			thens = append(thens, step)
		}

		if currentName == "" {
			scenarioCounter++
			currentName = fmt.Sprintf("scenario_%d", scenarioCounter)
		}
		lastKind = kind
	}

	if inHeader {
		if title := strings.TrimSpace(strings.Join(headerLines, " ")); title != "" {
			currentName = title
		}
	}
	flush()

	return feature, nil
}

// splitKeyword matches the configured GIVEN/WHEN/THEN/AND token prefixes
// and returns the canonical keyword plus the clause remainder.
func splitKeyword(line string, vocab *vocabulary.Vocabulary) (keyword, rest string, ok bool) {
	for _, key := range []string{"GIVEN", "WHEN", "THEN", "AND"} {
		prefix := vocab.Keyword(key) + " "
		if strings.HasPrefix(line, prefix) {
			return key, line[len(prefix):], true
		}
	}
	return "", "", false
}

// matchLine tries every pattern of every entry of the clause's kind in
// declaration order; first full-line match wins. Captured groups become
// raw argument strings.
func matchLine(line, kind string, vocab *vocabulary.Vocabulary) (*vocabulary.Entry, map[string]any, int) {
	for _, entry := range vocab.EntriesByKind(kind) {
		for idx, pattern := range entry.GWTPatterns {
			loc := pattern.FindStringSubmatchIndex(line)
			if loc == nil {
				continue
			}
			args := map[string]any{}
			for i, groupName := range pattern.SubexpNames() {
				if groupName == "" {
					continue
				}
				start, end := loc[2*i], loc[2*i+1]
				if start < 0 {
					continue
				}
				args[groupName] = line[start:end]
			}
			return entry, args, idx
		}
	}
	return nil, nil, -1
}

// unknownLineError builds the hard parse failure for an unmatched clause,
// including up to 3 closest canonical render strings as a hint.
func unknownLineError(name string, line int, text string, vocab *vocabulary.Vocabulary) error {
	type candidate struct {
		render string
		score  float64
		index  int
	}
	var ranked []candidate
	for i, entry := range vocab.Entries() {
		score := Similarity(text, entry.GWTRender)
		if score >= 0.25 {
			ranked = append(ranked, candidate{render: entry.GWTRender, score: score, index: i})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}

	suffix := ""
	if len(ranked) > 0 {
		renders := make([]string, 0, len(ranked))
		for _, c := range ranked {
			renders = append(renders, c.render)
		}
		suffix = " Closest candidates: " + strings.Join(renders, ", ")
	}
	return ir.Errorf(name, line, "could not match GWT line: %s.%s", text, suffix)
}

// Similarity is the difflib sequence ratio over characters, matching the
// ranking the unmatched-line diagnostics and the semantic-equivalence
// finder both use.
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

func featureIDFromName(name string) string {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.TrimSuffix(stem, ".txt")
	return slugToFeatureID(stem)
}

func splitLines(content string) []string {
	return strings.Split(content, "\n")
}
