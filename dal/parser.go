// Package dal parses and renders the strict, statement-terminated
// notation. DAL is the canonical textual form: every statement ends with
// a '.' and every step is a symbol call with typed keyword arguments.
package dal

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/specforge/specforge/ir"
	"github.com/specforge/specforge/vocabulary"
)

var (
	featureRe  = regexp.MustCompile(`\A(?:FEATURE\s+([A-Za-z_][A-Za-z0-9_]*)\.)\z`)
	scenarioRe = regexp.MustCompile(`\A(?:SCENARIO\s+([a-z][a-z0-9_]*)\.)\z`)
	importRe   = regexp.MustCompile(`\A(?:IMPORT\s+([a-z][a-z0-9_]*)\.)\z`)
	stepRe     = regexp.MustCompile(`\A(?:(FACT|DO|EXPECT)\s+([a-zA-Z_][a-zA-Z0-9_]*)\((.*)\)\.)\z`)
	intRe      = regexp.MustCompile(`\A(?:-?[0-9]+)\z`)
)

var opKinds = map[string]string{
	"FACT":   ir.KindFact,
	"DO":     ir.KindAction,
	"EXPECT": ir.KindExpectation,
}

// ParseFile parses a DAL file into canonical IR.
func ParseFile(path string, vocab *vocabulary.Vocabulary) (*ir.Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data), path, vocab)
}

// Parse parses DAL text into canonical IR. The name is used in error
// context only.
func Parse(content, name string, vocab *vocabulary.Vocabulary) (*ir.Feature, error) {
	statements, err := accumulate(content, name)
	if err != nil {
		return nil, err
	}

	feature := &ir.Feature{FeatureID: "feature", Scenarios: []ir.Scenario{}}
	var current *ir.Scenario

	for _, stmt := range statements {
		if m := featureRe.FindStringSubmatch(stmt.text); m != nil {
			feature.FeatureID = m[1]
			continue
		}

		if m := scenarioRe.FindStringSubmatch(stmt.text); m != nil {
			if current != nil {
				feature.Scenarios = append(feature.Scenarios, *current)
			}
			if err := vocab.ValidateValue("scenario_name", m[1]); err != nil {
				return nil, ir.Errorf(name, stmt.line, "%s", err)
			}
			current = &ir.Scenario{
				Name:    m[1],
				Imports: []string{},
				Givens:  []ir.Step{},
				Whens:   []ir.Step{},
				Thens:   []ir.Step{},
			}
			continue
		}

		if m := importRe.FindStringSubmatch(stmt.text); m != nil {
			if current == nil {
				return nil, ir.Errorf(name, stmt.line, "IMPORT must appear after SCENARIO")
			}
			current.Imports = append(current.Imports, m[1])
			continue
		}

		if m := stepRe.FindStringSubmatch(stmt.text); m != nil {
			if current == nil {
				return nil, ir.Errorf(name, stmt.line, "step must appear after SCENARIO")
			}
			op, symbol, blob := m[1], m[2], m[3]
			kind := opKinds[op]
			entry := vocab.Lookup(kind, symbol)
			if entry == nil {
				return nil, ir.Errorf(name, stmt.line, "unknown %s symbol '%s'", op, symbol)
			}
			args, err := parseKwargs(blob, name, stmt.line)
			if err != nil {
				return nil, err
			}
			if err := ValidateStepArgs(vocab, entry, args, name, stmt.line); err != nil {
				return nil, err
			}
			step := ir.Step{Kind: kind, Symbol: symbol, Args: args}
			switch kind {
			case ir.KindFact:
				current.Givens = append(current.Givens, step)
			case ir.KindAction:
				current.Whens = append(current.Whens, step)
			default:
				current.Thens = append(current.Thens, step)
			}
			continue
		}

		return nil, ir.Errorf(name, stmt.line, "invalid DAL statement: %s", stmt.text)
	}

	if current != nil {
		feature.Scenarios = append(feature.Scenarios, *current)
	}
	return feature, nil
}

type statement struct {
	line int
	text string
}

// accumulate joins lines into '.'-terminated statements, skipping blank
// lines and ';' comments.
func accumulate(content, name string) ([]statement, error) {
	var statements []statement
	var buffer []string
	startLine := 0

	for idx, raw := range strings.Split(content, "\n") {
		stripped := strings.TrimSpace(raw)
		if stripped == "" || strings.HasPrefix(stripped, ";") {
			continue
		}
		if len(buffer) == 0 {
			startLine = idx + 1
		}
		buffer = append(buffer, stripped)
		if strings.HasSuffix(stripped, ".") {
			statements = append(statements, statement{line: startLine, text: strings.Join(buffer, " ")})
			buffer = nil
		}
	}

	if len(buffer) > 0 {
		return nil, ir.Errorf(name, startLine, "DAL statement must end with '.'")
	}
	return statements, nil
}

// parseKwargs splits a comma-separated key=value blob, quote-aware so
// commas inside double-quoted strings do not split.
func parseKwargs(blob, name string, line int) (map[string]any, error) {
	blob = strings.TrimSpace(blob)
	args := map[string]any{}
	if blob == "" {
		return args, nil
	}

	var parts []string
	var current strings.Builder
	inString := false
	escaped := false
	for _, ch := range blob {
		if inString {
			current.WriteRune(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
			current.WriteRune(ch)
		case ',':
			parts = append(parts, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, strings.TrimSpace(current.String()))
	}

	for _, part := range parts {
		key, rawValue, ok := strings.Cut(part, "=")
		if !ok {
			return nil, ir.Errorf(name, line, "invalid arg '%s', expected key=value", part)
		}
		value, err := parseValue(strings.TrimSpace(rawValue), name, line)
		if err != nil {
			return nil, err
		}
		args[strings.TrimSpace(key)] = value
	}
	return args, nil
}

func parseValue(raw, name string, line int) (any, error) {
	switch strings.ToLower(raw) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if intRe.MatchString(raw) {
		n := 0
		_, err := fmt.Sscanf(raw, "%d", &n)
		if err == nil {
			return n, nil
		}
	}
	if len(raw) >= 2 && strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) {
		return unescape(raw[1 : len(raw)-1]), nil
	}
	return nil, ir.Errorf(name, line, "unsupported value '%s'", raw)
}

// unescape reverses the renderer's string escaping: \" and \\ become
// their literal characters, any other backslash is kept as-is.
func unescape(s string) string {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\') {
			out.WriteByte(s[i+1])
			i++
			continue
		}
		out.WriteByte(s[i])
	}
	return out.String()
}

// ValidateStepArgs enforces the shared argument contract for both
// notations: every declared argument present, no extras, every value
// passing its declared type.
func ValidateStepArgs(vocab *vocabulary.Vocabulary, entry *vocabulary.Entry, args map[string]any, file string, line int) error {
	for _, spec := range entry.Args {
		if _, ok := args[spec.Name]; !ok {
			return ir.Errorf(file, line, "missing arg '%s' for %s", spec.Name, entry.Symbol)
		}
	}
	for name := range args {
		if !entry.RequiredArg(name) {
			return ir.Errorf(file, line, "unexpected arg '%s' for %s", name, entry.Symbol)
		}
	}
	for _, spec := range entry.Args {
		if err := vocab.ValidateValue(spec.Type, args[spec.Name]); err != nil {
			return ir.Errorf(file, line, "%s", err)
		}
	}
	return nil
}
