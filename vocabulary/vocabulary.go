// Package vocabulary loads the declarative grammar that drives both
// notation parsers and renderers: typed fact/action/expectation symbols,
// their match patterns, render templates, and derivation rules.
package vocabulary

import (
	"fmt"
	"regexp"
)

// ArgSpec declares one argument of a vocabulary entry.
type ArgSpec struct {
	Name string
	Type string
}

// TypeSpec is a named validation rule: a string type with an optional
// full-match pattern, or an enum type with a closed value set.
type TypeSpec struct {
	Kind    string
	Pattern *regexp.Regexp
	Values  []any
}

// DeriveTarget computes Target from Source when the argument is absent.
// Source is either the name of a captured argument, a context key, a
// named derivation, or a literal fallback value.
type DeriveTarget struct {
	Target string
	Source any
}

// DeriveRule is a conditionally gated list of derivations, applied in
// declaration order.
type DeriveRule struct {
	WhenMatchGroupPresent string
	Derive                []DeriveTarget
}

// ReasonMapping selects an alternate literal rendering keyed by the
// semantic "reason" argument.
type ReasonMapping struct {
	MatchIndex int    `yaml:"match_index"`
	Reason     string `yaml:"reason"`
}

// Derivation is a named value computation referenced by derive rules:
// either a transform over the feature name or a format-string template
// populated from context and arguments.
type Derivation struct {
	Transform string `yaml:"transform"`
	Format    string `yaml:"format"`
}

// Entry is one compiled vocabulary symbol. Match patterns are compiled
// once at load time and tried in declaration order; the final pattern is
// always the one synthesized from the render template.
type Entry struct {
	Category        string
	Symbol          string
	Args            []ArgSpec
	GWTPatterns     []*regexp.Regexp
	GWTPatternTexts []string
	GWTRender       string
	DALRender       string
	DefaultArgs     map[string]any
	DeriveRules     []DeriveRule
	ReasonByMatch   []ReasonMapping
}

// RequiredArg reports whether name is a declared argument of the entry.
func (e *Entry) RequiredArg(name string) bool {
	for _, arg := range e.Args {
		if arg.Name == name {
			return true
		}
	}
	return false
}

// LintConfig holds the implementation-leakage lint configuration.
type LintConfig struct {
	BannedTokens            []string `yaml:"banned_tokens"`
	BannedRegex             []string `yaml:"banned_regex"`
	AllowedContextualTokens []string `yaml:"allowed_contextual_tokens"`
}

// Vocabulary is the compiled lookup structure produced by Load.
type Vocabulary struct {
	Path        string
	Types       map[string]*TypeSpec
	Derivations map[string]Derivation
	Lint        LintConfig
	GWTKeywords map[string]string
	DALKeywords []string

	bySymbolKind map[symbolKey]*Entry
	byKind       map[string][]*Entry
	ordered      []*Entry
}

type symbolKey struct {
	kind   string
	symbol string
}

// Lookup returns the entry for (kind, symbol), or nil.
func (v *Vocabulary) Lookup(kind, symbol string) *Entry {
	return v.bySymbolKind[symbolKey{kind: kind, symbol: symbol}]
}

// EntriesByKind returns the entries of one category in declaration order.
func (v *Vocabulary) EntriesByKind(kind string) []*Entry {
	return v.byKind[kind]
}

// Entries returns every entry in declaration order (facts, then actions,
// then expectations).
func (v *Vocabulary) Entries() []*Entry {
	return v.ordered
}

// Keyword returns the configured token for a GWT keyword (GIVEN, WHEN,
// THEN, AND), defaulting to the keyword itself.
func (v *Vocabulary) Keyword(name string) string {
	if token, ok := v.GWTKeywords[name]; ok && token != "" {
		return token
	}
	return name
}

// ValidateValue checks a value against a named type. The returned error
// is a plain description; callers wrap it with file:line context.
func (v *Vocabulary) ValidateValue(typeName string, value any) error {
	spec, ok := v.Types[typeName]
	if !ok {
		return fmt.Errorf("unknown type '%s'", typeName)
	}

	switch spec.Kind {
	case "string":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string for type '%s'", typeName)
		}
		if spec.Pattern != nil && !spec.Pattern.MatchString(s) {
			return fmt.Errorf("value '%s' does not match type '%s'", s, typeName)
		}
		return nil
	case "enum":
		for _, allowed := range spec.Values {
			if allowed == value {
				return nil
			}
		}
		return fmt.Errorf("value '%v' not allowed for type '%s'", value, typeName)
	default:
		return fmt.Errorf("unsupported type kind '%s' for '%s'", spec.Kind, typeName)
	}
}
