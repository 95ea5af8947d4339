package vocabulary

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadError is a malformed or incomplete vocabulary source. It is fatal:
// no partial vocabulary is ever returned.
type LoadError struct {
	Message string
}

func (e *LoadError) Error() string {
	return e.Message
}

func loadErrorf(format string, args ...any) *LoadError {
	return &LoadError{Message: fmt.Sprintf(format, args...)}
}

// categoryMappings pairs the vocabulary sub-section names with step kinds.
var categoryMappings = []struct {
	section string
	kind    string
}{
	{"facts", "fact"},
	{"actions", "action"},
	{"expectations", "expectation"},
}

// Load reads and compiles a vocabulary source file.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return Parse(data, path)
}

// Parse compiles vocabulary source text. The path is used only for
// diagnostics.
func Parse(data []byte, path string) (*Vocabulary, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, loadErrorf("invalid YAML in %s: %v", path, err)
	}

	root := documentRoot(&doc)
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, loadErrorf("invalid vocabulary format in %s: expected mapping", path)
	}

	rootMap := childMap(root)
	if err := requireKeys(rootMap, []string{"types", "vocabulary", "lints", "gwt", "dal"}, "root"); err != nil {
		return nil, err
	}

	vocabMap := childMap(rootMap["vocabulary"])
	if err := requireKeys(vocabMap, []string{"facts", "actions", "expectations"}, "vocabulary"); err != nil {
		return nil, err
	}
	if err := requireKeys(childMap(rootMap["lints"]), []string{"implementation_leakage"}, "lints"); err != nil {
		return nil, err
	}
	if err := requireKeys(childMap(rootMap["gwt"]), []string{"keywords"}, "gwt"); err != nil {
		return nil, err
	}
	if err := requireKeys(childMap(rootMap["dal"]), []string{"keywords"}, "dal"); err != nil {
		return nil, err
	}

	v := &Vocabulary{
		Path:         path,
		Types:        map[string]*TypeSpec{},
		Derivations:  map[string]Derivation{},
		GWTKeywords:  map[string]string{},
		bySymbolKind: map[symbolKey]*Entry{},
		byKind: map[string][]*Entry{
			"fact":        {},
			"action":      {},
			"expectation": {},
		},
	}

	if err := decodeTypes(rootMap["types"], v); err != nil {
		return nil, err
	}
	if node, ok := rootMap["derivations"]; ok {
		if err := node.Decode(&v.Derivations); err != nil {
			return nil, loadErrorf("invalid derivations section: %v", err)
		}
	}
	var lints struct {
		ImplementationLeakage LintConfig `yaml:"implementation_leakage"`
	}
	if err := rootMap["lints"].Decode(&lints); err != nil {
		return nil, loadErrorf("invalid lints section: %v", err)
	}
	v.Lint = lints.ImplementationLeakage
	if err := childMap(rootMap["gwt"])["keywords"].Decode(&v.GWTKeywords); err != nil {
		return nil, loadErrorf("invalid gwt.keywords: %v", err)
	}
	if err := childMap(rootMap["dal"])["keywords"].Decode(&v.DALKeywords); err != nil {
		return nil, loadErrorf("invalid dal.keywords: %v", err)
	}

	for _, mapping := range categoryMappings {
		section := vocabMap[mapping.section]
		if section.Kind != yaml.MappingNode {
			return nil, loadErrorf("vocabulary.%s must be a mapping", mapping.section)
		}
		for i := 0; i+1 < len(section.Content); i += 2 {
			symbol := section.Content[i].Value
			entry, err := buildEntry(mapping.kind, symbol, section.Content[i+1])
			if err != nil {
				return nil, err
			}
			key := symbolKey{kind: mapping.kind, symbol: symbol}
			if _, exists := v.bySymbolKind[key]; exists {
				return nil, loadErrorf("duplicate vocabulary symbol '%s' in %s", symbol, mapping.kind)
			}
			v.bySymbolKind[key] = entry
			v.byKind[mapping.kind] = append(v.byKind[mapping.kind], entry)
			v.ordered = append(v.ordered, entry)
		}
	}

	for _, entry := range v.ordered {
		for _, arg := range entry.Args {
			if _, ok := v.Types[arg.Type]; !ok {
				return nil, loadErrorf("unknown type '%s' for argument '%s' of '%s'", arg.Type, arg.Name, entry.Symbol)
			}
		}
	}

	return v, nil
}

func buildEntry(kind, symbol string, node *yaml.Node) (*Entry, error) {
	if node.Kind != yaml.MappingNode {
		return nil, loadErrorf("vocabulary entry '%s' must be a mapping", symbol)
	}
	spec := childMap(node)
	if err := requireKeys(spec, []string{"args", "gwt", "dal"}, fmt.Sprintf("vocabulary entry '%s'", symbol)); err != nil {
		return nil, err
	}
	gwtSpec := childMap(spec["gwt"])
	if err := requireKeys(gwtSpec, []string{"match", "render"}, fmt.Sprintf("vocabulary.%s.gwt", symbol)); err != nil {
		return nil, err
	}
	if err := requireKeys(childMap(spec["dal"]), []string{"render"}, fmt.Sprintf("vocabulary.%s.dal", symbol)); err != nil {
		return nil, err
	}

	var rawArgs []map[string]string
	if err := spec["args"].Decode(&rawArgs); err != nil {
		return nil, loadErrorf("invalid arg spec in vocabulary entry '%s': %v", symbol, err)
	}
	args := make([]ArgSpec, 0, len(rawArgs))
	for _, raw := range rawArgs {
		name, hasName := raw["name"]
		typeName, hasType := raw["type"]
		if !hasName || !hasType {
			return nil, loadErrorf("invalid arg spec in vocabulary entry '%s'", symbol)
		}
		args = append(args, ArgSpec{Name: name, Type: typeName})
	}

	var matchTexts []string
	if err := gwtSpec["match"].Decode(&matchTexts); err != nil {
		return nil, loadErrorf("invalid gwt.match for '%s': %v", symbol, err)
	}
	var gwtRender, dalRender string
	if err := gwtSpec["render"].Decode(&gwtRender); err != nil {
		return nil, loadErrorf("invalid gwt.render for '%s': %v", symbol, err)
	}
	if err := childMap(spec["dal"])["render"].Decode(&dalRender); err != nil {
		return nil, loadErrorf("invalid dal.render for '%s': %v", symbol, err)
	}

	entry := &Entry{
		Category:    kind,
		Symbol:      symbol,
		Args:        args,
		GWTRender:   gwtRender,
		DALRender:   dalRender,
		DefaultArgs: map[string]any{},
	}

	for _, text := range matchTexts {
		compiled, err := compileFullMatch(text)
		if err != nil {
			return nil, loadErrorf("invalid regex for '%s': %s (%v)", symbol, text, err)
		}
		entry.GWTPatterns = append(entry.GWTPatterns, compiled)
		entry.GWTPatternTexts = append(entry.GWTPatternTexts, text)
	}

	// Synthesize a match pattern from the render template so canonical
	// output is always re-parseable even when no explicit pattern covers
	// it exactly.
	renderText, renderPattern := patternFromRender(gwtRender, args)
	entry.GWTPatterns = append(entry.GWTPatterns, renderPattern)
	entry.GWTPatternTexts = append(entry.GWTPatternTexts, renderText)

	if node, ok := spec["default_args"]; ok {
		if err := node.Decode(&entry.DefaultArgs); err != nil {
			return nil, loadErrorf("invalid default_args for '%s': %v", symbol, err)
		}
	}
	if node, ok := spec["reason_by_match"]; ok {
		if err := node.Decode(&entry.ReasonByMatch); err != nil {
			return nil, loadErrorf("invalid reason_by_match for '%s': %v", symbol, err)
		}
	}
	if node, ok := spec["derive_args_from_context"]; ok {
		rules, err := decodeDeriveRules(node, symbol)
		if err != nil {
			return nil, err
		}
		entry.DeriveRules = rules
	}

	return entry, nil
}

// decodeDeriveRules keeps the derive targets in document order: later
// derivations may read context values the earlier ones seeded.
func decodeDeriveRules(node *yaml.Node, symbol string) ([]DeriveRule, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, loadErrorf("derive_args_from_context for '%s' must be a list", symbol)
	}
	var rules []DeriveRule
	for _, item := range node.Content {
		ruleMap := childMap(item)
		var rule DeriveRule
		if gate, ok := ruleMap["when_match_group_present"]; ok {
			rule.WhenMatchGroupPresent = gate.Value
		}
		derive, ok := ruleMap["derive"]
		if ok {
			if derive.Kind != yaml.MappingNode {
				return nil, loadErrorf("derive block for '%s' must be a mapping", symbol)
			}
			for i := 0; i+1 < len(derive.Content); i += 2 {
				var source any
				if err := derive.Content[i+1].Decode(&source); err != nil {
					return nil, loadErrorf("invalid derive source for '%s': %v", symbol, err)
				}
				rule.Derive = append(rule.Derive, DeriveTarget{
					Target: derive.Content[i].Value,
					Source: source,
				})
			}
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func decodeTypes(node *yaml.Node, v *Vocabulary) error {
	type rawType struct {
		Kind    string `yaml:"kind"`
		Pattern string `yaml:"pattern"`
		Values  []any  `yaml:"values"`
	}
	var raw map[string]rawType
	if err := node.Decode(&raw); err != nil {
		return loadErrorf("invalid types section: %v", err)
	}
	for name, t := range raw {
		spec := &TypeSpec{Kind: t.Kind, Values: t.Values}
		if t.Pattern != "" {
			compiled, err := compileFullMatch(t.Pattern)
			if err != nil {
				return loadErrorf("invalid pattern for type '%s': %s (%v)", name, t.Pattern, err)
			}
			spec.Pattern = compiled
		}
		v.Types[name] = spec
	}
	return nil
}

// compileFullMatch anchors a pattern so it must cover the entire input.
func compileFullMatch(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`\A(?:` + pattern + `)\z`)
}

// patternFromRender converts a render template into an equivalent
// capturing pattern: literal text is escaped and each declared-argument
// placeholder becomes a lazy named group.
func patternFromRender(template string, args []ArgSpec) (string, *regexp.Regexp) {
	pattern := regexp.QuoteMeta(template)
	for _, arg := range args {
		token := regexp.QuoteMeta("{" + arg.Name + "}")
		pattern = strings.ReplaceAll(pattern, token, `(?P<`+arg.Name+`>.+?)`)
	}
	text := "^" + pattern + "$"
	// QuoteMeta output and named groups are always valid pattern syntax.
	compiled := regexp.MustCompile(`\A(?:` + pattern + `)\z`)
	return text, compiled
}

func requireKeys(m map[string]*yaml.Node, keys []string, context string) error {
	for _, key := range keys {
		if _, ok := m[key]; !ok {
			return loadErrorf("missing required key '%s' in %s", key, context)
		}
	}
	return nil
}

func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	return doc
}

// childMap indexes a mapping node's children by key. Non-mapping nodes
// yield an empty map, which the requireKeys checks then reject.
func childMap(node *yaml.Node) map[string]*yaml.Node {
	out := map[string]*yaml.Node{}
	if node == nil || node.Kind != yaml.MappingNode {
		return out
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		out[node.Content[i].Value] = node.Content[i+1]
	}
	return out
}
