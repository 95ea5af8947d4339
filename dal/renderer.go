package dal

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/specforge/specforge/ir"
	"github.com/specforge/specforge/vocabulary"
)

var kindOps = map[string]string{
	ir.KindFact:        "FACT",
	ir.KindAction:      "DO",
	ir.KindExpectation: "EXPECT",
}

// Render produces canonical DAL text from IR. It is total: argument
// values outside the IR domain indicate a construction bug and panic.
func Render(feature *ir.Feature, vocab *vocabulary.Vocabulary) string {
	lines := []string{
		"; GENERATED FILE - DO NOT EDIT",
		"; source of truth is IR and vocab-driven compiler",
		"",
		fmt.Sprintf("FEATURE %s.", feature.FeatureID),
		"",
	}

	for _, scenario := range feature.Scenarios {
		lines = append(lines, fmt.Sprintf("SCENARIO %s.", scenario.Name), "")

		for _, imported := range scenario.Imports {
			lines = append(lines, fmt.Sprintf("IMPORT %s.", imported))
		}
		if len(scenario.Imports) > 0 {
			lines = append(lines, "")
		}

		for _, step := range allSteps(scenario) {
			lines = append(lines, renderStep(step, vocab))
		}
		lines = append(lines, "")
	}

	return strings.TrimRight(strings.Join(lines, "\n"), "\n") + "\n"
}

func allSteps(scenario ir.Scenario) []ir.Step {
	steps := make([]ir.Step, 0, len(scenario.Givens)+len(scenario.Whens)+len(scenario.Thens))
	steps = append(steps, scenario.Givens...)
	steps = append(steps, scenario.Whens...)
	steps = append(steps, scenario.Thens...)
	return steps
}

func renderStep(step ir.Step, vocab *vocabulary.Vocabulary) string {
	entry := vocab.Lookup(step.Kind, step.Symbol)
	pairs := OrderedArgs(entry, step.Args)
	rendered := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		rendered = append(rendered, fmt.Sprintf("%s=%s", pair.Name, RenderValue(pair.Value)))
	}
	return fmt.Sprintf("%s %s(%s).", kindOps[step.Kind], step.Symbol, strings.Join(rendered, ", "))
}

// ArgPair is one rendered argument in canonical order.
type ArgPair struct {
	Name  string
	Value any
}

// OrderedArgs orders arguments by the vocabulary's declared order first,
// then any extras alphabetically.
func OrderedArgs(entry *vocabulary.Entry, args map[string]any) []ArgPair {
	var ordered []ArgPair
	seen := map[string]bool{}
	if entry != nil {
		for _, spec := range entry.Args {
			if value, ok := args[spec.Name]; ok {
				ordered = append(ordered, ArgPair{Name: spec.Name, Value: value})
				seen[spec.Name] = true
			}
		}
	}
	extras := make([]string, 0, len(args))
	for name := range args {
		if !seen[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	for _, name := range extras {
		ordered = append(ordered, ArgPair{Name: name, Value: args[name]})
	}
	return ordered
}

// RenderValue renders an argument value in DAL literal syntax.
func RenderValue(value any) string {
	switch v := value.(type) {
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(v)
	case string:
		escaped := strings.ReplaceAll(v, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		return `"` + escaped + `"`
	default:
		panic(fmt.Sprintf("unsupported DAL arg value type: %T", value))
	}
}
