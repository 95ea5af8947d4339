package gwt

import (
	"strings"
	"unicode"

	"github.com/specforge/specforge/ir"
	"github.com/specforge/specforge/vocabulary"
)

const headerBar = ";==============================================================="

// Render produces canonical GWT text from IR using vocabulary templates.
func Render(feature *ir.Feature, vocab *vocabulary.Vocabulary) string {
	lines := []string{
		"; GENERATED FILE - DO NOT EDIT",
		"; canonicalized from DAL/IR using vocab.yaml",
		"",
	}

	for _, scenario := range feature.Scenarios {
		lines = append(lines, headerBar, "; "+scenarioTitle(scenario.Name), headerBar)

		for _, step := range scenario.Givens {
			lines = append(lines, renderStep(step, vocab))
		}
		lines = append(lines, "")

		for _, step := range scenario.Whens {
			lines = append(lines, renderStep(step, vocab))
		}
		lines = append(lines, "")

		for _, step := range scenario.Thens {
			lines = append(lines, renderStep(step, vocab))
		}
		lines = append(lines, "")
	}

	return strings.TrimRight(strings.Join(lines, "\n"), "\n") + "\n"
}

// scenarioTitle turns a scenario name back into display form:
// underscores to spaces, first letter capitalized, period-terminated.
func scenarioTitle(name string) string {
	title := strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	if title == "" {
		return "."
	}
	runes := []rune(strings.ToLower(title))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes) + "."
}

func renderStep(step ir.Step, vocab *vocabulary.Vocabulary) string {
	entry := vocab.Lookup(step.Kind, step.Symbol)

	// A reason argument can select an alternate literal rendering when
	// the mapped pattern is literal enough to reconstruct.
	if reason, ok := step.Args["reason"]; ok && len(entry.ReasonByMatch) > 0 {
		for _, mapping := range entry.ReasonByMatch {
			if mapping.Reason != reason {
				continue
			}
			if mapping.MatchIndex >= 0 && mapping.MatchIndex < len(entry.GWTPatternTexts) {
				if text, literal := regexLiteralToText(entry.GWTPatternTexts[mapping.MatchIndex]); literal {
					return text
				}
			}
		}
	}

	template := pickTemplate(entry, step.Args)
	return fillTemplate(template, step.Args)
}

// fillTemplate substitutes step arguments into a template. A missing
// {x} placeholder may be satisfied by an x_contains argument; if any
// placeholder still cannot be resolved the template is returned as-is.
func fillTemplate(template string, args map[string]any) string {
	missing := false
	out := placeholderRe.ReplaceAllStringFunc(template, func(token string) string {
		key := token[1 : len(token)-1]
		if value, ok := args[key]; ok {
			return formatValue(value)
		}
		if value, ok := args[key+"_contains"]; ok {
			return formatValue(value)
		}
		missing = true
		return token
	})
	if missing {
		return template
	}
	return out
}
