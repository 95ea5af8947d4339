package gwt

import (
	"regexp"
	"strings"

	"github.com/specforge/specforge/vocabulary"
)

var namedGroupRe = regexp.MustCompile(`\(\?P<([a-zA-Z_][a-zA-Z0-9_]*)>[^)]+\)`)

// pickTemplate selects the render template for a step: the canonical
// render if it covers every declared argument, else the first match
// pattern convertible to a covering template, else the canonical render.
func pickTemplate(entry *vocabulary.Entry, args map[string]any) string {
	if templateCovers(entry.GWTRender, entry) {
		return entry.GWTRender
	}
	for _, patternText := range entry.GWTPatternTexts {
		template, ok := patternToTemplate(patternText)
		if ok && templateCovers(template, entry) {
			return template
		}
	}
	return entry.GWTRender
}

// templateCovers reports whether every declared argument is either a
// placeholder in the template or has a default.
func templateCovers(template string, entry *vocabulary.Entry) bool {
	placeholders := map[string]bool{}
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		placeholders[m[1]] = true
	}
	for _, arg := range entry.Args {
		if placeholders[arg.Name] {
			continue
		}
		if _, ok := entry.DefaultArgs[arg.Name]; !ok {
			return false
		}
	}
	return true
}

// patternToTemplate converts a match pattern back into a render
// template: anchors stripped, named groups become placeholders, common
// escapes undone. Patterns with alternation or leftover capture syntax
// are rejected.
func patternToTemplate(pattern string) (string, bool) {
	text := strings.TrimSpace(pattern)
	text = strings.TrimPrefix(text, "^")
	text = strings.TrimSuffix(text, "$")
	if strings.Contains(text, "|") {
		return "", false
	}
	text = namedGroupRe.ReplaceAllString(text, "{$1}")
	text = strings.ReplaceAll(text, `\.`, ".")
	text = strings.ReplaceAll(text, `\s+`, " ")
	text = strings.ReplaceAll(text, `\\`, `\`)
	if strings.Contains(text, "(?P<") {
		return "", false
	}
	return text, true
}

// regexLiteralToText recovers the literal clause text from a match
// pattern that contains no groups, alternation, or quantifiers.
func regexLiteralToText(pattern string) (string, bool) {
	text := strings.TrimSpace(pattern)
	text = strings.TrimPrefix(text, "^")
	text = strings.TrimSuffix(text, "$")
	if strings.Contains(text, "(?P<") || strings.Contains(text, "|") ||
		strings.Contains(text, "+") || strings.Contains(text, "*") {
		return "", false
	}
	text = strings.ReplaceAll(text, `\.`, ".")
	text = strings.ReplaceAll(text, `\\`, `\`)
	return text, true
}
