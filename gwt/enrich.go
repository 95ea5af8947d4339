package gwt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/specforge/specforge/vocabulary"
)

// enrich runs the argument enrichment pipeline over a matched clause's
// captured groups. Stage order matters: later stages depend on earlier
// ones and on the running scenario context.
func enrich(entry *vocabulary.Entry, captured map[string]any, matchIdx int, vocab *vocabulary.Vocabulary, context Context) (map[string]any, error) {
	args := map[string]any{}
	for key, value := range captured {
		args[key] = value
	}

	// 1. Static defaults for missing keys.
	for key, value := range entry.DefaultArgs {
		if _, ok := args[key]; !ok {
			args[key] = value
		}
	}

	// 2. Reason selected by which pattern matched.
	for _, mapping := range entry.ReasonByMatch {
		if mapping.MatchIndex == matchIdx && mapping.Reason != "" {
			if _, ok := args["reason"]; !ok {
				args["reason"] = mapping.Reason
			}
		}
	}

	// 3. Alias rewriting for capture groups whose names differ from the
	// typed argument names.
	if value, ok := args["suggestion"]; ok && entry.RequiredArg("suggestion_contains") {
		if _, exists := args["suggestion_contains"]; !exists {
			args["suggestion_contains"] = value
		}
	}
	if value, ok := args["line"]; ok && entry.RequiredArg("line_contains") {
		if _, exists := args["line_contains"]; !exists {
			args["line_contains"] = value
		}
	}
	for _, alias := range []string{"suggestion", "line"} {
		if _, ok := args[alias]; ok && !entry.RequiredArg(alias) {
			delete(args, alias)
		}
	}

	// 4. Derive rules, gated on captured groups, in declaration order.
	for _, rule := range entry.DeriveRules {
		if rule.WhenMatchGroupPresent != "" {
			if _, ok := args[rule.WhenMatchGroupPresent]; !ok {
				continue
			}
		}
		for _, derive := range rule.Derive {
			if _, ok := args[derive.Target]; ok {
				continue
			}
			if ctxValue, ok := context[derive.Target]; ok && derive.Source == derive.Target {
				if entry.RequiredArg(derive.Target) {
					args[derive.Target] = ctxValue
				}
				continue
			}
			value, err := resolveDerived(derive.Source, vocab, context, args)
			if err != nil {
				return nil, err
			}
			context[derive.Target] = value
			if entry.RequiredArg(derive.Target) {
				args[derive.Target] = value
			}
		}
	}

	// 5. Backfill still-missing required arguments from context.
	for _, spec := range entry.Args {
		if _, ok := args[spec.Name]; !ok {
			if value, exists := context[spec.Name]; exists {
				args[spec.Name] = value
			}
		}
	}

	// 6. Special-case backfills: prefer a context-specific file over the
	// vocabulary default, and derive line hints from the context line.
	if entry.RequiredArg("target") {
		if file, ok := context["file"]; ok && lookupEqual(args, entry.DefaultArgs, "target") {
			args["target"] = file
		}
	}
	if entry.RequiredArg("file") {
		if file, ok := context["file"]; ok && lookupEqual(args, entry.DefaultArgs, "file") {
			args["file"] = file
		}
	}
	if entry.RequiredArg("line_contains") {
		if line, ok := context["line"]; ok {
			if current, exists := args["line_contains"]; exists && current == entry.DefaultArgs["line_contains"] {
				args["line_contains"] = lineHint(fmt.Sprint(line))
			}
		}
	}
	if entry.RequiredArg("bad_line_contains") {
		if line, ok := context["line"]; ok {
			if current, exists := args["bad_line_contains"]; exists && current == entry.DefaultArgs["bad_line_contains"] {
				args["bad_line_contains"] = badLineHint(fmt.Sprint(line))
			}
		}
	}

	// 7. Seed the feature identity in context.
	if feature, ok := args["feature"]; ok {
		if _, exists := context["feature_slug"]; !exists {
			context["feature_slug"] = slugifyKebab(fmt.Sprint(feature))
		}
		context["feature"] = feature
	}

	// 8. Source patterns may capture inline text without the terminal
	// period; trim trailing whitespace.
	if suggestion, ok := args["suggestion"].(string); ok {
		args["suggestion"] = strings.TrimRight(suggestion, " \t\r\n")
	}

	// 9. Drop everything outside the declared argument set.
	out := map[string]any{}
	for key, value := range args {
		if entry.RequiredArg(key) {
			out[key] = value
		}
	}
	return out, nil
}

// lookupEqual reports whether args[key] equals the entry default for key,
// treating absence on both sides as equal.
func lookupEqual(args, defaults map[string]any, key string) bool {
	argValue, argOK := args[key]
	defValue, defOK := defaults[key]
	if argOK != defOK {
		return false
	}
	if !argOK {
		return true
	}
	return argValue == defValue
}

// resolveDerived computes a derived value. Source resolution order:
// captured/default argument, context entry, named derivation, literal.
func resolveDerived(source any, vocab *vocabulary.Vocabulary, context Context, args map[string]any) (any, error) {
	name, isString := source.(string)
	if !isString {
		return source, nil
	}
	if value, ok := args[name]; ok {
		return value, nil
	}
	if value, ok := context[name]; ok {
		return value, nil
	}
	derivation, ok := vocab.Derivations[name]
	if !ok {
		return name, nil
	}

	if derivation.Transform == "slugify_kebab" {
		value := slugifyKebab(featureName(context, args))
		context[name] = value
		return value, nil
	}
	if derivation.Format != "" {
		values := map[string]any{}
		for key, value := range context {
			values[key] = value
		}
		for key, value := range args {
			values[key] = value
		}
		if _, exists := values["feature_slug"]; !exists {
			values["feature_slug"] = slugifyKebab(featureName(context, values))
		}
		value, err := formatTemplate(derivation.Format, values)
		if err != nil {
			return nil, fmt.Errorf("derivation '%s': %w", name, err)
		}
		context[name] = value
		return value, nil
	}
	return name, nil
}

func featureName(context Context, args map[string]any) string {
	if feature, ok := args["feature"]; ok {
		if s := fmt.Sprint(feature); s != "" {
			return s
		}
	}
	if feature, ok := context["feature"]; ok {
		if s := fmt.Sprint(feature); s != "" {
			return s
		}
	}
	return "feature"
}

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// formatTemplate substitutes {name} placeholders; a missing name is an
// error because derivation formats must be fully resolvable.
func formatTemplate(template string, values map[string]any) (string, error) {
	var missing string
	out := placeholderRe.ReplaceAllStringFunc(template, func(token string) string {
		key := token[1 : len(token)-1]
		value, ok := values[key]
		if !ok {
			if missing == "" {
				missing = key
			}
			return token
		}
		return formatValue(value)
	})
	if missing != "" {
		return "", fmt.Errorf("missing format value '%s'", missing)
	}
	return out, nil
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(v)
	}
}

var (
	apiPathRe     = regexp.MustCompile(`/api/[A-Za-z0-9_/-]+`)
	camelSuffixRe = regexp.MustCompile(`[A-Z][A-Za-z0-9]*(Service|Repository|Controller)`)
	snakeRe       = regexp.MustCompile(`[a-z]+_[a-z_]*`)
	tokenRe       = regexp.MustCompile(`[A-Za-z0-9_/.-]+`)
	factSymbolRe  = regexp.MustCompile(`FACT\s+([a-z][a-z0-9_]*)`)
)

// lineHint extracts the most distinctive fragment of a source line for
// use as a *_contains argument: API path, CamelCase identifier,
// snake_case name, else the first identifier-like token.
func lineHint(line string) string {
	if m := apiPathRe.FindString(line); m != "" {
		return m
	}
	if m := camelSuffixRe.FindString(line); m != "" {
		return m
	}
	if m := snakeRe.FindString(line); m != "" {
		if strings.Contains(m, "_has_") {
			parts := strings.Split(m, "_")
			return strings.Join(parts[:2], "_")
		}
		return m
	}
	if m := tokenRe.FindString(line); m != "" {
		return m
	}
	return line
}

func badLineHint(line string) string {
	if m := factSymbolRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return lineHint(line)
}
