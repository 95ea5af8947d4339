package gwt

import (
	"regexp"
	"strings"
)

var (
	nonAlnumRe     = regexp.MustCompile(`[^a-z0-9]+`)
	dashRunRe      = regexp.MustCompile(`-+`)
	underscoreRunRe = regexp.MustCompile(`_+`)
)

// slugifyKebab turns a feature name into its kebab-case slug, the form
// derivation rules embed into paths.
func slugifyKebab(value string) string {
	slug := nonAlnumRe.ReplaceAllString(strings.ToLower(value), "-")
	slug = strings.Trim(dashRunRe.ReplaceAllString(slug, "-"), "-")
	if slug == "" {
		return "feature"
	}
	return slug
}

func slugToFeatureID(value string) string {
	id := strings.Trim(nonAlnumRe.ReplaceAllString(strings.ToLower(value), "_"), "_")
	if id == "" {
		return "feature"
	}
	return id
}

func slugToScenarioName(value string) string {
	name := nonAlnumRe.ReplaceAllString(strings.ToLower(value), "_")
	name = strings.Trim(underscoreRunRe.ReplaceAllString(name, "_"), "_")
	if name == "" {
		return "scenario"
	}
	return name
}
