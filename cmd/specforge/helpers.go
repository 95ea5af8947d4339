package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/specforge/specforge/config"
	"github.com/specforge/specforge/scenario"
	"github.com/specforge/specforge/vocabulary"
)

const headerBar = ";==============================================================="

func projectRoot() (string, error) {
	return os.Getwd()
}

func requireInitialized() (string, error) {
	root, err := projectRoot()
	if err != nil {
		return "", err
	}
	if !config.IsInitialized(root) {
		return "", fmt.Errorf("project is not initialized; run `specforge init` first")
	}
	return root, nil
}

// loadVocab loads specs/vocab.yaml for the project.
func loadVocab(root string) (*vocabulary.Vocabulary, error) {
	path := filepath.Join(root, "specs", "vocab.yaml")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("missing vocabulary file: %s", path)
	}
	return vocabulary.Load(path)
}

// specFiles returns the sorted .txt spec sources under specs/.
func specFiles(root string) []string {
	matches, _ := filepath.Glob(filepath.Join(root, "specs", "*.txt"))
	sort.Strings(matches)
	return matches
}

// parseAllSpecs parses every spec source into scenarios.
func parseAllSpecs(root string) (scenario.Result, error) {
	var result scenario.Result
	for _, path := range specFiles(root) {
		parsed, err := scenario.ParseFile(path)
		if err != nil {
			return result, err
		}
		result.Merge(parsed)
	}
	return result, nil
}

var (
	slugStripRe = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaceRe = regexp.MustCompile(`\s+`)
)

func slugify(text string) string {
	slug := strings.TrimSpace(strings.ToLower(text))
	slug = slugStripRe.ReplaceAllString(slug, "")
	slug = slugSpaceRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
