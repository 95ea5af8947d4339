// Package generator emits test stubs from parsed scenarios. One file
// is produced per spec source, with a skipped test per scenario that
// carries the clauses as comments for the implementer to fill in.
package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/specforge/specforge/scenario"
)

// Generator renders one test file for the scenarios of a spec source.
type Generator interface {
	// GenerateTestFile renders a test file for the scenarios.
	GenerateTestFile(scenarios []scenario.Scenario, moduleName string) string
	// FileName returns the output file name for a module.
	FileName(moduleName string) string
}

// ForFramework returns the generator for a detected test framework.
func ForFramework(framework string) (Generator, error) {
	switch framework {
	case "pytest":
		return &PytestGenerator{}, nil
	case "go-test":
		return &GoTestGenerator{}, nil
	}
	return nil, fmt.Errorf("no test generator for framework %q", framework)
}

var (
	nonAlnumRe     = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	nonAlnumWordRe = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// PytestGenerator emits pytest stubs.
type PytestGenerator struct{}

func (g *PytestGenerator) FileName(moduleName string) string {
	return "test_" + moduleName + ".py"
}

func (g *PytestGenerator) GenerateTestFile(scenarios []scenario.Scenario, moduleName string) string {
	lines := []string{
		fmt.Sprintf(`"""Generated acceptance tests from %s.`, moduleName),
		"",
		"DO NOT EDIT - this file is regenerated from specs.",
		`"""`,
		"",
		"import pytest",
		"",
		"",
	}

	for i, sc := range scenarios {
		lines = append(lines,
			fmt.Sprintf("def %s():", pyTestName(sc.Title, i)),
			fmt.Sprintf(`    """Scenario: %s"""`, sc.Title))
		if sc.SourceFile != "" {
			lines = append(lines, fmt.Sprintf("    # Source: %s:%d", sc.SourceFile, sc.LineNumber))
		}
		lines = append(lines, "")
		for _, c := range sc.Givens {
			lines = append(lines, fmt.Sprintf("    # GIVEN %s.", c.Text))
		}
		lines = append(lines, "    # Set up preconditions", "")
		for _, c := range sc.Whens {
			lines = append(lines, fmt.Sprintf("    # WHEN %s.", c.Text))
		}
		lines = append(lines, "    # Perform action", "")
		for _, c := range sc.Thens {
			lines = append(lines, fmt.Sprintf("    # THEN %s.", c.Text))
		}
		lines = append(lines,
			"    # Assert expected outcomes",
			`    pytest.skip("Not yet implemented")`,
			"",
			"")
	}
	return strings.Join(lines, "\n")
}

func pyTestName(title string, index int) string {
	if title == "" {
		return fmt.Sprintf("test_scenario_%d", index)
	}
	name := nonAlnumRe.ReplaceAllString(strings.ToLower(title), "")
	name = whitespaceRe.ReplaceAllString(strings.TrimSpace(name), "_")
	if name == "" {
		return fmt.Sprintf("test_scenario_%d", index)
	}
	return "test_" + name
}

// GoTestGenerator emits Go testing stubs.
type GoTestGenerator struct {
	// Package is the package clause for generated files, "acceptance"
	// when empty.
	Package string
}

func (g *GoTestGenerator) FileName(moduleName string) string {
	return strings.ReplaceAll(moduleName, "-", "_") + "_test.go"
}

func (g *GoTestGenerator) GenerateTestFile(scenarios []scenario.Scenario, moduleName string) string {
	pkg := g.Package
	if pkg == "" {
		pkg = "acceptance"
	}
	lines := []string{
		fmt.Sprintf("// Code generated from %s specs. DO NOT EDIT.", moduleName),
		"",
		"package " + pkg,
		"",
		`import "testing"`,
		"",
	}

	for i, sc := range scenarios {
		lines = append(lines, fmt.Sprintf("func %s(t *testing.T) {", goTestName(sc.Title, i)))
		if sc.SourceFile != "" {
			lines = append(lines, fmt.Sprintf("\t// Source: %s:%d", sc.SourceFile, sc.LineNumber))
		}
		for _, c := range sc.Givens {
			lines = append(lines, fmt.Sprintf("\t// GIVEN %s.", c.Text))
		}
		for _, c := range sc.Whens {
			lines = append(lines, fmt.Sprintf("\t// WHEN %s.", c.Text))
		}
		for _, c := range sc.Thens {
			lines = append(lines, fmt.Sprintf("\t// THEN %s.", c.Text))
		}
		lines = append(lines,
			`	t.Skip("Not yet implemented")`,
			"}",
			"")
	}
	return strings.Join(lines, "\n")
}

func goTestName(title string, index int) string {
	if title == "" {
		return fmt.Sprintf("TestScenario%d", index)
	}
	var parts []string
	for _, word := range nonAlnumWordRe.Split(title, -1) {
		if word == "" {
			continue
		}
		parts = append(parts, strings.ToUpper(word[:1])+strings.ToLower(word[1:]))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("TestScenario%d", index)
	}
	return "Test" + strings.Join(parts, "")
}

// GenerateTests groups scenarios by source file and writes one stub
// file per source under .specforge/generated. Returns file name to
// generated code.
func GenerateTests(projectRoot string, scenarios []scenario.Scenario, gen Generator) (map[string]string, error) {
	dir := filepath.Join(projectRoot, ".specforge", "generated")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	groups := make(map[string][]scenario.Scenario)
	for _, sc := range scenarios {
		key := sc.SourceFile
		if key == "" {
			key = "unnamed"
		}
		groups[key] = append(groups[key], sc)
	}

	sources := make([]string, 0, len(groups))
	for src := range groups {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	results := make(map[string]string, len(groups))
	for _, src := range sources {
		moduleName := "unnamed"
		if src != "unnamed" {
			base := filepath.Base(src)
			moduleName = strings.TrimSuffix(base, filepath.Ext(base))
		}
		name := gen.FileName(moduleName)
		code := gen.GenerateTestFile(groups[src], moduleName)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(code), 0o644); err != nil {
			return nil, err
		}
		results[name] = code
	}
	return results, nil
}
