// Package runner executes generated acceptance tests and the project's
// own unit tests, scraping their output into a uniform result.
package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/specforge/specforge/generator"
	"github.com/specforge/specforge/scenario"
)

// Result summarizes one test run.
type Result struct {
	Passed       int
	Failed       int
	Skipped      int
	Errors       int
	Output       string
	FailingTests []string
}

// Success reports whether the run is clean.
func (r *Result) Success() bool { return r.Failed == 0 && r.Errors == 0 }

// Total returns the number of tests accounted for.
func (r *Result) Total() int { return r.Passed + r.Failed + r.Skipped + r.Errors }

const testTimeout = 5 * time.Minute

// RunAcceptance runs the generated acceptance tests, regenerating
// stale ones from the specs directory first.
func RunAcceptance(ctx context.Context, projectRoot string) *Result {
	generatedDir := filepath.Join(projectRoot, ".specforge", "generated")
	matches, _ := filepath.Glob(filepath.Join(generatedDir, "test_*.py"))
	if len(matches) == 0 {
		return &Result{Output: "No generated tests found. Run `specforge generate` first."}
	}

	specsDir := filepath.Join(projectRoot, "specs")
	if info, err := os.Stat(specsDir); err == nil && info.IsDir() {
		regenerateIfStale(projectRoot, specsDir, generatedDir)
	}

	return runPytest(ctx, generatedDir)
}

// RunUnit runs the project's unit tests from tests/ or test/.
func RunUnit(ctx context.Context, projectRoot string) *Result {
	var testDir string
	for _, name := range []string{"tests", "test"} {
		dir := filepath.Join(projectRoot, name)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			testDir = dir
			break
		}
	}
	if testDir == "" {
		return &Result{Output: "No unit test directory found."}
	}
	return runPytest(ctx, testDir)
}

// RunVerify runs both streams. Both must pass, and a missing unit
// stream is called out so acceptance tests alone do not count as
// verification.
func RunVerify(ctx context.Context, projectRoot string) *Result {
	acceptance := RunAcceptance(ctx, projectRoot)
	unit := RunUnit(ctx, projectRoot)

	combined := &Result{
		Passed:       acceptance.Passed + unit.Passed,
		Failed:       acceptance.Failed + unit.Failed,
		Skipped:      acceptance.Skipped + unit.Skipped,
		Errors:       acceptance.Errors + unit.Errors,
		FailingTests: append(append([]string{}, acceptance.FailingTests...), unit.FailingTests...),
	}

	parts := []string{
		fmt.Sprintf("Acceptance: %d passed, %d failed", acceptance.Passed, acceptance.Failed),
		fmt.Sprintf("Unit: %d passed, %d failed", unit.Passed, unit.Failed),
	}
	if unit.Total() == 0 && acceptance.Success() {
		parts = append(parts, "Warning: Only one test stream exists. Unit tests are needed.")
	}
	combined.Output = strings.Join(parts, "\n")
	return combined
}

func runPytest(ctx context.Context, testPath string) *Result {
	ctx, cancel := context.WithTimeout(ctx, testTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "python3", "-m", "pytest", testPath, "-v", "--tb=short", "-q")
	output, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return &Result{Errors: 1, Output: "Test execution timed out (5 minutes)"}
	}
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return &Result{Errors: 1, Output: "pytest not found"}
		}
	}
	return parsePytestOutput(string(output))
}

var (
	passedRe  = regexp.MustCompile(`(\d+) passed`)
	failedRe  = regexp.MustCompile(`(\d+) failed`)
	skippedRe = regexp.MustCompile(`(\d+) skipped`)
	errorsRe  = regexp.MustCompile(`(\d+) error`)
)

func parsePytestOutput(output string) *Result {
	result := &Result{Output: output}
	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(raw)

		if strings.Contains(line, "passed") || strings.Contains(line, "failed") ||
			strings.Contains(line, "error") {
			if m := passedRe.FindStringSubmatch(line); m != nil {
				result.Passed = atoi(m[1])
			}
			if m := failedRe.FindStringSubmatch(line); m != nil {
				result.Failed = atoi(m[1])
			}
			if m := skippedRe.FindStringSubmatch(line); m != nil {
				result.Skipped = atoi(m[1])
			}
			if m := errorsRe.FindStringSubmatch(line); m != nil {
				result.Errors = atoi(m[1])
			}
		}
		if strings.HasPrefix(line, "FAILED") {
			result.FailingTests = append(result.FailingTests, line)
		}
	}
	return result
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

// regenerateIfStale rebuilds generated tests when any spec source is
// newer than its stub.
func regenerateIfStale(projectRoot, specsDir, generatedDir string) {
	specs, _ := filepath.Glob(filepath.Join(specsDir, "*.txt"))
	sort.Strings(specs)

	needsRegen := false
	for _, spec := range specs {
		base := filepath.Base(spec)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		testFile := filepath.Join(generatedDir, "test_"+stem+".py")
		testInfo, err := os.Stat(testFile)
		if err != nil {
			needsRegen = true
			break
		}
		specInfo, err := os.Stat(spec)
		if err == nil && specInfo.ModTime().After(testInfo.ModTime()) {
			needsRegen = true
			break
		}
	}
	if !needsRegen {
		return
	}

	var all []scenario.Scenario
	for _, spec := range specs {
		result, err := scenario.ParseFile(spec)
		if err != nil {
			continue
		}
		all = append(all, result.Scenarios...)
	}
	if len(all) > 0 {
		_, _ = generator.GenerateTests(projectRoot, all, &generator.PytestGenerator{})
	}
}
