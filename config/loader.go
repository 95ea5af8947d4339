package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var markerExtensions = map[string]string{
	".py":   "python",
	".ts":   "typescript",
	".js":   "javascript",
	".rs":   "rust",
	".go":   "go",
	".java": "java",
	".rb":   "ruby",
	".clj":  "clojure",
}

var languagePriority = []string{
	"python", "typescript", "javascript", "rust", "go", "java", "ruby", "clojure",
}

var skipDirs = map[string]bool{
	"node_modules": true,
	"venv":         true,
	".venv":        true,
}

// Detector probes a project tree for languages and test frameworks.
type Detector struct {
	logger *slog.Logger
}

// NewDetector creates a project detector
func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{logger: logger}
}

// DetectLanguages censuses source file extensions and marker files.
// The result is ordered by priority so the first entry is the primary
// language.
func (d *Detector) DetectLanguages(projectRoot string) []string {
	found := make(map[string]bool)

	_ = filepath.WalkDir(projectRoot, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := entry.Name()
		if entry.IsDir() {
			if path != projectRoot && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if lang, ok := markerExtensions[filepath.Ext(name)]; ok {
			found[lang] = true
		}
		return nil
	})

	if exists(projectRoot, "pyproject.toml") || exists(projectRoot, "setup.py") {
		found["python"] = true
	}
	if exists(projectRoot, "package.json") {
		if exists(projectRoot, "tsconfig.json") {
			found["typescript"] = true
		} else {
			found["javascript"] = true
		}
	}
	if exists(projectRoot, "Cargo.toml") {
		found["rust"] = true
	}
	if exists(projectRoot, "go.mod") {
		found["go"] = true
	}

	var languages []string
	for _, lang := range languagePriority {
		if found[lang] {
			languages = append(languages, lang)
		}
	}
	d.logger.Debug("detected languages", slog.Any("languages", languages))
	return languages
}

// DetectFramework picks the test framework for a language.
func (d *Detector) DetectFramework(projectRoot, language string) string {
	switch language {
	case "python":
		if content, err := os.ReadFile(filepath.Join(projectRoot, "pyproject.toml")); err == nil &&
			strings.Contains(string(content), "pytest") {
			return "pytest"
		}
		if exists(projectRoot, "pytest.ini") || exists(projectRoot, "conftest.py") || isDir(projectRoot, "tests") {
			return "pytest"
		}
		return "unittest"

	case "typescript", "javascript":
		if content, err := os.ReadFile(filepath.Join(projectRoot, "package.json")); err == nil {
			s := string(content)
			switch {
			case strings.Contains(s, "jest"):
				return "jest"
			case strings.Contains(s, "vitest"):
				return "vitest"
			case strings.Contains(s, "mocha"):
				return "mocha"
			}
		}
		return "jest"

	case "rust":
		return "cargo-test"

	case "go":
		return "go-test"

	case "java":
		if content, err := os.ReadFile(filepath.Join(projectRoot, "pom.xml")); err == nil &&
			strings.Contains(strings.ToLower(string(content)), "junit") {
			return "junit"
		}
		return "junit"
	}
	return ""
}

func exists(root, name string) bool {
	_, err := os.Stat(filepath.Join(root, name))
	return err == nil
}

func isDir(root, name string) bool {
	info, err := os.Stat(filepath.Join(root, name))
	return err == nil && info.IsDir()
}
