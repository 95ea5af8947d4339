// Package pipeline bootstraps the parse/generate pipeline for a
// project and validates it against a built-in reference spec.
package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/specforge/specforge/config"
	"github.com/specforge/specforge/generator"
	"github.com/specforge/specforge/scenario"
)

const referenceSpec = `;===============================================================
; Reference spec validates the pipeline is working.
;===============================================================
GIVEN a valid precondition.

WHEN an action occurs.

THEN the expected result happens.
`

// Settings is the persisted pipeline configuration.
type Settings struct {
	Languages []string `yaml:"languages"`
	Framework string   `yaml:"framework"`
	Version   string   `yaml:"version"`
	Parser    string   `yaml:"parser"`
	Generator string   `yaml:"generator"`
}

// Summary reports what a bootstrap produced.
type Summary struct {
	PipelineDir string
	Languages   []string
	Framework   string
	Validated   bool
}

// Bootstrap creates .specforge/pipeline/config.yaml and validates the
// parser and generator against the reference spec.
func Bootstrap(projectRoot string) (*Summary, error) {
	cfg, err := config.EnsureInitialized(projectRoot)
	if err != nil {
		return nil, err
	}

	pipelineDir := filepath.Join(projectRoot, config.ProjectDir, "pipeline")
	if err := os.MkdirAll(pipelineDir, 0o755); err != nil {
		return nil, err
	}

	framework := cfg.Framework
	if framework == "" {
		framework = "pytest"
	}
	settings := Settings{
		Languages: cfg.Languages,
		Framework: cfg.Framework,
		Version:   cfg.Version,
		Parser:    "gwt",
		Generator: framework + "_generator",
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(pipelineDir, "config.yaml"), data, 0o644); err != nil {
		return nil, err
	}

	return &Summary{
		PipelineDir: pipelineDir,
		Languages:   cfg.Languages,
		Framework:   cfg.Framework,
		Validated:   validate(),
	}, nil
}

// IsBootstrapped reports whether the pipeline config exists.
func IsBootstrapped(projectRoot string) bool {
	_, err := os.Stat(filepath.Join(projectRoot, config.ProjectDir, "pipeline", "config.yaml"))
	return err == nil
}

// validate parses the reference spec and generates a stub from it.
func validate() bool {
	result := scenario.Parse(referenceSpec, "<reference>")
	if !result.IsSuccess() || len(result.Scenarios) == 0 {
		return false
	}
	gen := generator.PytestGenerator{}
	code := gen.GenerateTestFile(result.Scenarios, "reference")
	return strings.Contains(code, "def test_") && strings.Contains(code, "pytest.skip")
}
