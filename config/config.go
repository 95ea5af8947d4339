// Package config provides configuration loading and management for
// specforge projects. Project state lives under .specforge/ in the
// project root.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ProjectDir is the per-project state directory.
	ProjectDir = ".specforge"
	// ConfigFile is the config file name inside ProjectDir.
	ConfigFile = "config.yaml"
	// SpecsDir is where spec sources and canonical outputs live.
	SpecsDir = "specs"
)

// Config represents a specforge project configuration
type Config struct {
	Version      string            `yaml:"version"`
	Languages    []string          `yaml:"languages"`
	Framework    string            `yaml:"framework"`
	Guardian     GuardianConfig    `yaml:"guardian"`
	Vocabulary   []string          `yaml:"vocabulary"`
	AutoAnalysis bool              `yaml:"auto_analysis"`
	Targets      map[string]string `yaml:"targets"`
}

// GuardianConfig configures the implementation-leakage guardian
type GuardianConfig struct {
	Enabled bool `yaml:"enabled"`
	// Sensitivity is one of "low", "medium", "high"
	Sensitivity string   `yaml:"sensitivity"`
	Allowlist   []string `yaml:"allowlist"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "0.1.0",
		Guardian: GuardianConfig{
			Enabled:     true,
			Sensitivity: "medium",
			Allowlist:   nil,
		},
		Vocabulary:   nil,
		AutoAnalysis: false,
		Targets:      map[string]string{},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}
	switch c.Guardian.Sensitivity {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("guardian.sensitivity must be low, medium, or high")
	}
	return nil
}

// Path returns the config file path for a project root.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, ProjectDir, ConfigFile)
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Save writes the config under projectRoot and returns the path.
func (c *Config) Save(projectRoot string) (string, error) {
	path := Path(projectRoot)
	if err := c.SaveToFile(path); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads the project config for projectRoot.
func Load(projectRoot string) (*Config, error) {
	return LoadFromFile(Path(projectRoot))
}

// IsInitialized reports whether projectRoot has a specforge config.
func IsInitialized(projectRoot string) bool {
	_, err := os.Stat(Path(projectRoot))
	return err == nil
}

// EnsureInitialized loads the config or fails with a hint to run init.
func EnsureInitialized(projectRoot string) (*Config, error) {
	if !IsInitialized(projectRoot) {
		return nil, fmt.Errorf("project is not initialized; run `specforge init` first")
	}
	return Load(projectRoot)
}
