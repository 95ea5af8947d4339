package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != "0.1.0" {
		t.Errorf("expected default version 0.1.0, got %s", cfg.Version)
	}
	if !cfg.Guardian.Enabled {
		t.Error("expected guardian enabled by default")
	}
	if cfg.Guardian.Sensitivity != "medium" {
		t.Errorf("expected default sensitivity medium, got %s", cfg.Guardian.Sensitivity)
	}
	if cfg.AutoAnalysis {
		t.Error("expected auto analysis disabled by default")
	}
	if cfg.Targets == nil {
		t.Error("expected non-nil targets map")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing version",
			modify:  func(c *Config) { c.Version = "" },
			wantErr: true,
		},
		{
			name:    "invalid sensitivity",
			modify:  func(c *Config) { c.Guardian.Sensitivity = "extreme" },
			wantErr: true,
		},
		{
			name:    "low sensitivity",
			modify:  func(c *Config) { c.Guardian.Sensitivity = "low" },
			wantErr: false,
		},
		{
			name:    "high sensitivity",
			modify:  func(c *Config) { c.Guardian.Sensitivity = "high" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	root := t.TempDir()

	cfg := DefaultConfig()
	cfg.Languages = []string{"python"}
	cfg.Framework = "pytest"
	cfg.Guardian.Allowlist = []string{"OAuth"}
	cfg.Targets = map[string]string{"graph": "docs/graph.json"}

	path, err := cfg.Save(root)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if path != filepath.Join(root, ProjectDir, ConfigFile) {
		t.Errorf("unexpected config path %s", path)
	}

	loaded, err := Load(root)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Framework != "pytest" {
		t.Errorf("expected framework pytest, got %s", loaded.Framework)
	}
	if len(loaded.Languages) != 1 || loaded.Languages[0] != "python" {
		t.Errorf("unexpected languages %v", loaded.Languages)
	}
	if len(loaded.Guardian.Allowlist) != 1 || loaded.Guardian.Allowlist[0] != "OAuth" {
		t.Errorf("unexpected allowlist %v", loaded.Guardian.Allowlist)
	}
	if loaded.Targets["graph"] != "docs/graph.json" {
		t.Errorf("unexpected targets %v", loaded.Targets)
	}
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("version: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected parse error for invalid YAML")
	}
}

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("version: 0.2.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Version != "0.2.0" {
		t.Errorf("expected version 0.2.0, got %s", cfg.Version)
	}
	if cfg.Guardian.Sensitivity != "medium" {
		t.Errorf("expected default sensitivity to survive partial config, got %s", cfg.Guardian.Sensitivity)
	}
}

func TestIsInitialized(t *testing.T) {
	root := t.TempDir()

	if IsInitialized(root) {
		t.Error("fresh directory should not be initialized")
	}
	if _, err := EnsureInitialized(root); err == nil {
		t.Error("expected error for uninitialized project")
	}

	if _, err := DefaultConfig().Save(root); err != nil {
		t.Fatal(err)
	}
	if !IsInitialized(root) {
		t.Error("expected initialized after Save")
	}
	if _, err := EnsureInitialized(root); err != nil {
		t.Errorf("EnsureInitialized() error = %v", err)
	}
}

func TestDetectLanguages(t *testing.T) {
	root := t.TempDir()

	write := func(rel, content string) {
		t.Helper()
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write("src/app.py", "print('ok')\n")
	write("web/index.ts", "export {}\n")
	write("pyproject.toml", "[tool.pytest.ini_options]\n")
	// Hidden and vendored trees are ignored.
	write(".git/hooks/sample.rb", "puts 'no'\n")
	write("node_modules/dep/index.js", "module.exports = {}\n")

	langs := NewDetector(nil).DetectLanguages(root)
	if len(langs) != 2 {
		t.Fatalf("expected 2 languages, got %v", langs)
	}
	if langs[0] != "python" || langs[1] != "typescript" {
		t.Errorf("expected priority order [python typescript], got %v", langs)
	}
}

func TestDetectFramework(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "pyproject.toml"), []byte("[tool.pytest.ini_options]\naddopts = \"-q\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := NewDetector(nil)
	tests := []struct {
		language string
		want     string
	}{
		{"python", "pytest"},
		{"go", "go-test"},
		{"rust", "cargo-test"},
		{"typescript", "jest"},
		{"java", "junit"},
		{"cobol", ""},
	}
	for _, tt := range tests {
		if got := d.DetectFramework(root, tt.language); got != tt.want {
			t.Errorf("DetectFramework(%s) = %s, want %s", tt.language, got, tt.want)
		}
	}
}

func TestDetectFrameworkUnittestFallback(t *testing.T) {
	root := t.TempDir()
	if got := NewDetector(nil).DetectFramework(root, "python"); got != "unittest" {
		t.Errorf("expected unittest fallback, got %s", got)
	}
}
