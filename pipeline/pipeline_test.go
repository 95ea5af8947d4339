package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/specforge/specforge/config"
)

func initializedProject(t *testing.T, framework string) string {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Languages = []string{"python"}
	cfg.Framework = framework
	require.NoError(t, cfg.SaveToFile(config.Path(root)))
	return root
}

func TestBootstrapRequiresInit(t *testing.T) {
	root := t.TempDir()

	_, err := Bootstrap(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")
	assert.False(t, IsBootstrapped(root))
}

func TestBootstrap(t *testing.T) {
	root := initializedProject(t, "pytest")

	summary, err := Bootstrap(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, ".specforge", "pipeline"), summary.PipelineDir)
	assert.Equal(t, []string{"python"}, summary.Languages)
	assert.Equal(t, "pytest", summary.Framework)
	assert.True(t, summary.Validated)
	assert.True(t, IsBootstrapped(root))

	data, err := os.ReadFile(filepath.Join(summary.PipelineDir, "config.yaml"))
	require.NoError(t, err)
	var settings Settings
	require.NoError(t, yaml.Unmarshal(data, &settings))
	assert.Equal(t, "gwt", settings.Parser)
	assert.Equal(t, "pytest_generator", settings.Generator)
	assert.Equal(t, []string{"python"}, settings.Languages)
}

func TestBootstrapDefaultsGenerator(t *testing.T) {
	root := initializedProject(t, "")

	summary, err := Bootstrap(root)
	require.NoError(t, err)
	assert.Empty(t, summary.Framework)

	data, err := os.ReadFile(filepath.Join(summary.PipelineDir, "config.yaml"))
	require.NoError(t, err)
	var settings Settings
	require.NoError(t, yaml.Unmarshal(data, &settings))
	assert.Equal(t, "pytest_generator", settings.Generator)
}

func TestValidateReferenceSpec(t *testing.T) {
	assert.True(t, validate())
}
