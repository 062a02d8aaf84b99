package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(filepath.Join(dir, "config.json"))
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Dispatch.TimeoutSeconds)
	assert.Equal(t, 0.2, cfg.Feedback.PositiveDelta)
	assert.Equal(t, 0.3, cfg.Feedback.NegativeDelta)
	assert.Equal(t, filepath.Join(dir, "orders.json"), cfg.CatalogPath())
	assert.Equal(t, filepath.Join(dir, "aliases.json"), cfg.RulesPath())
	assert.Equal(t, filepath.Join(dir, "history.db"), cfg.HistoryPath())
}

func TestLoadConfig_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "paths": {"catalog": "/etc/alfred/orders.yaml"},
  "nl": {"provider": "openai", "base_url": "http://llm.local/v1", "model": "qwen"}
}`), 0o600))

	t.Setenv("ALFRED_NL_MODEL", "llama3.2")
	t.Setenv("ALFRED_DISPATCH_TIMEOUT_SECONDS", "5")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/etc/alfred/orders.yaml", cfg.CatalogPath())
	assert.Equal(t, "openai", cfg.NL.Provider)
	assert.Equal(t, "llama3.2", cfg.NL.Model)
	assert.Equal(t, 5, cfg.Dispatch.TimeoutSeconds)
	// untouched sections keep defaults
	assert.True(t, cfg.History.Enabled)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.NL.Model = "mistral"
	require.NoError(t, SaveConfig(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "mistral", loaded.NL.Model)
}

func TestDefaultConfigAt(t *testing.T) {
	cfg := DefaultConfigAt("/srv/alfred")
	assert.Equal(t, filepath.Join("/srv/alfred", "orders.json"), cfg.CatalogPath())
	assert.Equal(t, filepath.Join("/srv/alfred", "sessions"), cfg.SessionsDir())
}
