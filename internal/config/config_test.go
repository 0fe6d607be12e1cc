package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every INKWELL_ variable a developer machine might carry
// so tests see only what they set themselves. HOME moves to a temp dir so
// the search path cannot find a real ~/.config/inkwell/config.yaml.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"INKWELL_CONFIG",
		"INKWELL_DATABASE_PATH",
		"INKWELL_LOG_LEVEL",
		"INKWELL_LOG_FORMAT",
		"INKWELL_SEARCH_LIMIT",
		"INKWELL_DIRECTIVES_DIR",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.NotEmpty(t, cfg.DatabasePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 50, cfg.SearchLimit)
	assert.Empty(t, cfg.DirectivesDir)
}

func TestLoadNoConfigFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadExplicitFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
database:
  path: /tmp/desk.db
log:
  level: debug
  format: json
search:
  limit: 10
directives:
  dir: /tmp/directives
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/desk.db", cfg.DatabasePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10, cfg.SearchLimit)
	assert.Equal(t, "/tmp/directives", cfg.DirectivesDir)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
database:
  path: /tmp/partial.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/partial.db", cfg.DatabasePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 50, cfg.SearchLimit)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfigEnvVar(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "search:\n  limit: 7\n")
	t.Setenv("INKWELL_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.SearchLimit)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "search:\n  limit: 7\nlog:\n  level: warn\n")
	t.Setenv("INKWELL_SEARCH_LIMIT", "25")
	t.Setenv("INKWELL_LOG_LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.SearchLimit)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadEnvWithoutFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("INKWELL_DATABASE_PATH", "/tmp/env-only.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env-only.db", cfg.DatabasePath)
}

func TestLoadRejectsBadLogFormat(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "log:\n  format: xml\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.format")
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "log:\n  level: loud\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestLoadRejectsNonPositiveSearchLimit(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "search:\n  limit: 0\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.limit")
}

func TestLoadMalformedYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "log: [unclosed\n")

	_, err := Load(path)
	require.Error(t, err)
}
