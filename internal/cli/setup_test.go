package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koipond/inkwell/internal/config"
)

func TestOpenEnvCreatesDatabase(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("INKWELL_CONFIG", "")
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "inkwell.db")

	env, err := openEnv(context.Background(), &RootOptions{Format: "text", Database: dbPath}, io.Discard)
	require.NoError(t, err)
	defer env.Close()

	assert.Equal(t, dbPath, env.Config.DatabasePath)
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestOpenEnvSeedsTutorialOnce(t *testing.T) {
	dbPath := testDB(t)
	ctx := context.Background()

	env, err := openEnv(ctx, &RootOptions{Format: "text", Database: dbPath}, io.Discard)
	require.NoError(t, err)
	summaries, err := env.Desk.Streams(ctx)
	require.NoError(t, err)
	require.NoError(t, env.Close())

	require.Len(t, summaries, 1)
	assert.Equal(t, "Welcome to Inkwell", summaries[0].Title)
	assert.True(t, summaries[0].Pinned)
	assert.Equal(t, int64(2), summaries[0].EntryCount)

	// Reopening an existing database must not seed again.
	env, err = openEnv(ctx, &RootOptions{Format: "text", Database: dbPath}, io.Discard)
	require.NoError(t, err)
	defer env.Close()

	summaries, err = env.Desk.Streams(ctx)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestOpenEnvSkipsTutorialOnSeededDatabase(t *testing.T) {
	dbPath := testDB(t)
	seedStream(t, dbPath)

	env, err := openEnv(context.Background(), &RootOptions{Format: "text", Database: dbPath}, io.Discard)
	require.NoError(t, err)
	defer env.Close()

	summaries, err := env.Desk.Streams(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Lighthouse Notes", summaries[0].Title)
}

func TestOpenEnvConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "configured.db")
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	cfg := fmt.Sprintf("database:\n  path: %s\nsearch:\n  limit: 7\n", dbPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	env, err := openEnv(context.Background(), &RootOptions{Format: "text", ConfigPath: cfgPath}, io.Discard)
	require.NoError(t, err)
	defer env.Close()

	assert.Equal(t, dbPath, env.Config.DatabasePath)
	assert.Equal(t, 7, env.Config.SearchLimit)
}

func TestOpenEnvDatabaseFlagWins(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	configured := filepath.Join(tmpDir, "configured.db")
	flagged := filepath.Join(tmpDir, "flagged.db")
	cfg := fmt.Sprintf("database:\n  path: %s\n", configured)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	env, err := openEnv(context.Background(), &RootOptions{Format: "text", ConfigPath: cfgPath, Database: flagged}, io.Discard)
	require.NoError(t, err)
	defer env.Close()

	assert.Equal(t, flagged, env.Config.DatabasePath)
	_, err = os.Stat(flagged)
	assert.NoError(t, err)
	_, err = os.Stat(configured)
	assert.True(t, os.IsNotExist(err))
}

func TestOpenEnvVerboseForcesDebug(t *testing.T) {
	dbPath := testDB(t)

	env, err := openEnv(context.Background(), &RootOptions{Format: "text", Database: dbPath, Verbose: true}, io.Discard)
	require.NoError(t, err)
	defer env.Close()

	assert.Equal(t, "debug", env.Config.LogLevel)
}

func TestOpenEnvBadConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  level: loud\n"), 0o644))

	_, err := openEnv(context.Background(), &RootOptions{Format: "text", ConfigPath: cfgPath}, io.Discard)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E002")
}

func TestOpenEnvMissingDirectivesDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("directives:\n  dir: /nonexistent/directives\n"), 0o644))

	_, err := openEnv(context.Background(), &RootOptions{Format: "text", ConfigPath: cfgPath, Database: dbPath}, io.Discard)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E004")
}

func TestSetupLogging(t *testing.T) {
	buf := &bytes.Buffer{}
	setupLogging(config.Config{LogLevel: "debug", LogFormat: "json"}, buf)
	slog.Debug("probe", "n", 1)
	assert.Contains(t, buf.String(), `"msg":"probe"`)

	buf.Reset()
	setupLogging(config.Config{LogLevel: "warn", LogFormat: "text"}, buf)
	slog.Info("hidden")
	slog.Warn("shown")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestReadText(t *testing.T) {
	cmd := &cobra.Command{}
	text, err := readText(cmd, []string{"s1", "from the argument"}, 1)
	require.NoError(t, err)
	assert.Equal(t, "from the argument", text)

	cmd.SetIn(strings.NewReader("from stdin"))
	text, err = readText(cmd, []string{"s1"}, 1)
	require.NoError(t, err)
	assert.Equal(t, "from stdin", text)
}

func TestFirstLine(t *testing.T) {
	testCases := []struct {
		input    string
		max      int
		expected string
	}{
		{"short", 80, "short"},
		{"first\nsecond", 80, "first"},
		{"aaaaaaaaaa", 10, "aaaaaaaaaa"},
		{"aaaaaaaaaab", 10, "aaaaaaa..."},
		{"", 80, ""},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, firstLine(tc.input, tc.max))
	}
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "1970-01-01T00:00:00Z", formatTime(0))
	assert.Equal(t, "2023-11-14T22:13:20Z", formatTime(1700000000000))
}
