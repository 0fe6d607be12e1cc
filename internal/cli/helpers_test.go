package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/koipond/inkwell/internal/desk"
	"github.com/koipond/inkwell/internal/directive"
	"github.com/koipond/inkwell/internal/journal"
	"github.com/koipond/inkwell/internal/store"
	"github.com/koipond/inkwell/internal/testutil"
)

// testDB keeps the host's config out of the test and returns a database
// path under a fresh temp dir.
func testDB(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("INKWELL_CONFIG", "")
	return filepath.Join(t.TempDir(), "test.db")
}

// execCommand runs a built command with args and returns its stdout.
func execCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	return execCommandWithInput(t, cmd, "", args...)
}

// execCommandWithInput runs a built command with stdin wired to input.
func execCommandWithInput(t *testing.T, cmd *cobra.Command, input string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

// seedStream fills the database with one stream holding two staged entries
// and returns their ids.
func seedStream(t *testing.T, dbPath string) (streamID string, entryIDs []string) {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	reg, err := directive.Builtins()
	require.NoError(t, err)

	d := desk.New(st, reg,
		desk.WithClock(testutil.NewSteppingClock(1000, 10)),
		desk.WithIDGenerator(testutil.NewSequentialIDs("seed")),
	)

	stream, err := d.CreateStream(ctx, "Lighthouse Notes", nil, nil, nil)
	require.NoError(t, err)

	first, err := d.CreateEntry(ctx, stream.ID, journal.RoleUser, journal.TextDocument("The lamp went dark."), nil, nil)
	require.NoError(t, err)
	second, err := d.CreateEntry(ctx, stream.ID, journal.RoleUser, journal.TextDocument("Nobody noticed for days."), nil, nil)
	require.NoError(t, err)

	require.NoError(t, d.Stage(ctx, first.ID))
	require.NoError(t, d.Stage(ctx, second.ID))

	return stream.ID, []string{first.ID, second.ID}
}

// seedProfile adds a relay profile directly to the database.
func seedProfile(t *testing.T, dbPath, name string, isDefault bool) string {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	reg, err := directive.Builtins()
	require.NoError(t, err)

	p, err := desk.New(st, reg).CreateProfile(ctx, name, "anthropic", "claude-sonnet-4", isDefault)
	require.NoError(t, err)
	return p.ID
}

// openStore reopens the database for direct verification.
func openStore(t *testing.T, dbPath string) *store.Store {
	t.Helper()
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}
