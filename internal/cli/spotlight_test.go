package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpotlightAdd(t *testing.T) {
	dbPath := testDB(t)
	_, entryIDs := seedStream(t, dbPath)
	rootOpts := &RootOptions{Format: "text", Database: dbPath}

	// "The lamp went dark."[9:18] == "went dark"
	out, err := execCommand(t, NewSpotlightCommand(rootOpts), "add", entryIDs[0], "9", "18")
	require.NoError(t, err)
	assert.Contains(t, out, "Added spotlight")
	assert.Contains(t, out, `"went dark"`)

	st := openStore(t, dbPath)
	spots, err := st.EntrySpotlights(context.Background(), entryIDs[0])
	require.NoError(t, err)
	require.Len(t, spots, 1)
	assert.Equal(t, int64(9), spots[0].StartOffset)
	assert.Equal(t, int64(18), spots[0].EndOffset)
	assert.Equal(t, "went dark", spots[0].HighlightedText)
	assert.Equal(t, "The lamp went dark.", spots[0].ContextText)
}

func TestSpotlightAddPastEnd(t *testing.T) {
	dbPath := testDB(t)
	_, entryIDs := seedStream(t, dbPath)
	rootOpts := &RootOptions{Format: "text", Database: dbPath}

	_, err := execCommand(t, NewSpotlightCommand(rootOpts), "add", entryIDs[0], "9", "99")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "past entry text")
}

func TestSpotlightAddEmptySelection(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}

	_, err := execCommand(t, NewSpotlightCommand(rootOpts), "add", "e1", "9", "9")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "empty selection")
}

func TestSpotlightAddBadOffset(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}

	_, err := execCommand(t, NewSpotlightCommand(rootOpts), "add", "e1", "x", "5")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid offset "x"`)
}

func TestSpotlightAddEntryNotFound(t *testing.T) {
	dbPath := testDB(t)
	seedStream(t, dbPath)
	rootOpts := &RootOptions{Format: "text", Database: dbPath}

	_, err := execCommand(t, NewSpotlightCommand(rootOpts), "add", "ghost", "0", "5")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
}

func TestSpotlightListAndRm(t *testing.T) {
	dbPath := testDB(t)
	_, entryIDs := seedStream(t, dbPath)
	rootOpts := &RootOptions{Format: "text", Database: dbPath}
	ctx := context.Background()

	_, err := execCommand(t, NewSpotlightCommand(rootOpts), "add", entryIDs[0], "9", "18")
	require.NoError(t, err)

	out, err := execCommand(t, NewSpotlightCommand(rootOpts), "list", entryIDs[0])
	require.NoError(t, err)
	assert.Contains(t, out, "[9, 18)")
	assert.Contains(t, out, `"went dark"`)

	spotID := strings.Fields(out)[0]
	out, err = execCommand(t, NewSpotlightCommand(rootOpts), "rm", spotID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted spotlight "+spotID)

	st := openStore(t, dbPath)
	spots, err := st.EntrySpotlights(ctx, entryIDs[0])
	require.NoError(t, err)
	assert.Empty(t, spots)
}

func TestSpotlightListEmpty(t *testing.T) {
	dbPath := testDB(t)
	_, entryIDs := seedStream(t, dbPath)
	rootOpts := &RootOptions{Format: "text", Database: dbPath}

	out, err := execCommand(t, NewSpotlightCommand(rootOpts), "list", entryIDs[0])
	require.NoError(t, err)
	assert.Contains(t, out, "No spotlights.")
}

func TestSpotlightExported(t *testing.T) {
	dbPath := testDB(t)
	streamID, entryIDs := seedStream(t, dbPath)
	rootOpts := &RootOptions{Format: "text", Database: dbPath}

	_, err := execCommand(t, NewSpotlightCommand(rootOpts), "add", entryIDs[0], "9", "18")
	require.NoError(t, err)

	out, err := execCommand(t, NewExportCommand(rootOpts), streamID, "--directive", "critique")
	require.NoError(t, err)
	assert.Contains(t, out, "> went dark")
}

func TestSelectionContext(t *testing.T) {
	text := "one\ntwo three\nfour"

	testCases := []struct {
		name     string
		start    int64
		end      int64
		expected string
	}{
		{"whole first line", 0, 3, "one"},
		{"inside middle line", 8, 13, "two three"},
		{"spanning two lines", 4, 18, "two three\nfour"},
		{"tail of last line", 14, 18, "four"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, selectionContext(text, tc.start, tc.end))
		})
	}
}
