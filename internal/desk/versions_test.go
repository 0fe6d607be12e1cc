package desk

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koipond/inkwell/internal/journal"
	"github.com/koipond/inkwell/internal/store"
)

func TestDesk_Commit(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()
	_, entries := seedStagedStream(t, d)

	msg := "first draft"
	version, err := d.Commit(ctx, entries[0].ID, &msg)
	require.NoError(t, err)

	assert.Equal(t, int64(1), version.VersionNumber)
	require.NotNil(t, version.CommitMessage)
	assert.Equal(t, "first draft", *version.CommitMessage)
	assert.Equal(t, "The lamp went dark.", version.ContentSnapshot.PlainText())

	entry, err := d.Entry(ctx, entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), entry.VersionHead)
}

func TestDesk_Commit_NumbersAdvance(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()
	_, entries := seedStagedStream(t, d)

	_, err := d.Commit(ctx, entries[0].ID, nil)
	require.NoError(t, err)

	require.NoError(t, d.SetContent(ctx, entries[0].ID, journal.TextDocument("The lamp went dark at dusk.")))
	second, err := d.Commit(ctx, entries[0].ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.VersionNumber)
	assert.Nil(t, second.CommitMessage)

	entry, err := d.Entry(ctx, entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), entry.VersionHead)

	versions, err := d.Versions(ctx, entries[0].ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, int64(2), versions[0].VersionNumber, "newest first")
}

func TestDesk_Commit_EntryNotFound(t *testing.T) {
	d := setupDesk(t)

	_, err := d.Commit(context.Background(), "missing", nil)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestDesk_Revert(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()
	_, entries := seedStagedStream(t, d)

	_, err := d.Commit(ctx, entries[0].ID, nil)
	require.NoError(t, err)
	require.NoError(t, d.SetContent(ctx, entries[0].ID, journal.TextDocument("garbled rewrite")))

	require.NoError(t, d.Revert(ctx, entries[0].ID, 1))

	entry, err := d.Entry(ctx, entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "The lamp went dark.", entry.Content.PlainText())
	assert.Equal(t, int64(1), entry.VersionHead, "revert does not move the head")

	versions, err := d.Versions(ctx, entries[0].ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1, "revert keeps history intact")
}

func TestDesk_Revert_MissingVersion(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()
	_, entries := seedStagedStream(t, d)

	err := d.Revert(ctx, entries[0].ID, 3)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestDesk_LatestVersion(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()
	_, entries := seedStagedStream(t, d)

	latest, err := d.LatestVersion(ctx, entries[0].ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = d.Commit(ctx, entries[0].ID, nil)
	require.NoError(t, err)
	_, err = d.Commit(ctx, entries[0].ID, nil)
	require.NoError(t, err)

	latest, err = d.LatestVersion(ctx, entries[0].ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, int64(2), latest.VersionNumber)
}

func TestDesk_VerifyVersion(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()
	_, entries := seedStagedStream(t, d)

	_, err := d.Commit(ctx, entries[0].ID, nil)
	require.NoError(t, err)

	ok, err := d.VerifyVersion(ctx, entries[0].ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDesk_VerifyVersion_Missing(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()
	_, entries := seedStagedStream(t, d)

	_, err := d.VerifyVersion(ctx, entries[0].ID, 9)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}
