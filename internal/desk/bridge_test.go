package desk

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koipond/inkwell/internal/bridge"
	"github.com/koipond/inkwell/internal/directive"
	"github.com/koipond/inkwell/internal/journal"
	"github.com/koipond/inkwell/internal/store"
)

func TestDesk_Export_CreatesPendingBlock(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()
	stream, entries := seedStagedStream(t, d)

	block, bundle, err := d.Export(ctx, stream.ID, "critique")
	require.NoError(t, err)

	assert.Equal(t, "k1a1", block.BridgeKey)
	assert.Equal(t, "CRITIQUE", block.Directive, "name resolves to canonical form")
	assert.Equal(t, stream.ID, block.StreamID)
	assert.Equal(t, []string{entries[0].ID, entries[1].ID}, block.StagedContextIDs)

	assert.Contains(t, bundle, "# Lighthouse Notes (CRITIQUE)")
	assert.Contains(t, bundle, "[1] (user)")
	assert.Contains(t, bundle, "[2] (user)")
	assert.Contains(t, bundle, "The lamp went dark.")
	assert.Contains(t, bundle, bridge.Marker("k1a1"))

	blocks, err := d.PendingBlocks(ctx, stream.ID)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, block.ID, blocks[0].ID)
}

func TestDesk_Export_KeepsStagingIntact(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()
	stream, _ := seedStagedStream(t, d)

	_, _, err := d.Export(ctx, stream.ID, "dump")
	require.NoError(t, err)

	staged, err := d.StagedEntries(ctx, stream.ID)
	require.NoError(t, err)
	assert.Len(t, staged, 2, "export must not clear staging")
}

func TestDesk_Export_UnknownDirective(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()
	stream, _ := seedStagedStream(t, d)

	_, _, err := d.Export(ctx, stream.ID, "POLISH")
	assert.True(t, errors.Is(err, directive.ErrUnknown))

	blocks, err := d.PendingBlocks(ctx, stream.ID)
	require.NoError(t, err)
	assert.Empty(t, blocks, "failed export leaves no block behind")
}

func TestDesk_Export_NothingStaged(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()

	stream, err := d.CreateStream(ctx, "Empty", nil, nil, nil)
	require.NoError(t, err)

	_, _, err = d.Export(ctx, stream.ID, "critique")
	assert.True(t, IsNothingStaged(err))
}

func TestDesk_Export_StreamNotFound(t *testing.T) {
	d := setupDesk(t)

	_, _, err := d.Export(context.Background(), "missing", "critique")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestDesk_Export_IncludesSpotlights(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()
	stream, entries := seedStagedStream(t, d)

	_, err := d.AddSpotlight(ctx, entries[0].ID, "The lamp went dark.", "went dark", 9, 18)
	require.NoError(t, err)

	_, bundle, err := d.Export(ctx, stream.ID, "critique")
	require.NoError(t, err)
	assert.Contains(t, bundle, "    > went dark")
}

func TestDesk_Export_TwiceAccumulatesBlocks(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()
	stream, _ := seedStagedStream(t, d)

	first, _, err := d.Export(ctx, stream.ID, "critique")
	require.NoError(t, err)
	second, _, err := d.Export(ctx, stream.ID, "dump")
	require.NoError(t, err)

	assert.Equal(t, "k1a1", first.BridgeKey)
	assert.Equal(t, "k2b2", second.BridgeKey)

	blocks, err := d.PendingBlocks(ctx, stream.ID)
	require.NoError(t, err)
	assert.Len(t, blocks, 2)

	latest, err := d.LatestPendingBlock(ctx, stream.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
}

func TestDesk_Absorb_HappyPath(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()
	stream, entries := seedStagedStream(t, d)

	block, _, err := d.Export(ctx, stream.ID, "critique")
	require.NoError(t, err)

	reply := "The gap: nobody explains why the keeper left.\n\n" + bridge.Marker(block.BridgeKey)
	entry, err := d.Absorb(ctx, stream.ID, reply)
	require.NoError(t, err)

	assert.Equal(t, journal.RoleAI, entry.Role)
	assert.Equal(t, reply, entry.Content.PlainText(), "pasted text is stored verbatim")
	assert.Equal(t, []string{entries[0].ID, entries[1].ID}, entry.ParentContextIDs)
	assert.Equal(t, int64(3), entry.SequenceID)
	require.NotNil(t, entry.AIMetadata)
	assert.Equal(t, "CRITIQUE", entry.AIMetadata.Directive)
	assert.Equal(t, "k1a1", entry.AIMetadata.BridgeKey)

	latest, err := d.LatestPendingBlock(ctx, stream.ID)
	require.NoError(t, err)
	assert.Nil(t, latest, "absorb consumes the block")

	staged, err := d.StagedEntries(ctx, stream.ID)
	require.NoError(t, err)
	assert.Empty(t, staged, "absorb clears staging")
}

func TestDesk_Absorb_NoMarker(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()
	stream, _ := seedStagedStream(t, d)

	_, _, err := d.Export(ctx, stream.ID, "critique")
	require.NoError(t, err)

	_, err = d.Absorb(ctx, stream.ID, "a reply that lost its marker")
	assert.True(t, IsNoMarker(err))

	latest, err := d.LatestPendingBlock(ctx, stream.ID)
	require.NoError(t, err)
	assert.NotNil(t, latest, "failed absorb keeps the block")
}

func TestDesk_Absorb_NoPendingBlock(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()
	stream, _ := seedStagedStream(t, d)

	_, err := d.Absorb(ctx, stream.ID, "text\n"+bridge.Marker("k1a1"))
	assert.True(t, IsNoPendingBlock(err))
}

func TestDesk_Absorb_KeyMismatch(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()
	stream, _ := seedStagedStream(t, d)

	_, _, err := d.Export(ctx, stream.ID, "critique")
	require.NoError(t, err)

	_, err = d.Absorb(ctx, stream.ID, "text\n"+bridge.Marker("zz99"))
	require.True(t, IsKeyMismatch(err))
	assert.Contains(t, err.Error(), "k1a1")
	assert.Contains(t, err.Error(), "zz99")

	latest, err := d.LatestPendingBlock(ctx, stream.ID)
	require.NoError(t, err)
	assert.NotNil(t, latest, "mismatch keeps the block")

	staged, err := d.StagedEntries(ctx, stream.ID)
	require.NoError(t, err)
	assert.Len(t, staged, 2, "mismatch keeps staging intact")
}

func TestDesk_Absorb_MarkerKeyCaseInsensitive(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()
	stream, _ := seedStagedStream(t, d)

	_, _, err := d.Export(ctx, stream.ID, "critique")
	require.NoError(t, err)

	_, err = d.Absorb(ctx, stream.ID, "text\n<!-- bridge: K1A1 -->")
	assert.NoError(t, err)
}

func TestDesk_Absorb_MatchesLatestBlockOnly(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()
	stream, _ := seedStagedStream(t, d)

	stale, _, err := d.Export(ctx, stream.ID, "critique")
	require.NoError(t, err)
	fresh, _, err := d.Export(ctx, stream.ID, "dump")
	require.NoError(t, err)

	_, err = d.Absorb(ctx, stream.ID, "text\n"+bridge.Marker(stale.BridgeKey))
	assert.True(t, IsKeyMismatch(err), "stale key does not match the latest block")

	_, err = d.Absorb(ctx, stream.ID, "text\n"+bridge.Marker(fresh.BridgeKey))
	require.NoError(t, err)

	blocks, err := d.PendingBlocks(ctx, stream.ID)
	require.NoError(t, err)
	require.Len(t, blocks, 1, "the stale block stays until discarded")
	assert.Equal(t, stale.ID, blocks[0].ID)
}

func TestDesk_Absorb_UsesDefaultProfile(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()

	profile, err := d.CreateProfile(ctx, "main", "openai", "gpt-4o", true)
	require.NoError(t, err)

	stream, _ := seedStagedStream(t, d)
	block, _, err := d.Export(ctx, stream.ID, "critique")
	require.NoError(t, err)

	entry, err := d.Absorb(ctx, stream.ID, "text\n"+bridge.Marker(block.BridgeKey))
	require.NoError(t, err)

	require.NotNil(t, entry.ProfileID)
	assert.Equal(t, profile.ID, *entry.ProfileID)
	require.NotNil(t, entry.AIMetadata)
	assert.Equal(t, "openai", entry.AIMetadata.Provider)
	assert.Equal(t, "gpt-4o", entry.AIMetadata.Model)
}

func TestDesk_Absorb_ParentsFrozenAtExport(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()
	stream, entries := seedStagedStream(t, d)

	block, _, err := d.Export(ctx, stream.ID, "critique")
	require.NoError(t, err)

	// Mutate the staging set after export: the block's id list must not move.
	require.NoError(t, d.Unstage(ctx, entries[1].ID))
	third, err := d.CreateEntry(ctx, stream.ID, journal.RoleUser, journal.TextDocument("A ship ran aground."), nil, nil)
	require.NoError(t, err)
	require.NoError(t, d.Stage(ctx, third.ID))

	entry, err := d.Absorb(ctx, stream.ID, "text\n"+bridge.Marker(block.BridgeKey))
	require.NoError(t, err)
	assert.Equal(t, []string{entries[0].ID, entries[1].ID}, entry.ParentContextIDs)

	staged, err := d.StagedEntries(ctx, stream.ID)
	require.NoError(t, err)
	assert.Empty(t, staged, "absorb clears the whole staging set, frozen or not")
}

func TestDesk_Discard(t *testing.T) {
	d := setupDesk(t)
	ctx := context.Background()
	stream, _ := seedStagedStream(t, d)

	block, _, err := d.Export(ctx, stream.ID, "critique")
	require.NoError(t, err)

	require.NoError(t, d.Discard(ctx, block.ID))

	blocks, err := d.PendingBlocks(ctx, stream.ID)
	require.NoError(t, err)
	assert.Empty(t, blocks)

	staged, err := d.StagedEntries(ctx, stream.ID)
	require.NoError(t, err)
	assert.Len(t, staged, 2, "discard leaves staging alone")
}

func TestBridgeError_Formatting(t *testing.T) {
	err := NewKeyMismatchError("s1", "k1a1", "zz99")
	assert.Equal(t, "KEY_MISMATCH: marker key does not match the outstanding export (want=k1a1, got=zz99)", err.Error())

	err = NewNothingStagedError("s1")
	assert.True(t, strings.HasPrefix(err.Error(), "NOTHING_STAGED: "))
	assert.Contains(t, err.Error(), "(stream=s1)")
}
