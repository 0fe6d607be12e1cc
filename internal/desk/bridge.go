package desk

import (
	"context"
	"log/slog"
	"strings"

	"github.com/koipond/inkwell/internal/bridge"
	"github.com/koipond/inkwell/internal/export"
	"github.com/koipond/inkwell/internal/journal"
)

// Export packages a stream's staged entries into a bundle for an external
// assistant. It resolves the directive, freezes the staged id list into a
// new pending block keyed by a fresh bridge key, and renders the bundle.
//
// Staging is NOT cleared: the user may re-export, and each export leaves
// its own pending block. Clearing happens on absorb or explicitly.
func (d *Desk) Export(ctx context.Context, streamID, directiveName string) (journal.PendingBlock, string, error) {
	dir, err := d.directives.Lookup(directiveName)
	if err != nil {
		return journal.PendingBlock{}, "", err
	}

	stream, err := d.store.Stream(ctx, streamID)
	if err != nil {
		return journal.PendingBlock{}, "", err
	}

	staged, err := d.store.StagedEntries(ctx, streamID)
	if err != nil {
		return journal.PendingBlock{}, "", err
	}
	if len(staged) == 0 {
		return journal.PendingBlock{}, "", NewNothingStagedError(streamID)
	}

	spotlights := make(map[string][]journal.Spotlight)
	for _, entry := range staged {
		spots, err := d.store.EntrySpotlights(ctx, entry.ID)
		if err != nil {
			return journal.PendingBlock{}, "", err
		}
		if len(spots) > 0 {
			spotlights[entry.ID] = spots
		}
	}

	ids := make([]string, len(staged))
	for i, entry := range staged {
		ids[i] = entry.ID
	}

	block := journal.PendingBlock{
		ID:               d.ids.Generate(),
		StreamID:         streamID,
		BridgeKey:        d.keys.Generate(),
		StagedContextIDs: ids,
		Directive:        dir.Name,
		CreatedAt:        d.clock.Now(),
	}
	if err := d.store.CreatePendingBlock(ctx, block); err != nil {
		return journal.PendingBlock{}, "", err
	}

	bundle := export.Render(export.Bundle{
		StreamTitle: stream.Title,
		Directive:   dir,
		Entries:     staged,
		Spotlights:  spotlights,
		Key:         block.BridgeKey,
	})

	slog.Info("bundle exported",
		"stream", streamID,
		"directive", dir.Name,
		"key", block.BridgeKey,
		"entries", len(staged),
	)
	return block, bundle, nil
}

// Absorb correlates pasted reply text with the stream's outstanding export
// and records it as an ai entry. The marker key must match the latest
// pending block's key; on match the entry is created with the block's
// frozen staged ids as parents, the block is deleted, and the stream's
// staging is cleared. Returns the created entry.
func (d *Desk) Absorb(ctx context.Context, streamID, pastedText string) (journal.Entry, error) {
	key, ok := bridge.Extract(pastedText)
	if !ok {
		return journal.Entry{}, NewNoMarkerError(streamID)
	}

	block, err := d.store.LatestPendingBlock(ctx, streamID)
	if err != nil {
		return journal.Entry{}, err
	}
	if block == nil {
		return journal.Entry{}, NewNoPendingBlockError(streamID)
	}

	if key != strings.ToLower(block.BridgeKey) {
		return journal.Entry{}, NewKeyMismatchError(streamID, block.BridgeKey, key)
	}

	meta := &journal.AIMetadata{
		Directive: block.Directive,
		BridgeKey: block.BridgeKey,
	}
	profile, err := d.store.DefaultProfile(ctx)
	if err != nil {
		return journal.Entry{}, err
	}
	if profile != nil {
		meta.Provider = profile.Provider
		meta.Model = profile.Model
	}

	now := d.clock.Now()
	entry := journal.Entry{
		ID:               d.ids.Generate(),
		StreamID:         streamID,
		Role:             journal.RoleAI,
		Content:          journal.TextDocument(pastedText),
		ParentContextIDs: block.StagedContextIDs,
		AIMetadata:       meta,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if profile != nil {
		entry.ProfileID = &profile.ID
	}

	created, err := d.store.CreateEntry(ctx, entry)
	if err != nil {
		return journal.Entry{}, err
	}

	if err := d.store.DeletePendingBlock(ctx, block.ID); err != nil {
		return journal.Entry{}, err
	}
	if err := d.store.ClearStaging(ctx, streamID, d.clock.Now()); err != nil {
		return journal.Entry{}, err
	}

	slog.Info("reply absorbed",
		"stream", streamID,
		"entry", created.ID,
		"key", block.BridgeKey,
		"parents", len(block.StagedContextIDs),
	)
	return created, nil
}

// PendingBlocks lists a stream's outstanding exports, newest first.
func (d *Desk) PendingBlocks(ctx context.Context, streamID string) ([]journal.PendingBlock, error) {
	return d.store.StreamPendingBlocks(ctx, streamID)
}

// LatestPendingBlock returns the block absorb would match against, nil if
// none outstanding.
func (d *Desk) LatestPendingBlock(ctx context.Context, streamID string) (*journal.PendingBlock, error) {
	return d.store.LatestPendingBlock(ctx, streamID)
}

// Discard abandons a pending block without touching entries or staging.
func (d *Desk) Discard(ctx context.Context, blockID string) error {
	if err := d.store.DeletePendingBlock(ctx, blockID); err != nil {
		return err
	}
	slog.Debug("pending block discarded", "block", blockID)
	return nil
}
