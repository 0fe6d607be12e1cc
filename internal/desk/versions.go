package desk

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/koipond/inkwell/internal/journal"
	"github.com/koipond/inkwell/internal/store"
)

// Commit snapshots an entry's current content as its next numbered version
// and advances version_head. Returns the created version.
func (d *Desk) Commit(ctx context.Context, entryID string, message *string) (journal.EntryVersion, error) {
	version, err := d.store.CommitVersion(ctx, entryID, d.ids.Generate(), message, d.clock.Now())
	if err != nil {
		return journal.EntryVersion{}, err
	}
	slog.Debug("version committed", "entry", entryID, "number", version.VersionNumber)
	return version, nil
}

// Revert restores an entry's working content from a numbered snapshot.
// version_head is untouched; the snapshot history stays intact.
func (d *Desk) Revert(ctx context.Context, entryID string, versionNumber int64) error {
	if err := d.store.RevertToVersion(ctx, entryID, versionNumber, d.clock.Now()); err != nil {
		return err
	}
	slog.Debug("entry reverted", "entry", entryID, "number", versionNumber)
	return nil
}

// Versions lists an entry's snapshots, newest first.
func (d *Desk) Versions(ctx context.Context, entryID string) ([]journal.EntryVersion, error) {
	return d.store.Versions(ctx, entryID)
}

// LatestVersion returns the highest-numbered snapshot, nil if none.
func (d *Desk) LatestVersion(ctx context.Context, entryID string) (*journal.EntryVersion, error) {
	return d.store.LatestVersion(ctx, entryID)
}

// VersionByNumber returns one numbered snapshot, nil if absent.
func (d *Desk) VersionByNumber(ctx context.Context, entryID string, versionNumber int64) (*journal.EntryVersion, error) {
	return d.store.VersionByNumber(ctx, entryID, versionNumber)
}

// VerifyVersion recomputes the stored snapshot's checksum and compares it
// against the recorded one. Returns ErrNotFound if the version is absent.
func (d *Desk) VerifyVersion(ctx context.Context, entryID string, versionNumber int64) (bool, error) {
	version, err := d.store.VersionByNumber(ctx, entryID, versionNumber)
	if err != nil {
		return false, err
	}
	if version == nil {
		return false, fmt.Errorf("version %d of entry %s: %w", versionNumber, entryID, store.ErrNotFound)
	}
	return journal.SnapshotChecksum(version.ContentSnapshot) == version.Checksum, nil
}
