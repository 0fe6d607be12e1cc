package desk

import (
	"context"
	"log/slog"

	"github.com/koipond/inkwell/internal/journal"
)

// Stage marks an entry for the next export. Idempotent.
func (d *Desk) Stage(ctx context.Context, entryID string) error {
	return d.store.SetStaged(ctx, entryID, true, d.clock.Now())
}

// Unstage removes an entry from the staging set. Idempotent.
func (d *Desk) Unstage(ctx context.Context, entryID string) error {
	return d.store.SetStaged(ctx, entryID, false, d.clock.Now())
}

// StagedEntries lists a stream's staged entries in sequence order, the
// order export packaging uses.
func (d *Desk) StagedEntries(ctx context.Context, streamID string) ([]journal.Entry, error) {
	return d.store.StagedEntries(ctx, streamID)
}

// UnstageAll clears a stream's whole staging set in one statement.
func (d *Desk) UnstageAll(ctx context.Context, streamID string) error {
	if err := d.store.ClearStaging(ctx, streamID, d.clock.Now()); err != nil {
		return err
	}
	slog.Debug("staging cleared", "stream", streamID)
	return nil
}
