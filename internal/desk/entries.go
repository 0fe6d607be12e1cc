package desk

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/koipond/inkwell/internal/journal"
)

// CreateEntry creates an entry in a stream. The store assigns the next
// sequence slot; version_head starts at 0 and is_staged false.
func (d *Desk) CreateEntry(ctx context.Context, streamID, role string, content journal.Document, meta *journal.AIMetadata, parentContextIDs []string) (journal.Entry, error) {
	if !journal.ValidRoles[role] {
		return journal.Entry{}, fmt.Errorf("invalid entry role %q", role)
	}

	now := d.clock.Now()
	entry := journal.Entry{
		ID:               d.ids.Generate(),
		StreamID:         streamID,
		Role:             role,
		Content:          content,
		ParentContextIDs: parentContextIDs,
		AIMetadata:       meta,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	created, err := d.store.CreateEntry(ctx, entry)
	if err != nil {
		return journal.Entry{}, err
	}
	slog.Debug("entry created", "entry", created.ID, "stream", streamID, "sequence", created.SequenceID)
	return created, nil
}

// Entry retrieves an entry by id.
func (d *Desk) Entry(ctx context.Context, id string) (journal.Entry, error) {
	return d.store.Entry(ctx, id)
}

// SetContent replaces an entry's working content in place. No version
// bookkeeping happens; commit captures snapshots.
func (d *Desk) SetContent(ctx context.Context, entryID string, content journal.Document) error {
	return d.store.SetEntryContent(ctx, entryID, content, d.clock.Now())
}

// DeleteEntry removes an entry with its versions and spotlights. Remaining
// entries keep their sequence slots.
func (d *Desk) DeleteEntry(ctx context.Context, id string) error {
	if err := d.store.DeleteEntry(ctx, id); err != nil {
		return err
	}
	slog.Debug("entry deleted", "entry", id)
	return nil
}

// Search finds entries whose stored content contains the query substring,
// most recently updated first, capped at the configured limit.
func (d *Desk) Search(ctx context.Context, query string) ([]journal.Entry, error) {
	return d.store.SearchEntries(ctx, query, d.searchLimit)
}

// AssignProfile sets or clears (nil) an entry's relay profile.
func (d *Desk) AssignProfile(ctx context.Context, entryID string, profileID *string) error {
	return d.store.AssignEntryProfile(ctx, entryID, profileID, d.clock.Now())
}

// BulkAssignProfile sets or clears the relay profile on many entries,
// skipping ids that do not exist. Returns the number updated.
func (d *Desk) BulkAssignProfile(ctx context.Context, entryIDs []string, profileID *string) (int64, error) {
	return d.store.BulkAssignProfile(ctx, entryIDs, profileID, d.clock.Now())
}
