package desk

import (
	"context"
	"log/slog"

	"github.com/koipond/inkwell/internal/journal"
	"github.com/koipond/inkwell/internal/store"
)

// CreateStream creates a stream. Tags default to an empty list; pinned
// defaults to false.
func (d *Desk) CreateStream(ctx context.Context, title string, description *string, tags []string, color *string) (journal.Stream, error) {
	now := d.clock.Now()
	stream := journal.Stream{
		ID:          d.ids.Generate(),
		Title:       title,
		Description: description,
		Tags:        tags,
		Color:       color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if stream.Tags == nil {
		stream.Tags = []string{}
	}

	if err := d.store.CreateStream(ctx, stream); err != nil {
		return journal.Stream{}, err
	}
	slog.Debug("stream created", "stream", stream.ID, "title", title)
	return stream, nil
}

// Stream retrieves a stream by id.
func (d *Desk) Stream(ctx context.Context, id string) (journal.Stream, error) {
	return d.store.Stream(ctx, id)
}

// Streams lists every stream with entry counts, pinned first, most
// recently updated next.
func (d *Desk) Streams(ctx context.Context) ([]journal.StreamSummary, error) {
	return d.store.Streams(ctx)
}

// StreamDetails retrieves a stream and its entries in sequence order.
func (d *Desk) StreamDetails(ctx context.Context, id string) (journal.Stream, []journal.Entry, error) {
	return d.store.StreamDetails(ctx, id)
}

// UpdateStream applies a partial update and refreshes updated_at.
func (d *Desk) UpdateStream(ctx context.Context, id string, upd store.StreamUpdate) error {
	return d.store.UpdateStream(ctx, id, upd, d.clock.Now())
}

// DeleteStream removes a stream and everything it owns: entries, their
// versions and spotlights, and pending blocks.
func (d *Desk) DeleteStream(ctx context.Context, id string) error {
	if err := d.store.DeleteStream(ctx, id); err != nil {
		return err
	}
	slog.Debug("stream deleted", "stream", id)
	return nil
}

const tutorialText = `Welcome to Inkwell.

Write in entries. Stage the ones you want an outside reading on, then
export them with a directive (try CRITIQUE). Paste the reply back with
absorb; the marker at the end of the export ties it to this desk.

Every entry keeps numbered snapshots: commit when a passage is worth
keeping, revert when it was not.`

// EnsureTutorial seeds the welcome stream on a fresh database: a pinned
// stream tagged "tutorial" with a how-it-works entry and an empty scratch
// entry. No-op when any stream exists. Reports whether it seeded.
func (d *Desk) EnsureTutorial(ctx context.Context) (bool, error) {
	count, err := d.store.CountStreams(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	now := d.clock.Now()
	stream := journal.Stream{
		ID:        d.ids.Generate(),
		Title:     "Welcome to Inkwell",
		Tags:      []string{"tutorial"},
		Pinned:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := d.store.CreateStream(ctx, stream); err != nil {
		return false, err
	}

	if _, err := d.CreateEntry(ctx, stream.ID, journal.RoleUser, journal.TextDocument(tutorialText), nil, nil); err != nil {
		return false, err
	}
	if _, err := d.CreateEntry(ctx, stream.ID, journal.RoleUser, journal.TextDocument(""), nil, nil); err != nil {
		return false, err
	}

	slog.Info("tutorial stream seeded", "stream", stream.ID)
	return true, nil
}
