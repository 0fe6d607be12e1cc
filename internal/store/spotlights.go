package store

import (
	"context"
	"fmt"

	"github.com/koipond/inkwell/internal/journal"
)

// CreateSpotlight saves a text selection against an entry. Offsets are
// stored verbatim; they describe the entry's plain text at capture time
// and may drift as the entry is edited.
// Returns ErrNotFound if the entry does not exist.
func (s *Store) CreateSpotlight(ctx context.Context, spot journal.Spotlight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE id = ?`, spot.EntryID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("create spotlight: check entry: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("entry %s: %w", spot.EntryID, ErrNotFound)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO spotlights (id, entry_id, context_text, highlighted_text, start_offset, end_offset)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		spot.ID,
		spot.EntryID,
		spot.ContextText,
		spot.HighlightedText,
		spot.StartOffset,
		spot.EndOffset,
	)
	if err != nil {
		return fmt.Errorf("create spotlight: %w", err)
	}

	return nil
}

// EntrySpotlights returns an entry's spotlights ordered by start offset
// ascending.
//
// Returns an empty slice (not nil) if none exist.
func (s *Store) EntrySpotlights(ctx context.Context, entryID string) ([]journal.Spotlight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.entrySpotlightsLocked(ctx, entryID)
}

// entrySpotlightsLocked assumes s.mu is held.
func (s *Store) entrySpotlightsLocked(ctx context.Context, entryID string) ([]journal.Spotlight, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry_id, context_text, highlighted_text, start_offset, end_offset
		FROM spotlights
		WHERE entry_id = ?
		ORDER BY start_offset ASC, rowid ASC
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("query spotlights: %w", err)
	}
	defer rows.Close()

	var spots []journal.Spotlight
	for rows.Next() {
		var sp journal.Spotlight
		if err := rows.Scan(
			&sp.ID, &sp.EntryID, &sp.ContextText,
			&sp.HighlightedText, &sp.StartOffset, &sp.EndOffset,
		); err != nil {
			return nil, fmt.Errorf("scan spotlight: %w", err)
		}
		spots = append(spots, sp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spotlights: %w", err)
	}

	// Return empty slice instead of nil
	if spots == nil {
		spots = []journal.Spotlight{}
	}

	return spots, nil
}

// DeleteSpotlight removes a saved selection.
// Returns ErrNotFound if it does not exist.
func (s *Store) DeleteSpotlight(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM spotlights WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete spotlight: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete spotlight: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("spotlight %s: %w", id, ErrNotFound)
	}

	return nil
}
