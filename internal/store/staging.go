package store

import (
	"context"
	"fmt"

	"github.com/koipond/inkwell/internal/journal"
)

// SetStaged sets an entry's staged flag. Idempotent: setting a flag to the
// state it already holds succeeds and still refreshes updated_at, so there
// is no error path for "already staged."
// Returns ErrNotFound if the entry does not exist.
func (s *Store) SetStaged(ctx context.Context, entryID string, staged bool, now int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE entries SET is_staged = ?, updated_at = ? WHERE id = ?
	`, staged, now, entryID)
	if err != nil {
		return fmt.Errorf("set staged: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set staged: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
	}

	return nil
}

// ClearStaging unstages every entry in a stream in one statement, so the
// staged set empties atomically. A stream with nothing staged is a no-op,
// not an error.
func (s *Store) ClearStaging(ctx context.Context, streamID string, now int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		UPDATE entries SET is_staged = 0, updated_at = ?
		WHERE stream_id = ? AND is_staged = 1
	`, now, streamID)
	if err != nil {
		return fmt.Errorf("clear staging: %w", err)
	}

	return nil
}

// StagedEntries returns a stream's staged entries ordered by sequence_id
// ascending. The ordering is load-bearing: export packaging relies on
// stable document order.
//
// Returns an empty slice (not nil) if nothing is staged.
func (s *Store) StagedEntries(ctx context.Context, streamID string) ([]journal.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stream_id, role, content, sequence_id, version_head, is_staged,
		       profile_id, parent_context_ids, ai_metadata, created_at, updated_at
		FROM entries
		WHERE stream_id = ? AND is_staged = 1
		ORDER BY sequence_id ASC
	`, streamID)
	if err != nil {
		return nil, fmt.Errorf("query staged entries: %w", err)
	}
	defer rows.Close()

	var entries []journal.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staged entries: %w", err)
	}

	// Return empty slice instead of nil
	if entries == nil {
		entries = []journal.Entry{}
	}

	return entries, nil
}
