package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/koipond/inkwell/internal/journal"
)

// CreateEntry inserts an entry, assigning the next sequence_id for its
// stream. The sequence assignment and insert run in one transaction so two
// entries can never claim the same slot; sequence_ids are never reused even
// after deletes. The owning stream's updated_at advances (advisory, outside
// the transaction).
//
// Returns the entry with its assigned sequence_id, or ErrNotFound if the
// stream does not exist.
func (s *Store) CreateEntry(ctx context.Context, entry journal.Entry) (journal.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parentIDs, err := marshalOptionalIDList(entry.ParentContextIDs)
	if err != nil {
		return journal.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	metaJSON, err := marshalAIMetadata(entry.AIMetadata)
	if err != nil {
		return journal.Entry{}, fmt.Errorf("create entry: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return journal.Entry{}, fmt.Errorf("create entry: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Verify the stream exists before claiming a sequence slot.
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM streams WHERE id = ?`, entry.StreamID).Scan(&exists)
	if err != nil {
		return journal.Entry{}, fmt.Errorf("create entry: check stream: %w", err)
	}
	if exists == 0 {
		return journal.Entry{}, fmt.Errorf("stream %s: %w", entry.StreamID, ErrNotFound)
	}

	// MAX+1 keeps sequence_ids strictly increasing in creation order.
	// Deleted entries leave gaps that are never refilled.
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sequence_id), 0) + 1 FROM entries WHERE stream_id = ?
	`, entry.StreamID).Scan(&entry.SequenceID)
	if err != nil {
		return journal.Entry{}, fmt.Errorf("create entry: next sequence: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO entries
		(id, stream_id, role, content, sequence_id, version_head, is_staged,
		 profile_id, parent_context_ids, ai_metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.StreamID,
		entry.Role,
		entry.Content.Encode(),
		entry.SequenceID,
		entry.VersionHead,
		entry.IsStaged,
		nullString(entry.ProfileID),
		parentIDs,
		metaJSON,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return journal.Entry{}, fmt.Errorf("create entry: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return journal.Entry{}, fmt.Errorf("create entry: commit: %w", err)
	}

	if err := touchStream(ctx, s.db, entry.StreamID, entry.CreatedAt); err != nil {
		return journal.Entry{}, fmt.Errorf("create entry: %w", err)
	}

	return entry, nil
}

// Entry retrieves a single entry by id.
// Returns ErrNotFound if no such entry exists.
func (s *Store) Entry(ctx context.Context, id string) (journal.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.entryLocked(ctx, id)
}

// entryLocked reads an entry row. Caller must hold s.mu.
func (s *Store) entryLocked(ctx context.Context, id string) (journal.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, stream_id, role, content, sequence_id, version_head, is_staged,
		       profile_id, parent_context_ids, ai_metadata, created_at, updated_at
		FROM entries
		WHERE id = ?
	`, id)

	entry, err := scanEntryRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return journal.Entry{}, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return journal.Entry{}, fmt.Errorf("read entry: %w", err)
	}
	return entry, nil
}

// streamEntriesLocked returns a stream's entries in sequence order.
// Caller must hold s.mu.
func (s *Store) streamEntriesLocked(ctx context.Context, streamID string) ([]journal.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stream_id, role, content, sequence_id, version_head, is_staged,
		       profile_id, parent_context_ids, ai_metadata, created_at, updated_at
		FROM entries
		WHERE stream_id = ?
		ORDER BY sequence_id ASC
	`, streamID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
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
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	// Return empty slice instead of nil
	if entries == nil {
		entries = []journal.Entry{}
	}

	return entries, nil
}

// SetEntryContent replaces an entry's current content in place: no version
// bookkeeping, just the content and updated_at. Not to be confused with
// CommitVersion. Touches the owning stream's updated_at (advisory).
// Returns ErrNotFound if the entry does not exist.
func (s *Store) SetEntryContent(ctx context.Context, id string, content journal.Document, now int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE entries SET content = ?, updated_at = ? WHERE id = ?
	`, content.Encode(), now, id)
	if err != nil {
		return fmt.Errorf("set entry content: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set entry content: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}

	if err := s.touchEntryStream(ctx, id, now); err != nil {
		return fmt.Errorf("set entry content: %w", err)
	}

	return nil
}

// DeleteEntry removes an entry. Foreign keys cascade the delete to its
// versions and spotlights. Remaining entries keep their sequence_ids; slots
// are never renumbered.
// Returns ErrNotFound if the entry does not exist.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}

	return nil
}

// SearchEntries returns entries whose stored content contains the query as a
// substring, most recently updated first, capped at limit rows.
//
// The match runs against the raw stored JSON, so it also hits node type
// names; callers wanting display text use Document.PlainText on the results.
func (s *Store) SearchEntries(ctx context.Context, query string, limit int) ([]journal.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stream_id, role, content, sequence_id, version_head, is_staged,
		       profile_id, parent_context_ids, ai_metadata, created_at, updated_at
		FROM entries
		WHERE content LIKE '%' || ? || '%'
		ORDER BY updated_at DESC
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
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
		return nil, fmt.Errorf("iterate search results: %w", err)
	}

	if entries == nil {
		entries = []journal.Entry{}
	}

	return entries, nil
}

// AssignEntryProfile sets or clears (nil) an entry's profile reference.
// Returns ErrNotFound if the entry does not exist.
func (s *Store) AssignEntryProfile(ctx context.Context, entryID string, profileID *string, now int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE entries SET profile_id = ?, updated_at = ? WHERE id = ?
	`, nullString(profileID), now, entryID)
	if err != nil {
		return fmt.Errorf("assign entry profile: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("assign entry profile: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
	}

	return nil
}

// BulkAssignProfile sets or clears the profile reference on every listed
// entry in one transaction. Entries that do not exist are skipped silently;
// the count of updated rows is returned.
func (s *Store) BulkAssignProfile(ctx context.Context, entryIDs []string, profileID *string, now int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(entryIDs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("bulk assign profile: begin tx: %w", err)
	}
	defer tx.Rollback()

	var updated int64
	for _, id := range entryIDs {
		res, err := tx.ExecContext(ctx, `
			UPDATE entries SET profile_id = ?, updated_at = ? WHERE id = ?
		`, nullString(profileID), now, id)
		if err != nil {
			return 0, fmt.Errorf("bulk assign profile: update %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("bulk assign profile: rows affected: %w", err)
		}
		updated += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("bulk assign profile: commit: %w", err)
	}

	return updated, nil
}

// touchEntryStream advances the updated_at of the stream owning an entry.
// Caller must hold s.mu.
func (s *Store) touchEntryStream(ctx context.Context, entryID string, now int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE streams SET updated_at = ?
		WHERE id = (SELECT stream_id FROM entries WHERE id = ?)
	`, now, entryID)
	if err != nil {
		return fmt.Errorf("touch entry stream: %w", err)
	}
	return nil
}

// scanEntry scans a row into an Entry struct.
func scanEntry(rows *sql.Rows) (journal.Entry, error) {
	var entry journal.Entry
	var contentText string
	var profileID, parentIDs, metaJSON sql.NullString

	if err := rows.Scan(
		&entry.ID, &entry.StreamID, &entry.Role, &contentText,
		&entry.SequenceID, &entry.VersionHead, &entry.IsStaged,
		&profileID, &parentIDs, &metaJSON, &entry.CreatedAt, &entry.UpdatedAt,
	); err != nil {
		return journal.Entry{}, fmt.Errorf("scan entry: %w", err)
	}

	entry.Content = journal.DecodeDocument(contentText)
	entry.ProfileID = stringPtr(profileID)
	entry.ParentContextIDs = unmarshalIDList(parentIDs)
	entry.AIMetadata = unmarshalAIMetadata(metaJSON)

	return entry, nil
}

// scanEntryRow scans a single row into an Entry struct.
func scanEntryRow(row *sql.Row) (journal.Entry, error) {
	var entry journal.Entry
	var contentText string
	var profileID, parentIDs, metaJSON sql.NullString

	if err := row.Scan(
		&entry.ID, &entry.StreamID, &entry.Role, &contentText,
		&entry.SequenceID, &entry.VersionHead, &entry.IsStaged,
		&profileID, &parentIDs, &metaJSON, &entry.CreatedAt, &entry.UpdatedAt,
	); err != nil {
		return journal.Entry{}, err
	}

	entry.Content = journal.DecodeDocument(contentText)
	entry.ProfileID = stringPtr(profileID)
	entry.ParentContextIDs = unmarshalIDList(parentIDs)
	entry.AIMetadata = unmarshalAIMetadata(metaJSON)

	return entry, nil
}
