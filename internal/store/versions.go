package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/koipond/inkwell/internal/journal"
)

// CommitVersion snapshots an entry's current content as the next numbered
// immutable version and advances the entry's version_head to match.
//
// The version insert and the head update execute in one transaction - this
// pair carries the contiguity invariant (versions numbered 1..N with the
// highest equal to version_head). CommitVersion is the sole writer of
// version_head.
//
// After the transaction commits, the owning stream's updated_at advances to
// now. That touch is advisory metadata: a crash between the commit and the
// touch leaves it stale, which is accepted.
//
// Returns the created version, or ErrNotFound if the entry does not exist.
func (s *Store) CommitVersion(ctx context.Context, entryID, versionID string, message *string, now int64) (journal.EntryVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return journal.EntryVersion{}, fmt.Errorf("commit version: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var contentText string
	var head int64
	var streamID string
	err = tx.QueryRowContext(ctx, `
		SELECT content, version_head, stream_id FROM entries WHERE id = ?
	`, entryID).Scan(&contentText, &head, &streamID)
	if errors.Is(err, sql.ErrNoRows) {
		return journal.EntryVersion{}, fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
	}
	if err != nil {
		return journal.EntryVersion{}, fmt.Errorf("commit version: read entry: %w", err)
	}

	snapshot := journal.DecodeDocument(contentText)
	version := journal.EntryVersion{
		ID:              versionID,
		EntryID:         entryID,
		VersionNumber:   head + 1,
		ContentSnapshot: snapshot,
		Checksum:        journal.SnapshotChecksum(snapshot),
		CommitMessage:   message,
		CommittedAt:     now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO entry_versions
		(id, entry_id, version_number, content_snapshot, checksum, commit_message, committed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		version.ID,
		version.EntryID,
		version.VersionNumber,
		version.ContentSnapshot.Encode(),
		version.Checksum,
		nullString(version.CommitMessage),
		version.CommittedAt,
	)
	if err != nil {
		return journal.EntryVersion{}, fmt.Errorf("commit version: insert: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE entries SET version_head = ?, updated_at = ? WHERE id = ?
	`, version.VersionNumber, now, entryID)
	if err != nil {
		return journal.EntryVersion{}, fmt.Errorf("commit version: advance head: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return journal.EntryVersion{}, fmt.Errorf("commit version: commit tx: %w", err)
	}

	// Advisory touch, deliberately outside the transaction.
	if err := touchStream(ctx, s.db, streamID, now); err != nil {
		return journal.EntryVersion{}, fmt.Errorf("commit version: %w", err)
	}

	return version, nil
}

// RevertToVersion replaces an entry's current content with a version's
// snapshot and refreshes updated_at. It does NOT create a new version and
// does NOT change version_head: reverting restores content without altering
// version history.
//
// Returns ErrNotFound if the entry has no version with that number.
func (s *Store) RevertToVersion(ctx context.Context, entryID string, versionNumber int64, now int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snapshotText string
	err := s.db.QueryRowContext(ctx, `
		SELECT content_snapshot FROM entry_versions
		WHERE entry_id = ? AND version_number = ?
	`, entryID, versionNumber).Scan(&snapshotText)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("entry %s version %d: %w", entryID, versionNumber, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("revert: read snapshot: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE entries SET content = ?, updated_at = ? WHERE id = ?
	`, snapshotText, now, entryID)
	if err != nil {
		return fmt.Errorf("revert: update content: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revert: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
	}

	return nil
}

// Versions returns all versions for an entry ordered by version_number
// descending (newest first).
//
// Returns an empty slice (not nil) if the entry has no committed versions.
func (s *Store) Versions(ctx context.Context, entryID string) ([]journal.EntryVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry_id, version_number, content_snapshot, checksum, commit_message, committed_at
		FROM entry_versions
		WHERE entry_id = ?
		ORDER BY version_number DESC
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	var versions []journal.EntryVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}

	// Return empty slice instead of nil
	if versions == nil {
		versions = []journal.EntryVersion{}
	}

	return versions, nil
}

// LatestVersion returns the entry's highest-numbered version, or nil if the
// entry has no committed versions.
func (s *Store) LatestVersion(ctx context.Context, entryID string) (*journal.EntryVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, entry_id, version_number, content_snapshot, checksum, commit_message, committed_at
		FROM entry_versions
		WHERE entry_id = ?
		ORDER BY version_number DESC
		LIMIT 1
	`, entryID)

	v, err := scanVersionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read latest version: %w", err)
	}
	return &v, nil
}

// VersionByNumber returns a specific version of an entry, or nil if no
// version with that number exists.
func (s *Store) VersionByNumber(ctx context.Context, entryID string, versionNumber int64) (*journal.EntryVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, entry_id, version_number, content_snapshot, checksum, commit_message, committed_at
		FROM entry_versions
		WHERE entry_id = ? AND version_number = ?
	`, entryID, versionNumber)

	v, err := scanVersionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	return &v, nil
}

// scanVersion scans a row into an EntryVersion struct.
func scanVersion(rows *sql.Rows) (journal.EntryVersion, error) {
	var v journal.EntryVersion
	var snapshotText string
	var message sql.NullString

	if err := rows.Scan(
		&v.ID, &v.EntryID, &v.VersionNumber, &snapshotText,
		&v.Checksum, &message, &v.CommittedAt,
	); err != nil {
		return journal.EntryVersion{}, fmt.Errorf("scan version: %w", err)
	}

	v.ContentSnapshot = journal.DecodeDocument(snapshotText)
	v.CommitMessage = stringPtr(message)

	return v, nil
}

// scanVersionRow scans a single row into an EntryVersion struct.
func scanVersionRow(row *sql.Row) (journal.EntryVersion, error) {
	var v journal.EntryVersion
	var snapshotText string
	var message sql.NullString

	if err := row.Scan(
		&v.ID, &v.EntryID, &v.VersionNumber, &snapshotText,
		&v.Checksum, &message, &v.CommittedAt,
	); err != nil {
		return journal.EntryVersion{}, err
	}

	v.ContentSnapshot = journal.DecodeDocument(snapshotText)
	v.CommitMessage = stringPtr(message)

	return v, nil
}
