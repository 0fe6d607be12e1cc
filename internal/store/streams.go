package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/koipond/inkwell/internal/journal"
)

// CreateStream inserts a stream record. The caller supplies identity and
// timestamps; the store writes the row verbatim.
func (s *Store) CreateStream(ctx context.Context, stream journal.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tagsJSON, err := marshalTags(stream.Tags)
	if err != nil {
		return fmt.Errorf("create stream: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO streams (id, title, description, tags, color, pinned, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		stream.ID,
		stream.Title,
		nullString(stream.Description),
		tagsJSON,
		nullString(stream.Color),
		stream.Pinned,
		stream.CreatedAt,
		stream.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stream: %w", err)
	}

	return nil
}

// Stream retrieves a single stream by id.
// Returns ErrNotFound if no such stream exists.
func (s *Store) Stream(ctx context.Context, id string) (journal.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.streamLocked(ctx, id)
}

// streamLocked reads a stream row. Caller must hold s.mu.
func (s *Store) streamLocked(ctx context.Context, id string) (journal.Stream, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, tags, color, pinned, created_at, updated_at
		FROM streams
		WHERE id = ?
	`, id)

	stream, err := scanStreamRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return journal.Stream{}, fmt.Errorf("stream %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return journal.Stream{}, fmt.Errorf("read stream: %w", err)
	}
	return stream, nil
}

// Streams returns list projections of all streams with their entry counts,
// ordered pinned first, then most recently updated.
//
// Returns an empty slice (not nil) if no streams exist.
func (s *Store) Streams(ctx context.Context) ([]journal.StreamSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.title, COUNT(e.id), s.updated_at, s.pinned, s.color, s.tags
		FROM streams s
		LEFT JOIN entries e ON e.stream_id = s.id
		GROUP BY s.id
		ORDER BY s.pinned DESC, s.updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query streams: %w", err)
	}
	defer rows.Close()

	var summaries []journal.StreamSummary
	for rows.Next() {
		var sum journal.StreamSummary
		var color sql.NullString
		var tagsJSON string
		if err := rows.Scan(
			&sum.ID, &sum.Title, &sum.EntryCount, &sum.LastUpdated,
			&sum.Pinned, &color, &tagsJSON,
		); err != nil {
			return nil, fmt.Errorf("scan stream summary: %w", err)
		}
		sum.Color = stringPtr(color)
		sum.Tags = unmarshalTags(tagsJSON)
		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate streams: %w", err)
	}

	// Return empty slice instead of nil
	if summaries == nil {
		summaries = []journal.StreamSummary{}
	}

	return summaries, nil
}

// StreamDetails returns a stream and its entries ordered by sequence_id
// ascending, as one logical operation under the store lock.
// Returns ErrNotFound if the stream does not exist.
func (s *Store) StreamDetails(ctx context.Context, id string) (journal.Stream, []journal.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream, err := s.streamLocked(ctx, id)
	if err != nil {
		return journal.Stream{}, nil, err
	}

	entries, err := s.streamEntriesLocked(ctx, id)
	if err != nil {
		return journal.Stream{}, nil, err
	}

	return stream, entries, nil
}

// StreamUpdate holds the partial-update fields for UpdateStream.
// Nil fields are left untouched.
type StreamUpdate struct {
	Title       *string
	Description *string
	Pinned      *bool
}

// UpdateStream applies the provided fields and refreshes updated_at.
// Returns ErrNotFound if the stream does not exist.
func (s *Store) UpdateStream(ctx context.Context, id string, upd StreamUpdate, now int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE streams
		SET title       = COALESCE(?, title),
		    description = COALESCE(?, description),
		    pinned      = COALESCE(?, pinned),
		    updated_at  = ?
		WHERE id = ?
	`,
		nullString(upd.Title),
		nullString(upd.Description),
		nullBool(upd.Pinned),
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("update stream: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update stream: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("stream %s: %w", id, ErrNotFound)
	}

	return nil
}

// DeleteStream removes a stream. Foreign keys cascade the delete to its
// entries (and through them versions and spotlights) and pending blocks.
// Returns ErrNotFound if the stream does not exist.
func (s *Store) DeleteStream(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM streams WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete stream: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete stream: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("stream %s: %w", id, ErrNotFound)
	}

	return nil
}

// CountStreams reports how many streams exist. Used for first-run seeding.
func (s *Store) CountStreams(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM streams`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count streams: %w", err)
	}
	return count, nil
}

// execer covers both *sql.DB and *sql.Tx for helpers shared across
// transactional and direct paths.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// touchStream advances a stream's updated_at. Advisory metadata only;
// callers run it outside the invariant-carrying transaction per the crash
// model. Caller must hold s.mu.
func touchStream(ctx context.Context, db execer, streamID string, now int64) error {
	if _, err := db.ExecContext(ctx, `UPDATE streams SET updated_at = ? WHERE id = ?`, now, streamID); err != nil {
		return fmt.Errorf("touch stream: %w", err)
	}
	return nil
}

// scanStreamRow scans a single row into a Stream struct.
func scanStreamRow(row *sql.Row) (journal.Stream, error) {
	var stream journal.Stream
	var description, color sql.NullString
	var tagsJSON string

	if err := row.Scan(
		&stream.ID, &stream.Title, &description, &tagsJSON,
		&color, &stream.Pinned, &stream.CreatedAt, &stream.UpdatedAt,
	); err != nil {
		return journal.Stream{}, err
	}

	stream.Description = stringPtr(description)
	stream.Color = stringPtr(color)
	stream.Tags = unmarshalTags(tagsJSON)

	return stream, nil
}

// nullBool converts an optional bool to its storage form.
func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
