package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/koipond/inkwell/internal/journal"
)

// CreatePendingBlock records an outstanding export. The staged id list is
// stored verbatim as supplied by the caller - it is a frozen snapshot,
// unaffected by later staging changes. A stream may accumulate any number
// of pending blocks.
// Returns ErrNotFound if the stream does not exist.
func (s *Store) CreatePendingBlock(ctx context.Context, block journal.PendingBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idsJSON, err := marshalIDList(block.StagedContextIDs)
	if err != nil {
		return fmt.Errorf("create pending block: %w", err)
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM streams WHERE id = ?`, block.StreamID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("create pending block: check stream: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("stream %s: %w", block.StreamID, ErrNotFound)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pending_blocks (id, stream_id, bridge_key, staged_context_ids, directive, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		block.ID,
		block.StreamID,
		block.BridgeKey,
		idsJSON,
		block.Directive,
		block.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create pending block: %w", err)
	}

	return nil
}

// PendingBlock retrieves a single pending block by id.
// Returns ErrNotFound if no such block exists.
func (s *Store) PendingBlock(ctx context.Context, id string) (journal.PendingBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, stream_id, bridge_key, staged_context_ids, directive, created_at
		FROM pending_blocks
		WHERE id = ?
	`, id)

	block, err := scanPendingBlockRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return journal.PendingBlock{}, fmt.Errorf("pending block %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return journal.PendingBlock{}, fmt.Errorf("read pending block: %w", err)
	}
	return block, nil
}

// LatestPendingBlock returns the stream's most recently created pending
// block - the one a freshly pasted response is checked against - or nil if
// none are outstanding. Rowid breaks created_at ties in favor of the later
// insert.
func (s *Store) LatestPendingBlock(ctx context.Context, streamID string) (*journal.PendingBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, stream_id, bridge_key, staged_context_ids, directive, created_at
		FROM pending_blocks
		WHERE stream_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, streamID)

	block, err := scanPendingBlockRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read latest pending block: %w", err)
	}
	return &block, nil
}

// StreamPendingBlocks returns all outstanding blocks for a stream, newest
// first.
//
// Returns an empty slice (not nil) if none exist.
func (s *Store) StreamPendingBlocks(ctx context.Context, streamID string) ([]journal.PendingBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stream_id, bridge_key, staged_context_ids, directive, created_at
		FROM pending_blocks
		WHERE stream_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, streamID)
	if err != nil {
		return nil, fmt.Errorf("query pending blocks: %w", err)
	}
	defer rows.Close()

	var blocks []journal.PendingBlock
	for rows.Next() {
		block, err := scanPendingBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending blocks: %w", err)
	}

	// Return empty slice instead of nil
	if blocks == nil {
		blocks = []journal.PendingBlock{}
	}

	return blocks, nil
}

// DeletePendingBlock removes a consumed or abandoned block. No cascading
// side effects on entries.
// Returns ErrNotFound if the block does not exist.
func (s *Store) DeletePendingBlock(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM pending_blocks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pending block: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete pending block: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("pending block %s: %w", id, ErrNotFound)
	}

	return nil
}

// scanPendingBlock scans a row into a PendingBlock struct.
func scanPendingBlock(rows *sql.Rows) (journal.PendingBlock, error) {
	var block journal.PendingBlock
	var idsJSON string

	if err := rows.Scan(
		&block.ID, &block.StreamID, &block.BridgeKey, &idsJSON,
		&block.Directive, &block.CreatedAt,
	); err != nil {
		return journal.PendingBlock{}, fmt.Errorf("scan pending block: %w", err)
	}

	block.StagedContextIDs = unmarshalRequiredIDList(idsJSON)

	return block, nil
}

// scanPendingBlockRow scans a single row into a PendingBlock struct.
func scanPendingBlockRow(row *sql.Row) (journal.PendingBlock, error) {
	var block journal.PendingBlock
	var idsJSON string

	if err := row.Scan(
		&block.ID, &block.StreamID, &block.BridgeKey, &idsJSON,
		&block.Directive, &block.CreatedAt,
	); err != nil {
		return journal.PendingBlock{}, err
	}

	block.StagedContextIDs = unmarshalRequiredIDList(idsJSON)

	return block, nil
}
