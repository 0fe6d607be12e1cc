package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/koipond/inkwell/internal/journal"
)

// EntryAudit is the verification result for one entry's version chain.
type EntryAudit struct {
	EntryID      string
	StreamID     string
	VersionHead  int64
	VersionCount int
	MissingNums  []int64 // gaps in the 1..N sequence
	HeadMismatch bool    // version_head != highest stored number
	BadChecksums []int64 // versions whose recomputed checksum differs
	Clean        bool
}

// AuditReport summarizes a whole-database integrity check.
type AuditReport struct {
	EntriesChecked  int
	CleanEntries    int
	Findings        []EntryAudit // entries with at least one problem
	PendingChecked  int
	DanglingRefs    int // staged ids in pending blocks whose entry is gone
}

// AuditEntry verifies a single entry's version chain: numbers must be
// contiguous from 1, version_head must equal the highest stored number,
// and every snapshot must hash to its recorded checksum.
// Returns ErrNotFound if the entry does not exist.
func (s *Store) AuditEntry(ctx context.Context, entryID string) (EntryAudit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var streamID string
	var head int64
	err := s.db.QueryRowContext(ctx, `
		SELECT stream_id, version_head FROM entries WHERE id = ?
	`, entryID).Scan(&streamID, &head)
	if errors.Is(err, sql.ErrNoRows) {
		return EntryAudit{}, fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
	}
	if err != nil {
		return EntryAudit{}, fmt.Errorf("audit entry: %w", err)
	}

	return s.auditEntryLocked(ctx, entryID, streamID, head)
}

// Audit runs AuditEntry over every entry in the database and checks every
// pending block's frozen id list for references to deleted entries.
// Dangling references are reported, not repaired: absorb skips them at
// read time, so they are informational.
func (s *Store) Audit(ctx context.Context) (AuditReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report AuditReport

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stream_id, version_head FROM entries ORDER BY stream_id, sequence_id
	`)
	if err != nil {
		return report, fmt.Errorf("audit: query entries: %w", err)
	}

	type target struct {
		id       string
		streamID string
		head     int64
	}
	var targets []target
	for rows.Next() {
		var t target
		if err := rows.Scan(&t.id, &t.streamID, &t.head); err != nil {
			rows.Close()
			return report, fmt.Errorf("audit: scan entry: %w", err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return report, fmt.Errorf("audit: iterate entries: %w", err)
	}
	rows.Close()

	for _, t := range targets {
		audit, err := s.auditEntryLocked(ctx, t.id, t.streamID, t.head)
		if err != nil {
			return report, err
		}
		report.EntriesChecked++
		if audit.Clean {
			report.CleanEntries++
		} else {
			report.Findings = append(report.Findings, audit)
		}
	}

	dangling, pending, err := s.auditPendingLocked(ctx)
	if err != nil {
		return report, err
	}
	report.PendingChecked = pending
	report.DanglingRefs = dangling

	return report, nil
}

// auditEntryLocked assumes s.mu is held.
func (s *Store) auditEntryLocked(ctx context.Context, entryID, streamID string, head int64) (EntryAudit, error) {
	audit := EntryAudit{
		EntryID:     entryID,
		StreamID:    streamID,
		VersionHead: head,
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT version_number, content_snapshot, checksum
		FROM entry_versions
		WHERE entry_id = ?
		ORDER BY version_number ASC
	`, entryID)
	if err != nil {
		return audit, fmt.Errorf("audit entry versions: %w", err)
	}
	defer rows.Close()

	var highest int64
	expect := int64(1)
	for rows.Next() {
		var num int64
		var snapshot, checksum string
		if err := rows.Scan(&num, &snapshot, &checksum); err != nil {
			return audit, fmt.Errorf("audit scan version: %w", err)
		}
		audit.VersionCount++

		for expect < num {
			audit.MissingNums = append(audit.MissingNums, expect)
			expect++
		}
		expect = num + 1
		highest = num

		doc := journal.DecodeDocument(snapshot)
		if journal.SnapshotChecksum(doc) != checksum {
			audit.BadChecksums = append(audit.BadChecksums, num)
		}
	}
	if err := rows.Err(); err != nil {
		return audit, fmt.Errorf("audit iterate versions: %w", err)
	}

	audit.HeadMismatch = head != highest
	audit.Clean = !audit.HeadMismatch && len(audit.MissingNums) == 0 && len(audit.BadChecksums) == 0

	return audit, nil
}

// auditPendingLocked assumes s.mu is held. Counts frozen staged ids that
// no longer resolve to an entry.
func (s *Store) auditPendingLocked(ctx context.Context) (dangling, checked int, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT staged_context_ids FROM pending_blocks`)
	if err != nil {
		return 0, 0, fmt.Errorf("audit: query pending blocks: %w", err)
	}

	var idLists [][]string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			rows.Close()
			return 0, 0, fmt.Errorf("audit: scan pending block: %w", err)
		}
		idLists = append(idLists, unmarshalRequiredIDList(raw))
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, 0, fmt.Errorf("audit: iterate pending blocks: %w", err)
	}
	rows.Close()

	for _, ids := range idLists {
		for _, id := range ids {
			var exists int
			if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE id = ?`, id).Scan(&exists); err != nil {
				return 0, 0, fmt.Errorf("audit: check staged ref: %w", err)
			}
			if exists == 0 {
				dangling++
			}
		}
	}

	return dangling, len(idLists), nil
}
