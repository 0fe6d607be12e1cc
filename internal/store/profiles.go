package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/koipond/inkwell/internal/journal"
)

// CreateProfile inserts an AI service profile. When the new profile is the
// default, every other profile is demoted in the same transaction so at
// most one default exists at any time.
func (s *Store) CreateProfile(ctx context.Context, profile journal.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create profile: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if profile.IsDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE profiles SET is_default = 0 WHERE is_default = 1`); err != nil {
			return fmt.Errorf("create profile: demote defaults: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (id, name, provider, model, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		profile.ID,
		profile.Name,
		profile.Provider,
		profile.Model,
		profile.IsDefault,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create profile: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create profile: commit: %w", err)
	}

	return nil
}

// Profile retrieves a single profile by id.
// Returns ErrNotFound if no such profile exists.
func (s *Store) Profile(ctx context.Context, id string) (journal.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, provider, model, is_default, created_at, updated_at
		FROM profiles
		WHERE id = ?
	`, id)

	profile, err := scanProfileRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return journal.Profile{}, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return journal.Profile{}, fmt.Errorf("read profile: %w", err)
	}
	return profile, nil
}

// Profiles returns all profiles ordered by creation time ascending.
//
// Returns an empty slice (not nil) if none exist.
func (s *Store) Profiles(ctx context.Context) ([]journal.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, provider, model, is_default, created_at, updated_at
		FROM profiles
		ORDER BY created_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []journal.Profile
	for rows.Next() {
		var p journal.Profile
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Provider, &p.Model,
			&p.IsDefault, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	// Return empty slice instead of nil
	if profiles == nil {
		profiles = []journal.Profile{}
	}

	return profiles, nil
}

// DefaultProfile returns the profile marked default, or nil if none is.
func (s *Store) DefaultProfile(ctx context.Context) (*journal.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, provider, model, is_default, created_at, updated_at
		FROM profiles
		WHERE is_default = 1
		LIMIT 1
	`)

	profile, err := scanProfileRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read default profile: %w", err)
	}
	return &profile, nil
}

// ProfileUpdate holds the partial-update fields for UpdateProfile.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Name      *string
	Provider  *string
	Model     *string
	IsDefault *bool
}

// UpdateProfile applies the provided fields and refreshes updated_at.
// Setting IsDefault true demotes every other profile in the same
// transaction.
// Returns ErrNotFound if the profile does not exist.
func (s *Store) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate, now int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update profile: begin tx: %w", err)
	}
	defer tx.Rollback()

	if upd.IsDefault != nil && *upd.IsDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE profiles SET is_default = 0 WHERE is_default = 1 AND id != ?`, id); err != nil {
			return fmt.Errorf("update profile: demote defaults: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE profiles
		SET name       = COALESCE(?, name),
		    provider   = COALESCE(?, provider),
		    model      = COALESCE(?, model),
		    is_default = COALESCE(?, is_default),
		    updated_at = ?
		WHERE id = ?
	`,
		nullString(upd.Name),
		nullString(upd.Provider),
		nullString(upd.Model),
		nullBool(upd.IsDefault),
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update profile: commit: %w", err)
	}

	return nil
}

// DeleteProfile removes a profile. Entries referencing it keep working:
// their profile_id is set NULL by the foreign key's ON DELETE SET NULL.
// Returns ErrNotFound if the profile does not exist.
func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete profile: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}

	return nil
}

// ProfileEntryCount reports how many entries reference a profile.
func (s *Store) ProfileEntryCount(ctx context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM entries WHERE profile_id = ?
	`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("profile entry count: %w", err)
	}
	return count, nil
}

// scanProfileRow scans a single row into a Profile struct.
func scanProfileRow(row *sql.Row) (journal.Profile, error) {
	var p journal.Profile
	if err := row.Scan(
		&p.ID, &p.Name, &p.Provider, &p.Model,
		&p.IsDefault, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return journal.Profile{}, err
	}
	return p, nil
}
