package desk

import (
	"context"
	"log/slog"

	"github.com/koipond/inkwell/internal/journal"
	"github.com/koipond/inkwell/internal/store"
)

// CreateProfile creates a relay profile. When isDefault is true, every
// other profile is demoted in the same transaction.
func (d *Desk) CreateProfile(ctx context.Context, name, provider, model string, isDefault bool) (journal.Profile, error) {
	now := d.clock.Now()
	profile := journal.Profile{
		ID:        d.ids.Generate(),
		Name:      name,
		Provider:  provider,
		Model:     model,
		IsDefault: isDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := d.store.CreateProfile(ctx, profile); err != nil {
		return journal.Profile{}, err
	}
	slog.Debug("profile created", "profile", profile.ID, "name", name, "default", isDefault)
	return profile, nil
}

// Profile retrieves a profile by id.
func (d *Desk) Profile(ctx context.Context, id string) (journal.Profile, error) {
	return d.store.Profile(ctx, id)
}

// Profiles lists every profile in creation order.
func (d *Desk) Profiles(ctx context.Context) ([]journal.Profile, error) {
	return d.store.Profiles(ctx)
}

// DefaultProfile returns the default profile, nil if none is set.
func (d *Desk) DefaultProfile(ctx context.Context) (*journal.Profile, error) {
	return d.store.DefaultProfile(ctx)
}

// UpdateProfile applies a partial update; promoting to default demotes the
// others.
func (d *Desk) UpdateProfile(ctx context.Context, id string, upd store.ProfileUpdate) error {
	return d.store.UpdateProfile(ctx, id, upd, d.clock.Now())
}

// DeleteProfile removes a profile. Entries that referenced it keep working
// with their profile link cleared.
func (d *Desk) DeleteProfile(ctx context.Context, id string) error {
	return d.store.DeleteProfile(ctx, id)
}

// ProfileEntryCount reports how many entries reference a profile.
func (d *Desk) ProfileEntryCount(ctx context.Context, id string) (int64, error) {
	return d.store.ProfileEntryCount(ctx, id)
}
