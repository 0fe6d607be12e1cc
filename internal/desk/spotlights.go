package desk

import (
	"context"
	"fmt"

	"github.com/koipond/inkwell/internal/journal"
)

// AddSpotlight saves a text selection within an entry. Offsets must satisfy
// 0 <= start < end; they are stored verbatim and may drift as the entry is
// edited.
func (d *Desk) AddSpotlight(ctx context.Context, entryID, contextText, highlightedText string, startOffset, endOffset int64) (journal.Spotlight, error) {
	if startOffset < 0 || startOffset >= endOffset {
		return journal.Spotlight{}, fmt.Errorf("invalid spotlight offsets [%d, %d)", startOffset, endOffset)
	}

	spot := journal.Spotlight{
		ID:              d.ids.Generate(),
		EntryID:         entryID,
		ContextText:     contextText,
		HighlightedText: highlightedText,
		StartOffset:     startOffset,
		EndOffset:       endOffset,
	}
	if err := d.store.CreateSpotlight(ctx, spot); err != nil {
		return journal.Spotlight{}, err
	}
	return spot, nil
}

// Spotlights lists an entry's saved selections by ascending start offset.
func (d *Desk) Spotlights(ctx context.Context, entryID string) ([]journal.Spotlight, error) {
	return d.store.EntrySpotlights(ctx, entryID)
}

// RemoveSpotlight deletes a saved selection.
func (d *Desk) RemoveSpotlight(ctx context.Context, id string) error {
	return d.store.DeleteSpotlight(ctx, id)
}
