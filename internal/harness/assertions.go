package harness

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
)

// AssertError is returned when a final-state check fails.
type AssertError struct {
	Check    string // Check name for categorization
	Target   string // Handle the check addressed
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertError) Error() string {
	return fmt.Sprintf("check %s (%s): expected %s, got %s", e.Check, e.Target, e.Expected, e.Actual)
}

// evaluate runs one final-state check against the desk.
func (h *Harness) evaluate(ctx context.Context, a Assert) error {
	switch a.Check {
	case CheckStagedCount:
		streamID, err := h.id(a.Stream)
		if err != nil {
			return err
		}
		staged, err := h.desk.StagedEntries(ctx, streamID)
		if err != nil {
			return err
		}
		return wantCount(a, a.Stream, int64(len(staged)))

	case CheckPendingCount:
		streamID, err := h.id(a.Stream)
		if err != nil {
			return err
		}
		blocks, err := h.desk.PendingBlocks(ctx, streamID)
		if err != nil {
			return err
		}
		return wantCount(a, a.Stream, int64(len(blocks)))

	case CheckEntryCount:
		streamID, err := h.id(a.Stream)
		if err != nil {
			return err
		}
		_, entries, err := h.desk.StreamDetails(ctx, streamID)
		if err != nil {
			return err
		}
		return wantCount(a, a.Stream, int64(len(entries)))

	case CheckVersionHead:
		entryID, err := h.id(a.Entry)
		if err != nil {
			return err
		}
		entry, err := h.desk.Entry(ctx, entryID)
		if err != nil {
			return err
		}
		return wantCount(a, a.Entry, entry.VersionHead)

	case CheckContentText:
		entryID, err := h.id(a.Entry)
		if err != nil {
			return err
		}
		entry, err := h.desk.Entry(ctx, entryID)
		if err != nil {
			return err
		}
		if got := entry.Content.PlainText(); got != a.Text {
			return &AssertError{
				Check:    a.Check,
				Target:   a.Entry,
				Expected: strconv.Quote(a.Text),
				Actual:   strconv.Quote(got),
			}
		}
		return nil

	case CheckParents:
		entryID, err := h.id(a.Entry)
		if err != nil {
			return err
		}
		entry, err := h.desk.Entry(ctx, entryID)
		if err != nil {
			return err
		}
		want := make([]string, len(a.Entries))
		for i, handle := range a.Entries {
			id, err := h.id(handle)
			if err != nil {
				return err
			}
			want[i] = id
		}
		if !reflect.DeepEqual(entry.ParentContextIDs, want) {
			return &AssertError{
				Check:    a.Check,
				Target:   a.Entry,
				Expected: fmt.Sprintf("%v", want),
				Actual:   fmt.Sprintf("%v", entry.ParentContextIDs),
			}
		}
		return nil
	}

	return fmt.Errorf("unknown check %q", a.Check)
}

// wantCount compares a counter against the assert's want.
func wantCount(a Assert, target string, got int64) error {
	if got != a.Want {
		return &AssertError{
			Check:    a.Check,
			Target:   target,
			Expected: strconv.FormatInt(a.Want, 10),
			Actual:   strconv.FormatInt(got, 10),
		}
	}
	return nil
}
