package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/koipond/inkwell/internal/journal"
)

// createTestStore creates a file-backed store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestStream inserts a stream with minimal required fields.
func createTestStream(t *testing.T, s *Store, id, title string) journal.Stream {
	t.Helper()
	stream := journal.Stream{
		ID:        id,
		Title:     title,
		Tags:      []string{},
		CreatedAt: 1000,
		UpdatedAt: 1000,
	}
	if err := s.CreateStream(context.Background(), stream); err != nil {
		t.Fatalf("CreateStream(%s) failed: %v", id, err)
	}
	return stream
}

// createTestEntry inserts a user entry whose content is a single paragraph
// of the given text. Returns the entry with its assigned sequence_id.
func createTestEntry(t *testing.T, s *Store, id, streamID, text string) journal.Entry {
	t.Helper()
	entry := journal.Entry{
		ID:        id,
		StreamID:  streamID,
		Role:      journal.RoleUser,
		Content:   journal.TextDocument(text),
		CreatedAt: 2000,
		UpdatedAt: 2000,
	}
	created, err := s.CreateEntry(context.Background(), entry)
	if err != nil {
		t.Fatalf("CreateEntry(%s) failed: %v", id, err)
	}
	return created
}

// createTestProfile inserts a profile with minimal required fields.
func createTestProfile(t *testing.T, s *Store, id, name string, isDefault bool) journal.Profile {
	t.Helper()
	profile := journal.Profile{
		ID:        id,
		Name:      name,
		Provider:  "openai",
		Model:     "gpt-4o",
		IsDefault: isDefault,
		CreatedAt: 1000,
		UpdatedAt: 1000,
	}
	if err := s.CreateProfile(context.Background(), profile); err != nil {
		t.Fatalf("CreateProfile(%s) failed: %v", id, err)
	}
	return profile
}

// commitTestVersion commits the entry's current content as its next version.
func commitTestVersion(t *testing.T, s *Store, entryID string, n int) journal.EntryVersion {
	t.Helper()
	v, err := s.CommitVersion(context.Background(), entryID, fmt.Sprintf("ver-%s-%d", entryID, n), nil, 3000+int64(n))
	if err != nil {
		t.Fatalf("CommitVersion(%s) failed: %v", entryID, err)
	}
	return v
}
