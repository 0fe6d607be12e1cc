package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/koipond/inkwell/internal/journal"
)

// marshalTags converts a tag list to JSON TEXT for storage.
// A nil or empty list stores as "[]" so the column never holds NULL.
func marshalTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("marshal tags: %w", err)
	}
	return string(data), nil
}

// unmarshalTags parses stored tag JSON leniently: malformed text yields an
// empty list rather than an error, so a corrupt side-channel field never
// blocks reading the row.
func unmarshalTags(data string) []string {
	if data == "" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(data), &tags); err != nil {
		return []string{}
	}
	if tags == nil {
		tags = []string{}
	}
	return tags
}

// marshalIDList converts an id list to JSON TEXT.
// Used for pending_blocks.staged_context_ids and entries.parent_context_ids.
// The pending-block column is NOT NULL, so an empty list stores as "[]".
func marshalIDList(ids []string) (string, error) {
	if len(ids) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("marshal id list: %w", err)
	}
	return string(data), nil
}

// marshalOptionalIDList is marshalIDList for nullable columns: an empty list
// stores as NULL instead of "[]".
func marshalOptionalIDList(ids []string) (sql.NullString, error) {
	if len(ids) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal id list: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalIDList parses a stored id list leniently. NULL, empty, and
// malformed text all yield nil.
func unmarshalIDList(data sql.NullString) []string {
	if !data.Valid || data.String == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(data.String), &ids); err != nil {
		return nil
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}

// unmarshalRequiredIDList is unmarshalIDList for NOT NULL columns. Returns an
// empty slice instead of nil so callers can range without nil checks.
func unmarshalRequiredIDList(data string) []string {
	ids := unmarshalIDList(sql.NullString{String: data, Valid: true})
	if ids == nil {
		return []string{}
	}
	return ids
}

// marshalAIMetadata converts relay metadata to JSON TEXT, NULL when absent.
func marshalAIMetadata(meta *journal.AIMetadata) (sql.NullString, error) {
	if meta == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal ai metadata: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalAIMetadata parses stored relay metadata leniently: NULL or
// malformed text yields nil.
func unmarshalAIMetadata(data sql.NullString) *journal.AIMetadata {
	if !data.Valid || data.String == "" {
		return nil
	}
	var meta journal.AIMetadata
	if err := json.Unmarshal([]byte(data.String), &meta); err != nil {
		return nil
	}
	return &meta
}

// nullString converts an optional string to its storage form.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// stringPtr converts a scanned nullable column back to an optional string.
func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
