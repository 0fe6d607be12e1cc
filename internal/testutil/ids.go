package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs hands out "prefix-1", "prefix-2", ... in order. Unlike a
// fixed token list it never exhausts, so a scenario may create any number
// of records without pre-declaring ids.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int64
}

// NewSequentialIDs creates an id source with the given prefix. An empty
// prefix defaults to "id".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "id"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id in sequence.
func (s *SequentialIDs) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", s.prefix, s.n)
}

// Reset rewinds the sequence; the next Generate returns "prefix-1".
func (s *SequentialIDs) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n = 0
}
