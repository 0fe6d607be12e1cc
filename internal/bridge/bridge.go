package bridge

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
)

// KeyLength is the number of characters in a generated bridge key.
const KeyLength = 4

// keyAlphabet is the 36-symbol alphabet keys are drawn from.
const keyAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// markerPattern recognizes the bridge marker in free-form pasted text.
// Opening bracket may be literal or the &lt; entity (rich-text editors
// escape angle brackets), same for the closing bracket. Literal tokens
// match case-insensitively; the key capture is one or more alphanumerics.
// Compiled once at package initialization.
var markerPattern = regexp.MustCompile(`(?i)(?:<|&lt;)!--\s*bridge\s*:\s*([a-zA-Z0-9]+)\s*--(?:>|&gt;)`)

// KeySource produces bridge keys. Production code uses RandomKeySource;
// tests use FixedKeySource for deterministic output.
type KeySource interface {
	Generate() string
}

// RandomKeySource draws keys uniformly from the key alphabet.
//
// No uniqueness check is made against outstanding keys: with 36^4 possible
// keys, collisions between concurrently pending blocks are possible and the
// correlation logic tolerates them.
//
// Thread-safety: stateless and safe for concurrent use (math/rand's
// global functions are goroutine-safe).
type RandomKeySource struct{}

// Generate returns a fresh 4-character lowercase alphanumeric key.
func (RandomKeySource) Generate() string {
	b := make([]byte, KeyLength)
	for i := range b {
		b[i] = keyAlphabet[rand.Intn(len(keyAlphabet))]
	}
	return string(b)
}

// FixedKeySource returns predetermined keys in order, for tests.
//
// Panics when exhausted, to fail fast on test misconfiguration.
type FixedKeySource struct {
	mu   sync.Mutex
	keys []string
	idx  int
}

// NewFixedKeySource creates a source that returns keys in order.
func NewFixedKeySource(keys ...string) *FixedKeySource {
	return &FixedKeySource{keys: keys}
}

// Generate returns the next predetermined key.
func (s *FixedKeySource) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idx >= len(s.keys) {
		panic("FixedKeySource: all keys exhausted")
	}
	key := s.keys[s.idx]
	s.idx++
	return key
}

// Extract scans text for the first bridge marker and returns the embedded
// key, lower-cased. The second return is false when no marker is present.
func Extract(text string) (string, bool) {
	m := markerPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

// Validate reports whether text contains a marker whose key equals
// expectedKey, compared case-insensitively. Text without any marker never
// validates.
func Validate(text, expectedKey string) bool {
	key, ok := Extract(text)
	if !ok {
		return false
	}
	return key == strings.ToLower(expectedKey)
}

// Marker renders the canonical marker form for a key, suitable for
// embedding at the end of an export bundle. Extract recognizes it.
func Marker(key string) string {
	return fmt.Sprintf("<!-- bridge: %s -->", key)
}
