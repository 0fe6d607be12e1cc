package desk

import (
	"time"

	"github.com/google/uuid"

	"github.com/koipond/inkwell/internal/bridge"
	"github.com/koipond/inkwell/internal/directive"
	"github.com/koipond/inkwell/internal/store"
)

// Clock supplies timestamps in epoch milliseconds.
// Implemented by SystemClock (production) and testutil.SteppingClock (tests).
type Clock interface {
	Now() int64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time in epoch milliseconds.
func (SystemClock) Now() int64 {
	return time.Now().UnixMilli()
}

// IDGenerator creates identifiers for new records.
// Implemented by UUIDv7Generator (production) and testutil.SequentialIDs
// (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 ids.
//
// UUIDv7 embeds a timestamp in the most significant bits, so ids created
// later sort lexically later. Useful when scanning records by id.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
//
// Panics only if the system entropy source fails, which is unrecoverable.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// DefaultSearchLimit caps search results when no override is configured.
const DefaultSearchLimit = 50

// Desk composes the store, directive registry, and bridge codec into the
// operation surface the CLI and harness dispatch to. The desk owns id and
// timestamp generation; the store persists exactly what it is given.
//
// A Desk is safe for concurrent use: it holds no mutable state of its own
// and the store serializes every operation.
type Desk struct {
	store       *store.Store
	directives  *directive.Registry
	clock       Clock
	ids         IDGenerator
	keys        bridge.KeySource
	searchLimit int
}

// Option configures a Desk.
type Option func(*Desk)

// WithClock replaces the system clock, for deterministic tests.
func WithClock(c Clock) Option {
	return func(d *Desk) { d.clock = c }
}

// WithIDGenerator replaces the UUIDv7 id source.
func WithIDGenerator(g IDGenerator) Option {
	return func(d *Desk) { d.ids = g }
}

// WithKeySource replaces the random bridge key source.
func WithKeySource(k bridge.KeySource) Option {
	return func(d *Desk) { d.keys = k }
}

// WithSearchLimit overrides the search result cap. Non-positive values are
// ignored.
func WithSearchLimit(n int) Option {
	return func(d *Desk) {
		if n > 0 {
			d.searchLimit = n
		}
	}
}

// New creates a Desk over the given store and directive registry.
func New(s *store.Store, reg *directive.Registry, opts ...Option) *Desk {
	d := &Desk{
		store:       s,
		directives:  reg,
		clock:       SystemClock{},
		ids:         UUIDv7Generator{},
		keys:        bridge.RandomKeySource{},
		searchLimit: DefaultSearchLimit,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Directives returns every directive known to the desk, sorted by name.
func (d *Desk) Directives() []directive.Directive {
	return d.directives.All()
}
