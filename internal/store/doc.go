// Package store provides SQLite-backed durable storage for inkwell.
//
// The store holds the writing desk's whole state:
//   - Streams: named containers of entries
//   - Entries: content blocks with staging flags and version heads
//   - Entry Versions: immutable numbered content snapshots
//   - Pending Blocks: outstanding exports awaiting a pasted response
//   - Profiles and Spotlights: relay metadata and saved selections
//
// # Access Model
//
// Every exported method acquires the store mutex for its full duration and
// the pool is pinned to a single connection, so at most one logical
// operation proceeds at a time system-wide. Multi-statement invariants
// (version insert + head update) additionally run inside a transaction;
// advisory side effects (parent stream timestamp touches) deliberately do
// not, so a crash between statements can leave them stale.
//
// # Invariants
//
//   - Version numbers per entry are contiguous 1..N; the highest always
//     equals the entry's version_head when a commit begins
//   - Reverting restores snapshot content without touching version_head
//   - sequence_id values within a stream are unique and strictly increasing
//     in creation order, assigned under the store lock
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce cascade deletes
//
// # Error and Decode Policy
//
// Missing rows surface as ErrNotFound wrapped with context. Stored JSON
// side-channel fields (tags, id lists, ai metadata, content) decode
// leniently: malformed text yields the zero value, never a read error.
package store
