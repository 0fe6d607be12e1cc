// Package desk implements the inkwell operation surface.
//
// The desk is the layer the CLI and harness dispatch to - it composes the
// store, the directive registry, and the bridge codec into whole operations
// (create, stage, commit, export, absorb) and owns id and timestamp
// generation so the store persists exactly what it is given.
//
// THE BRIDGE PROTOCOL:
//
// Export:
// 1. Resolve the directive (unknown names fail before anything is written)
// 2. Load the stream's staged entries in sequence order (error if none)
// 3. Freeze the staged id list into a PendingBlock with a fresh 4-char key
// 4. Render the bundle: instruction, entries, spotlight excerpts, marker
// Staging survives export; re-exporting leaves multiple pending blocks.
//
// Absorb:
// 1. Extract the marker key from the pasted text (error if no marker)
// 2. Load the stream's latest pending block (error if none outstanding)
// 3. Compare keys case-insensitively; a mismatch names both keys
// 4. Record an ai entry carrying the block's frozen ids as parents
// 5. Delete the block and clear the stream's staging
//
// Only the latest block per stream is active for matching. Older blocks
// stay until absorbed out of order fails their key check and the user
// discards them explicitly.
//
// DETERMINISM:
//
// Clock, IDGenerator, and bridge.KeySource are injected. Production wires
// wall-clock ms, UUIDv7, and math/rand; the harness wires stepping and
// sequential sources so identical scenarios produce identical transcripts.
package desk
