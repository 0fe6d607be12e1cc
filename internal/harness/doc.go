// Package harness runs YAML-scripted scenarios against a real desk backed
// by an in-memory database, producing deterministic transcripts for golden
// file comparison.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: critique_loop
//	description: "Stage two entries, export a critique, absorb the reply."
//	steps:
//	  - op: create_stream
//	    title: Lighthouse Notes
//	    as: notes
//	  - op: create_entry
//	    stream: notes
//	    text: "The lamp went dark."
//	    as: e1
//	  - op: stage
//	    entry: e1
//	  - op: export
//	    stream: notes
//	    directive: critique
//	    as: block
//	  - op: absorb
//	    stream: notes
//	    reply: "The draft never says who tends the lamp."
//	    marker: block
//	    as: reply
//	asserts:
//	  - check: staged_count
//	    stream: notes
//	    want: 0
//	  - check: parents
//	    entry: reply
//	    entries: [e1]
//
// # Handles
//
// Record ids are generated, so steps never name them directly. A step with
// an "as" field binds the created record's id to that handle; later steps
// and asserts reference the handle. Binding the same handle twice is an
// error.
//
// An absorb step's "marker" field selects what marker the pasted reply
// carries: a block handle appends that export's marker, "wrong" appends a
// marker with a key no export issued, and "none" appends no marker at all.
//
// # Steps
//
// Supported ops: create_stream, create_entry, set_content, stage, unstage,
// unstage_all, commit, revert, export, absorb, discard.
//
// A step with an "expect_error" field must fail with that error; the run
// aborts if it succeeds or fails differently. Supported codes: NOT_FOUND,
// UNKNOWN_DIRECTIVE, NOTHING_STAGED, NO_PENDING_BLOCK, NO_MARKER,
// KEY_MISMATCH.
//
// # Checks
//
// Asserts run against the final state after every step has executed:
//
//   - staged_count: a stream's staged entries
//   - pending_count: a stream's outstanding pending blocks
//   - entry_count: a stream's entries
//   - version_head: an entry's committed head number
//   - content_text: an entry's exact current text
//   - parents: an entry's parent context ids, as handles, in order
//
// # Determinism
//
// Each run gets a fresh in-memory database, a stepping millisecond clock,
// sequential record ids, and a fixed bridge key pool sized to the
// scenario's export steps. Identical scenarios therefore produce identical
// transcripts, which goldie compares against testdata/golden.
package harness
