package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/koipond/inkwell/internal/bridge"
	"github.com/koipond/inkwell/internal/desk"
	"github.com/koipond/inkwell/internal/directive"
	"github.com/koipond/inkwell/internal/journal"
	"github.com/koipond/inkwell/internal/store"
	"github.com/koipond/inkwell/internal/testutil"
)

// wrongKey is the marker key MarkerWrong pastes. The deterministic pool
// only issues keys of the form kNNN, so this never collides.
const wrongKey = "zzzz"

// expectableErrors maps expect_error codes to their error classifiers.
var expectableErrors = map[string]func(error) bool{
	"NOT_FOUND":         func(err error) bool { return errors.Is(err, store.ErrNotFound) },
	"UNKNOWN_DIRECTIVE": func(err error) bool { return errors.Is(err, directive.ErrUnknown) },
	"NOTHING_STAGED":    desk.IsNothingStaged,
	"NO_PENDING_BLOCK":  desk.IsNoPendingBlock,
	"NO_MARKER":         desk.IsNoMarker,
	"KEY_MISMATCH":      desk.IsKeyMismatch,
}

// Harness executes one scenario against one desk.
type Harness struct {
	desk    *desk.Desk
	handles map[string]string

	// blockKeys remembers each exported block's bridge key so absorb
	// steps can reconstruct the marker by block handle.
	blockKeys map[string]string
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with a stepping clock,
// sequential ids, and a fixed bridge key pool, so repeated runs produce
// identical transcripts.
//
// Step failures abort the run with an error unless the step declared them
// via expect_error. Assert failures do not abort; they land in the
// result's Errors with Pass false.
func Run(scenario *Scenario) (*Result, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	reg, err := directive.Builtins()
	if err != nil {
		return nil, fmt.Errorf("failed to load builtin directives: %w", err)
	}

	d := desk.New(st, reg,
		desk.WithClock(testutil.NewSteppingClock(1000, 10)),
		desk.WithIDGenerator(testutil.NewSequentialIDs("id")),
		desk.WithKeySource(bridge.NewFixedKeySource(keyPool(scenario)...)),
	)

	h := &Harness{
		desk:      d,
		handles:   make(map[string]string),
		blockKeys: make(map[string]string),
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		outcome, err := h.executeStep(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
		result.AddStep(TraceEvent{
			Step:    i + 1,
			Op:      step.Op,
			Detail:  stepDetail(step),
			Outcome: outcome,
		})
	}
	result.Handles = h.handles

	for i, a := range scenario.Asserts {
		if err := h.evaluate(ctx, a); err != nil {
			result.AddError(fmt.Sprintf("asserts[%d]: %v", i, err))
		}
	}

	return result, nil
}

// executeStep dispatches one step and renders its outcome line.
func (h *Harness) executeStep(ctx context.Context, step Step) (string, error) {
	switch step.Op {
	case OpCreateStream:
		stream, err := h.desk.CreateStream(ctx, step.Title, nil, nil, nil)
		outcome, ok, fail := settle(step, err)
		if !ok {
			return outcome, fail
		}
		if err := h.bind(step.As, stream.ID); err != nil {
			return "", err
		}
		return label(step.As, stream.ID), nil

	case OpCreateEntry:
		streamID, err := h.id(step.Stream)
		if err != nil {
			return "", err
		}
		role := step.Role
		if role == "" {
			role = journal.RoleUser
		}
		entry, err := h.desk.CreateEntry(ctx, streamID, role, journal.TextDocument(step.Text), nil, nil)
		outcome, ok, fail := settle(step, err)
		if !ok {
			return outcome, fail
		}
		if err := h.bind(step.As, entry.ID); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s seq=%d", label(step.As, entry.ID), entry.SequenceID), nil

	case OpSetContent:
		entryID, err := h.id(step.Entry)
		if err != nil {
			return "", err
		}
		return h.plain(step, h.desk.SetContent(ctx, entryID, journal.TextDocument(step.Text)))

	case OpStage:
		entryID, err := h.id(step.Entry)
		if err != nil {
			return "", err
		}
		return h.plain(step, h.desk.Stage(ctx, entryID))

	case OpUnstage:
		entryID, err := h.id(step.Entry)
		if err != nil {
			return "", err
		}
		return h.plain(step, h.desk.Unstage(ctx, entryID))

	case OpUnstageAll:
		streamID, err := h.id(step.Stream)
		if err != nil {
			return "", err
		}
		return h.plain(step, h.desk.UnstageAll(ctx, streamID))

	case OpCommit:
		entryID, err := h.id(step.Entry)
		if err != nil {
			return "", err
		}
		var msg *string
		if step.Message != "" {
			msg = &step.Message
		}
		version, err := h.desk.Commit(ctx, entryID, msg)
		outcome, ok, fail := settle(step, err)
		if !ok {
			return outcome, fail
		}
		return fmt.Sprintf("v%d", version.VersionNumber), nil

	case OpRevert:
		entryID, err := h.id(step.Entry)
		if err != nil {
			return "", err
		}
		return h.plain(step, h.desk.Revert(ctx, entryID, step.Version))

	case OpExport:
		streamID, err := h.id(step.Stream)
		if err != nil {
			return "", err
		}
		block, _, err := h.desk.Export(ctx, streamID, step.Directive)
		outcome, ok, fail := settle(step, err)
		if !ok {
			return outcome, fail
		}
		if err := h.bind(step.As, block.ID); err != nil {
			return "", err
		}
		h.blockKeys[block.ID] = block.BridgeKey
		return fmt.Sprintf("%s key=%s staged=%d",
			label(step.As, block.ID), block.BridgeKey, len(block.StagedContextIDs)), nil

	case OpAbsorb:
		streamID, err := h.id(step.Stream)
		if err != nil {
			return "", err
		}
		text, err := h.absorbText(step)
		if err != nil {
			return "", err
		}
		entry, err := h.desk.Absorb(ctx, streamID, text)
		outcome, ok, fail := settle(step, err)
		if !ok {
			return outcome, fail
		}
		if err := h.bind(step.As, entry.ID); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s seq=%d parents=%d",
			label(step.As, entry.ID), entry.SequenceID, len(entry.ParentContextIDs)), nil

	case OpDiscard:
		blockID, err := h.id(step.Block)
		if err != nil {
			return "", err
		}
		return h.plain(step, h.desk.Discard(ctx, blockID))
	}

	// Unreachable after validation; kept for direct Scenario construction.
	return "", fmt.Errorf("unknown op %q", step.Op)
}

// plain settles a step whose only success outcome is "ok".
func (h *Harness) plain(step Step, err error) (string, error) {
	outcome, ok, fail := settle(step, err)
	if !ok {
		return outcome, fail
	}
	return "ok", nil
}

// settle applies a step's error expectation. For expected errors it
// returns the final outcome with ok false and no failure. For expectation
// mismatches (step succeeded, or failed with a different error) it returns
// a failure. ok true means the step succeeded and the caller renders the
// outcome.
func settle(step Step, err error) (outcome string, ok bool, fail error) {
	if step.ExpectError != "" {
		if err == nil {
			return "", false, fmt.Errorf("expected %s, step succeeded", step.ExpectError)
		}
		if !matchStepError(err, step.ExpectError) {
			return "", false, fmt.Errorf("expected %s, got: %w", step.ExpectError, err)
		}
		return "error " + step.ExpectError, false, nil
	}
	if err != nil {
		return "", false, err
	}
	return "", true, nil
}

// matchStepError reports whether err matches the expect_error code.
func matchStepError(err error, code string) bool {
	match, known := expectableErrors[code]
	return known && match(err)
}

// absorbText assembles the pasted reply for an absorb step: the reply body
// plus whatever marker the step's marker field selects.
func (h *Harness) absorbText(step Step) (string, error) {
	switch step.Marker {
	case MarkerNone:
		return step.Reply, nil
	case MarkerWrong:
		return joinMarker(step.Reply, bridge.Marker(wrongKey)), nil
	default:
		blockID, err := h.id(step.Marker)
		if err != nil {
			return "", err
		}
		key, ok := h.blockKeys[blockID]
		if !ok {
			return "", fmt.Errorf("handle %q is not an exported block", step.Marker)
		}
		return joinMarker(step.Reply, bridge.Marker(key)), nil
	}
}

func joinMarker(reply, marker string) string {
	if reply == "" {
		return marker
	}
	return reply + "\n\n" + marker
}

// id resolves a handle to the bound record id.
func (h *Harness) id(handle string) (string, error) {
	id, ok := h.handles[handle]
	if !ok {
		return "", fmt.Errorf("unknown handle %q", handle)
	}
	return id, nil
}

// bind records a handle for a created id. Empty handles are not bound.
func (h *Harness) bind(handle, id string) error {
	if handle == "" {
		return nil
	}
	if _, exists := h.handles[handle]; exists {
		return fmt.Errorf("handle %q already bound", handle)
	}
	h.handles[handle] = id
	return nil
}

// label renders an id with its handle when one was bound.
func label(handle, id string) string {
	if handle == "" {
		return id
	}
	return handle + "=" + id
}

// stepDetail renders a step's arguments for the transcript. Handle names
// appear as written in the scenario; content text is omitted.
func stepDetail(step Step) string {
	var parts []string
	if step.Title != "" {
		parts = append(parts, fmt.Sprintf("title=%q", step.Title))
	}
	if step.Stream != "" {
		parts = append(parts, "stream="+step.Stream)
	}
	if step.Entry != "" {
		parts = append(parts, "entry="+step.Entry)
	}
	if step.Block != "" {
		parts = append(parts, "block="+step.Block)
	}
	if step.Role != "" && step.Role != journal.RoleUser {
		parts = append(parts, "role="+step.Role)
	}
	if step.Directive != "" {
		parts = append(parts, "directive="+step.Directive)
	}
	if step.Marker != "" {
		parts = append(parts, "marker="+step.Marker)
	}
	if step.Version > 0 {
		parts = append(parts, fmt.Sprintf("version=%d", step.Version))
	}
	return strings.Join(parts, " ")
}

// keyPool sizes a deterministic bridge key list to the scenario's export
// steps: k001, k002, and so on.
func keyPool(scenario *Scenario) []string {
	n := 0
	for _, step := range scenario.Steps {
		if step.Op == OpExport {
			n++
		}
	}
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("k%03d", i+1)
	}
	return keys
}
