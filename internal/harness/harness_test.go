package harness

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koipond/inkwell/internal/desk"
	"github.com/koipond/inkwell/internal/directive"
	"github.com/koipond/inkwell/internal/store"
)

// smallScenario builds a minimal valid scenario for execution tests.
func smallScenario(steps ...Step) *Scenario {
	return &Scenario{
		Name:        "small",
		Description: "execution mechanics",
		Steps:       steps,
		Asserts: []Assert{
			{Check: CheckEntryCount, Stream: "notes", Want: 1},
		},
	}
}

func TestRun_BindsHandles(t *testing.T) {
	scenario := smallScenario(
		Step{Op: OpCreateStream, Title: "Notes", As: "notes"},
		Step{Op: OpCreateEntry, Stream: "notes", Text: "An entry.", As: "e1"},
	)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass)
	assert.Equal(t, "id-1", result.Handles["notes"])
	assert.Equal(t, "id-2", result.Handles["e1"])
	require.Len(t, result.Trace, 2)
	assert.Equal(t, "notes=id-1", result.Trace[0].Outcome)
	assert.Equal(t, "e1=id-2 seq=1", result.Trace[1].Outcome)
}

func TestRun_UnknownHandle(t *testing.T) {
	scenario := smallScenario(
		Step{Op: OpCreateStream, Title: "Notes", As: "notes"},
		Step{Op: OpStage, Entry: "ghost"},
	)

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown handle "ghost"`)
	assert.Contains(t, err.Error(), "step 2")
}

func TestRun_DuplicateHandle(t *testing.T) {
	scenario := smallScenario(
		Step{Op: OpCreateStream, Title: "First", As: "notes"},
		Step{Op: OpCreateStream, Title: "Second", As: "notes"},
	)

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `handle "notes" already bound`)
}

func TestRun_ExpectedErrorContinues(t *testing.T) {
	scenario := smallScenario(
		Step{Op: OpCreateStream, Title: "Notes", As: "notes"},
		Step{Op: OpExport, Stream: "notes", Directive: "critique", ExpectError: "NOTHING_STAGED"},
		Step{Op: OpCreateEntry, Stream: "notes", Text: "An entry.", As: "e1"},
	)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass)
	assert.Equal(t, "error NOTHING_STAGED", result.Trace[1].Outcome)
}

func TestRun_UnexpectedSuccessAborts(t *testing.T) {
	scenario := smallScenario(
		Step{Op: OpCreateStream, Title: "Notes", As: "notes"},
		Step{Op: OpCreateEntry, Stream: "notes", Text: "An entry.", As: "e1"},
		Step{Op: OpStage, Entry: "e1", ExpectError: "NOT_FOUND"},
	)

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected NOT_FOUND, step succeeded")
}

func TestRun_WrongErrorCodeAborts(t *testing.T) {
	scenario := smallScenario(
		Step{Op: OpCreateStream, Title: "Notes", As: "notes"},
		Step{Op: OpAbsorb, Stream: "notes", Reply: "text", Marker: MarkerNone, ExpectError: "KEY_MISMATCH"},
	)

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected KEY_MISMATCH, got")
}

func TestRun_UnexpectedErrorAborts(t *testing.T) {
	scenario := smallScenario(
		Step{Op: OpCreateStream, Title: "Notes", As: "notes"},
		Step{Op: OpExport, Stream: "notes", Directive: "critique"},
	)

	_, err := Run(scenario)
	require.Error(t, err)
	assert.True(t, desk.IsNothingStaged(err))
}

func TestRun_AssertFailure(t *testing.T) {
	scenario := &Scenario{
		Name:        "failing",
		Description: "assert cannot hold",
		Steps: []Step{
			{Op: OpCreateStream, Title: "Notes", As: "notes"},
		},
		Asserts: []Assert{
			{Check: CheckEntryCount, Stream: "notes", Want: 5},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "check entry_count")
	assert.Contains(t, result.Errors[0], "expected 5, got 0")
}

func TestRun_RevertMissingVersion(t *testing.T) {
	scenario := smallScenario(
		Step{Op: OpCreateStream, Title: "Notes", As: "notes"},
		Step{Op: OpCreateEntry, Stream: "notes", Text: "An entry.", As: "e1"},
		Step{Op: OpRevert, Entry: "e1", Version: 3, ExpectError: "NOT_FOUND"},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.Equal(t, "error NOT_FOUND", result.Trace[2].Outcome)
}

func TestRun_InvalidScenarioRejected(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad",
		Description: "no asserts",
		Steps:       []Step{{Op: OpCreateStream, Title: "Notes"}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scenario")
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/critique_loop.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(Transcript(scenario, first), Transcript(scenario, second)),
		"same scenario must produce identical transcripts")
}

func TestMatchStepError(t *testing.T) {
	tests := []struct {
		code string
		err  error
		want bool
	}{
		{"NOT_FOUND", fmt.Errorf("entry x: %w", store.ErrNotFound), true},
		{"NOT_FOUND", errors.New("plain"), false},
		{"UNKNOWN_DIRECTIVE", fmt.Errorf("%q: %w", "POLISH", directive.ErrUnknown), true},
		{"NOTHING_STAGED", desk.NewNothingStagedError("s1"), true},
		{"NO_PENDING_BLOCK", desk.NewNoPendingBlockError("s1"), true},
		{"NO_MARKER", desk.NewNoMarkerError("s1"), true},
		{"KEY_MISMATCH", desk.NewKeyMismatchError("s1", "a", "b"), true},
		{"KEY_MISMATCH", desk.NewNoMarkerError("s1"), false},
		{"BOGUS", errors.New("anything"), false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, matchStepError(tt.err, tt.code))
		})
	}
}

func TestStepDetail(t *testing.T) {
	tests := []struct {
		name string
		step Step
		want string
	}{
		{
			"create_stream quotes the title",
			Step{Op: OpCreateStream, Title: "Lighthouse Notes", As: "notes"},
			`title="Lighthouse Notes"`,
		},
		{
			"export orders stream before directive",
			Step{Op: OpExport, Stream: "notes", Directive: "critique"},
			"stream=notes directive=critique",
		},
		{
			"revert includes the version",
			Step{Op: OpRevert, Entry: "draft", Version: 1},
			"entry=draft version=1",
		},
		{
			"absorb shows the marker selector",
			Step{Op: OpAbsorb, Stream: "notes", Reply: "hidden", Marker: "wrong"},
			"stream=notes marker=wrong",
		},
		{
			"default role is omitted",
			Step{Op: OpCreateEntry, Stream: "notes", Role: "user"},
			"stream=notes",
		},
		{
			"explicit ai role shows",
			Step{Op: OpCreateEntry, Stream: "notes", Role: "ai"},
			"stream=notes role=ai",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stepDetail(tt.step))
		})
	}
}

func TestKeyPool(t *testing.T) {
	scenario := &Scenario{
		Steps: []Step{
			{Op: OpCreateStream},
			{Op: OpExport},
			{Op: OpStage},
			{Op: OpExport},
			{Op: OpExport},
		},
	}

	assert.Equal(t, []string{"k001", "k002", "k003"}, keyPool(scenario))
	assert.Empty(t, keyPool(&Scenario{Steps: []Step{{Op: OpStage}}}))
}

func TestTranscript_Format(t *testing.T) {
	scenario := &Scenario{Name: "format"}
	result := &Result{
		Trace: []TraceEvent{
			{Step: 1, Op: OpCreateStream, Detail: `title="Notes"`, Outcome: "notes=id-1"},
			{Step: 10, Op: OpStage, Detail: "entry=e1", Outcome: "ok"},
		},
	}

	got := string(Transcript(scenario, result))
	want := "scenario: format\n" +
		"steps:\n" +
		"  1 create_stream title=\"Notes\" -> notes=id-1\n" +
		" 10 stage entry=e1 -> ok\n"
	assert.Equal(t, want, got)
}
