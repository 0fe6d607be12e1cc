package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted run against a fresh desk.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// Steps execute in order. A step failure aborts the run unless the
	// step declares expect_error.
	Steps []Step `yaml:"steps"`

	// Asserts validate the final state after all steps.
	Asserts []Assert `yaml:"asserts"`
}

// Step is a single desk operation. Op selects the operation; the other
// fields carry op-specific arguments and are ignored elsewhere.
type Step struct {
	Op string `yaml:"op"`

	// As binds the created record's id to a handle for later steps.
	As string `yaml:"as,omitempty"`

	// Title names a created stream (create_stream).
	Title string `yaml:"title,omitempty"`

	// Stream, Entry, and Block reference earlier handles.
	Stream string `yaml:"stream,omitempty"`
	Entry  string `yaml:"entry,omitempty"`
	Block  string `yaml:"block,omitempty"`

	// Role overrides the default user role (create_entry).
	Role string `yaml:"role,omitempty"`

	// Text carries entry content (create_entry, set_content).
	Text string `yaml:"text,omitempty"`

	// Message annotates a commit.
	Message string `yaml:"message,omitempty"`

	// Version selects a snapshot (revert).
	Version int64 `yaml:"version,omitempty"`

	// Directive names the export's directive.
	Directive string `yaml:"directive,omitempty"`

	// Reply is the pasted body for absorb; Marker selects which marker
	// the body carries (a block handle, MarkerWrong, or MarkerNone).
	Reply  string `yaml:"reply,omitempty"`
	Marker string `yaml:"marker,omitempty"`

	// ExpectError requires the step to fail with the named code.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assert is a final-state check.
type Assert struct {
	Check string `yaml:"check"`

	// Stream targets the count checks; Entry targets the entry checks.
	Stream string `yaml:"stream,omitempty"`
	Entry  string `yaml:"entry,omitempty"`

	// Want is the expected count or head number.
	Want int64 `yaml:"want,omitempty"`

	// Text is the expected exact content (content_text).
	Text string `yaml:"text,omitempty"`

	// Entries are the expected parent handles, in order (parents).
	Entries []string `yaml:"entries,omitempty"`
}

// Step operation names.
const (
	OpCreateStream = "create_stream"
	OpCreateEntry  = "create_entry"
	OpSetContent   = "set_content"
	OpStage        = "stage"
	OpUnstage      = "unstage"
	OpUnstageAll   = "unstage_all"
	OpCommit       = "commit"
	OpRevert       = "revert"
	OpExport       = "export"
	OpAbsorb       = "absorb"
	OpDiscard      = "discard"
)

// Marker selectors for absorb steps.
const (
	// MarkerNone pastes the reply without any marker.
	MarkerNone = "none"

	// MarkerWrong pastes a marker whose key no export issued.
	MarkerWrong = "wrong"
)

// Assert check names.
const (
	CheckStagedCount  = "staged_count"
	CheckPendingCount = "pending_count"
	CheckEntryCount   = "entry_count"
	CheckVersionHead  = "version_head"
	CheckContentText  = "content_text"
	CheckParents      = "parents"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assert:" vs "asserts:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Asserts) == 0 {
		return fmt.Errorf("asserts list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, a := range s.Asserts {
		if err := validateAssert(i, a); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its op.
func validateStep(index int, step Step) error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("steps[%d] (%s): %s", index, step.Op, fmt.Sprintf(format, args...))
	}

	if step.ExpectError != "" {
		if _, known := expectableErrors[step.ExpectError]; !known {
			return fail("unknown expect_error %q", step.ExpectError)
		}
		if step.As != "" {
			return fail("as cannot combine with expect_error")
		}
	}

	switch step.Op {
	case OpCreateStream:
		if step.Title == "" {
			return fail("title is required")
		}
	case OpCreateEntry:
		if step.Stream == "" {
			return fail("stream is required")
		}
	case OpSetContent:
		if step.Entry == "" {
			return fail("entry is required")
		}
	case OpStage, OpUnstage, OpCommit:
		if step.Entry == "" {
			return fail("entry is required")
		}
	case OpUnstageAll:
		if step.Stream == "" {
			return fail("stream is required")
		}
	case OpRevert:
		if step.Entry == "" {
			return fail("entry is required")
		}
		if step.Version < 1 {
			return fail("version must be at least 1")
		}
	case OpExport:
		if step.Stream == "" {
			return fail("stream is required")
		}
		if step.Directive == "" {
			return fail("directive is required")
		}
	case OpAbsorb:
		if step.Stream == "" {
			return fail("stream is required")
		}
		if step.Marker == "" {
			return fail("marker is required (a block handle, %q, or %q)", MarkerWrong, MarkerNone)
		}
	case OpDiscard:
		if step.Block == "" {
			return fail("block is required")
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}

	return nil
}

// validateAssert validates a single assert based on its check.
func validateAssert(index int, a Assert) error {
	fail := func(msg string) error {
		return fmt.Errorf("asserts[%d] (%s): %s", index, a.Check, msg)
	}

	switch a.Check {
	case CheckStagedCount, CheckPendingCount, CheckEntryCount:
		if a.Stream == "" {
			return fail("stream is required")
		}
		if a.Want < 0 {
			return fail("want must be non-negative")
		}
	case CheckVersionHead:
		if a.Entry == "" {
			return fail("entry is required")
		}
		if a.Want < 0 {
			return fail("want must be non-negative")
		}
	case CheckContentText:
		if a.Entry == "" {
			return fail("entry is required")
		}
		if a.Text == "" {
			return fail("text is required")
		}
	case CheckParents:
		if a.Entry == "" {
			return fail("entry is required")
		}
		if len(a.Entries) == 0 {
			return fail("entries list is required")
		}
	case "":
		return fmt.Errorf("asserts[%d]: check is required", index)
	default:
		return fmt.Errorf("asserts[%d]: unknown check %q", index, a.Check)
	}

	return nil
}
