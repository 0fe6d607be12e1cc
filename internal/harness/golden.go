package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Transcript renders a deterministic line-oriented account of a run. One
// line per step: number, op, scenario-level arguments, then the outcome.
func Transcript(scenario *Scenario, result *Result) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "scenario: %s\n", scenario.Name)
	b.WriteString("steps:\n")
	for _, ev := range result.Trace {
		fmt.Fprintf(&b, "%3d %s", ev.Step, ev.Op)
		if ev.Detail != "" {
			b.WriteString(" " + ev.Detail)
		}
		fmt.Fprintf(&b, " -> %s\n", ev.Outcome)
	}

	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its transcript against a
// golden file at testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the run result so callers can also check asserts via Pass.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Transcript(scenario, result))

	return result, nil
}
