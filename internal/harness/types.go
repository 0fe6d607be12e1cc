package harness

// TraceEvent records one executed step and its outcome.
type TraceEvent struct {
	// Step is the 1-based position in the scenario.
	Step int

	// Op is the step's operation name.
	Op string

	// Detail renders the step's arguments at the scenario level, handle
	// names included.
	Detail string

	// Outcome renders what happened: bound ids and counters on success,
	// "error CODE" for an expected failure.
	Outcome string
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assert held.
	Pass bool

	// Trace contains one event per executed step, in order.
	Trace []TraceEvent

	// Errors contains assert failure messages. Empty if Pass is true.
	Errors []string

	// Handles maps the scenario's symbolic names to generated ids.
	Handles map[string]string
}

// NewResult creates a passing result to accumulate into.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records an assert failure and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// AddStep appends a step's trace event.
func (r *Result) AddStep(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
