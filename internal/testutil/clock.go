package testutil

import "sync"

// SteppingClock is a deterministic wall-clock source for tests: each Now()
// returns the current timestamp in epoch milliseconds and advances it by a
// fixed step. Equal setups produce identical timestamp sequences, which
// golden transcripts rely on.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SteppingClock struct {
	mu    sync.Mutex
	start int64
	step  int64
	next  int64
}

// NewSteppingClock creates a clock whose first Now() returns start, each
// later call advanced by step milliseconds.
func NewSteppingClock(start, step int64) *SteppingClock {
	return &SteppingClock{start: start, step: step, next: start}
}

// Now returns the current timestamp and advances the clock.
func (c *SteppingClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next += c.step
	return now
}

// Peek returns the timestamp the next Now() will produce, without
// advancing.
func (c *SteppingClock) Peek() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// Reset rewinds the clock to its start value, for scenario reuse.
func (c *SteppingClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = c.start
}
