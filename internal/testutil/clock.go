package testutil

import (
	"sync"
	"time"
)

// FakeClock is a deterministic clock for tests.
//
// Every call to Now advances the clock by Step, so an operation timed with
// two Now calls always measures exactly Step.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FakeClock struct {
	mu    sync.Mutex
	start time.Time
	now   time.Time
	step  time.Duration
}

// NewFakeClock creates a clock at start that advances by step per Now call.
func NewFakeClock(start time.Time, step time.Duration) *FakeClock {
	return &FakeClock{start: start, now: start, step: step}
}

// Now returns the current time and advances the clock by one step.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Current returns the current time without advancing.
func (c *FakeClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// SetStep changes the per-call advance.
func (c *FakeClock) SetStep(step time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = step
}

// Reset moves the clock back to its start time.
func (c *FakeClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
