package simulation

import (
	"sync"
	"time"
)

// Clock drives simulated time. Advance is called once per tick and returns
// the step length in seconds together with the new current time.
type Clock interface {
	Advance() (delta float64, now time.Time)
	Now() time.Time
}

// FixedClock advances by the same step every tick, which keeps headless runs
// and tests reproducible.
type FixedClock struct {
	mu   sync.Mutex
	step time.Duration
	now  time.Time
}

func NewFixedClock(step time.Duration, start time.Time) *FixedClock {
	return &FixedClock{step: step, now: start}
}

func (c *FixedClock) Advance() (float64, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.step.Seconds(), c.now
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// WallClock measures real elapsed time between ticks. Steps longer than
// MaxStep are clamped so a stalled process does not teleport agents.
type WallClock struct {
	mu      sync.Mutex
	MaxStep time.Duration
	last    time.Time
	now     func() time.Time
}

func NewWallClock(maxStep time.Duration) *WallClock {
	return &WallClock{MaxStep: maxStep, now: time.Now}
}

func (c *WallClock) Advance() (float64, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if c.last.IsZero() {
		c.last = now
		return 0, now
	}
	step := now.Sub(c.last)
	c.last = now
	if c.MaxStep > 0 && step > c.MaxStep {
		step = c.MaxStep
	}
	return step.Seconds(), now
}

func (c *WallClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now()
}
