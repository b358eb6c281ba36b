package testfixtures

import (
	"sync"
	"time"

	"github.com/example/dropplan/internal/planning"
)

// Clock is a manually driven time source. Services read it through NowFunc
// so tests can walk a sprint day by day.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock starts at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the current instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now for injection; a nil clock falls back to time.Now.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set jumps to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}

// Today is the calendar day of the current instant, truncated to UTC midnight.
func (c *Clock) Today() time.Time {
	return planning.Day(c.Now())
}

// SetDay moves the clock to day, keeping the current time of day.
func (c *Clock) SetDay(day time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	offset := c.current.Sub(planning.Day(c.current))
	c.current = planning.Day(day).Add(offset)
}
