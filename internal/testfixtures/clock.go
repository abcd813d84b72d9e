package testfixtures

import (
	"sync"
	"time"
)

// Clock is a manually driven time source. Occurrence windows and session
// expiries are all derived from the injected now func, so tests steer time
// through a Clock instead of sleeping.
type Clock struct {
	mu sync.RWMutex
	at time.Time
}

// NewClock returns a clock pinned to start, or to the shared ReferenceTime
// when start is the zero value.
func NewClock(start time.Time) *Clock {
	c := &Clock{at: start}
	if start.IsZero() {
		c.at = ReferenceTime()
	}
	return c
}

// Now reports the instant the clock is pinned to.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.at
}

// Current is an alias for Now used by assertions that compare timestamps
// without advancing time.
func (c *Clock) Current() time.Time {
	return c.Now()
}

// NowFunc adapts the clock to the now-func shape the services take. A nil
// clock falls back to the real wall clock.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set pins the clock to an absolute instant.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.at = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new instant. Tests
// use this to cross day boundaries and expire sessions.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
	return c.at
}
