package clock

import (
	"math"
	"time"
)

// Clock supplies the time used for cache freshness checks and the
// timestamps on pending unlocks and notifications. Tests swap in
// mocks.MockClock to age caches without sleeping.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t according to c. A zero t, as
// stored for a game never synced, is always older than any cache window.
func Since(c Clock, t time.Time) time.Duration {
	if t.IsZero() {
		return time.Duration(math.MaxInt64)
	}
	return c.Now().Sub(t)
}
