package scene

import (
	"time"

	"github.com/loov/hrtime"
)

// Longest step handed to movement, so a stall does not teleport the player
const maxStep = 250 * time.Millisecond

// Clock measures the time between ticks.
type Clock struct {
	now  func() time.Duration
	last time.Duration
}

func NewClock() *Clock {
	return newClock(hrtime.Now)
}

func newClock(now func() time.Duration) *Clock {
	return &Clock{now: now, last: now()}
}

// Tick returns the seconds since the previous Tick, or since the clock was
// created.
func (c *Clock) Tick() float32 {
	now := c.now()
	step := now - c.last
	c.last = now
	if step < 0 {
		step = 0
	}
	if step > maxStep {
		step = maxStep
	}
	return float32(step.Seconds())
}
