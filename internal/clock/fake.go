package clock

import "time"

// FakeClock reports a fixed instant until advanced. Tests drive it from
// a single goroutine, so there is no locking.
type FakeClock struct {
	current time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{current: start.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.current
}

// Advance moves the clock by d; a negative d moves it backwards.
func (c *FakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
