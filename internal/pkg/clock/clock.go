package clock

import "time"

// Clocker abstracts time reads so tests can pin the clock.
type Clocker interface {
	Now() time.Time
}

// New returns a Clocker backed by the system clock.
func New() Clocker {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Fixed is a Clocker pinned to a single instant.
type Fixed struct {
	At time.Time
}

// Now returns the pinned instant.
func (f Fixed) Now() time.Time {
	return f.At
}
