package congestion

import "time"

// A Clock returns the current time. The host transport injects its own
// implementation when it runs on simulated time.
type Clock interface {
	Now() time.Time
}

// DefaultClock reads the wall clock.
type DefaultClock struct{}

var _ Clock = DefaultClock{}

// Now gets the current time
func (DefaultClock) Now() time.Time {
	return time.Now()
}
