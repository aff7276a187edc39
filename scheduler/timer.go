package scheduler

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInterval is returned for non-positive or non-finite intervals.
var ErrInvalidInterval = errors.New("interval must be a positive number of seconds")

// Timer counts down a fixed interval driven by externally supplied elapsed
// time. When remaining reaches zero or below, the interval is added back so
// overshoot carries into the next period.
type Timer struct {
	interval  float64
	remaining float64
}

// NewTimer creates a Timer that fires every interval seconds.
func NewTimer(interval float64) (*Timer, error) {
	if interval <= 0 || math.IsNaN(interval) || math.IsInf(interval, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInterval, interval)
	}
	return &Timer{interval: interval, remaining: interval}, nil
}

// Advance subtracts dt seconds and returns how many interval boundaries
// were crossed. Negative or NaN dt counts as zero.
func (t *Timer) Advance(dt float64) int {
	if !(dt > 0) {
		return 0
	}
	t.remaining -= dt
	fired := 0
	for t.remaining <= 0 {
		t.remaining += t.interval
		fired++
	}
	return fired
}

// Remaining returns the seconds left until the next boundary.
func (t *Timer) Remaining() float64 {
	return t.remaining
}

// Interval returns the timer period in seconds.
func (t *Timer) Interval() float64 {
	return t.interval
}
