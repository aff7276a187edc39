package scheduler

import (
	"go.uber.org/zap"
)

// State is the FlushScheduler state.
type State int

const (
	// Idle means the scheduler is counting down to the next flush.
	Idle State = iota
	// Flushing means the pending amount is being handed off.
	Flushing
)

func (s State) String() string {
	if s == Flushing {
		return "flushing"
	}
	return "idle"
}

// FlushFunc receives the amount accumulated since the previous flush.
// It is invoked on every boundary, including with a zero amount.
type FlushFunc func(amount int64)

// FlushScheduler batches recorded interactions and hands them off on a
// fixed interval.
type FlushScheduler struct {
	timer          *Timer
	pending        int64
	sinceLastFlush float64
	state          State
	flush          FlushFunc
	logger         *zap.Logger
}

// NewFlushScheduler creates a scheduler flushing every interval seconds.
func NewFlushScheduler(interval float64, flush FlushFunc, logger *zap.Logger) (*FlushScheduler, error) {
	timer, err := NewTimer(interval)
	if err != nil {
		return nil, err
	}
	return &FlushScheduler{
		timer:  timer,
		flush:  flush,
		logger: logger,
	}, nil
}

// Record adds one interaction to the pending amount.
func (s *FlushScheduler) Record() {
	s.pending++
}

// Advance moves the timer forward by dt seconds and fires one flush per
// boundary crossed. It returns the number of flushes.
func (s *FlushScheduler) Advance(dt float64) int {
	if dt > 0 {
		s.sinceLastFlush += dt
	}
	fired := s.timer.Advance(dt)
	for i := 0; i < fired; i++ {
		s.state = Flushing
		amount := s.pending
		s.pending = 0
		s.logger.Debug("Flushing pending interactions",
			zap.Int64("amount", amount),
			zap.Float64("since_last_flush", s.sinceLastFlush))
		s.sinceLastFlush = 0
		if s.flush != nil {
			s.flush(amount)
		}
		s.state = Idle
	}
	return fired
}

// Drain hands off whatever is pending immediately without touching the timer.
func (s *FlushScheduler) Drain() int64 {
	amount := s.pending
	s.pending = 0
	s.sinceLastFlush = 0
	if amount > 0 && s.flush != nil {
		s.flush(amount)
	}
	return amount
}

// Pending returns the number of interactions not yet flushed.
func (s *FlushScheduler) Pending() int64 {
	return s.pending
}

// Remaining returns seconds until the next flush.
func (s *FlushScheduler) Remaining() float64 {
	return s.timer.Remaining()
}

// State returns the current scheduler state.
func (s *FlushScheduler) State() State {
	return s.state
}
