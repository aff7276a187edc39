// Package remote reconciles locally flushed clicks with the shared aggregate
// counter and drives the animated global-total update that follows.
package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"pokuclick/interfaces"
)

// ErrReconcileInFlight is returned when Reconcile is called while a previous
// reconciliation has not finished.
var ErrReconcileInFlight = errors.New("reconciliation already in flight")

// BusySetter receives the animation lifecycle. observer.Broadcaster implements it.
type BusySetter interface {
	SetBusy(busy bool) bool
}

// Options tunes a Sync.
type Options struct {
	// AnimationDuration is how long the displayed total takes to reach a new target.
	AnimationDuration time.Duration
	// Timeout bounds a single reconciliation round-trip. Zero disables it.
	Timeout time.Duration
}

// Sync accumulates flushed deltas and periodically folds them into the
// remote aggregate with a read-add-write round-trip. It is best-effort:
// concurrent writers between the read and the write can lose updates.
type Sync struct {
	mu        sync.Mutex
	store     interfaces.AggregateStore
	busy      BusySetter
	presenter interfaces.Presenter
	opts      Options
	logger    *zap.Logger

	pending       int64
	displayed     int64
	lastSnapshot  int64
	inFlight      bool
	animating     bool
	animRemaining float64
}

// NewSync creates a Sync. presenter may be nil.
func NewSync(store interfaces.AggregateStore, busy BusySetter, presenter interfaces.Presenter, opts Options, logger *zap.Logger) *Sync {
	return &Sync{
		store:     store,
		busy:      busy,
		presenter: presenter,
		opts:      opts,
		logger:    logger,
	}
}

// ScheduleDelta adds amount to the delta awaiting the next reconciliation.
// It may be called while a reconciliation is in flight.
func (s *Sync) ScheduleDelta(amount int64) {
	if amount <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending += amount
}

// Reconcile reads the remote total, writes snapshot+pending when that
// differs, then animates the displayed total to the new target. On failure
// the pending delta is kept for the next call.
func (s *Sync) Reconcile(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrReconcileInFlight
	}
	s.inFlight = true
	delta := s.pending
	s.mu.Unlock()

	target, err := s.roundTrip(ctx, delta)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		s.logger.Warn("Remote aggregate unavailable, keeping delta for next cycle",
			zap.Int64("pending", s.pending),
			zap.Error(err))
		return err
	}

	s.pending -= delta
	s.lastSnapshot = target
	s.startAnimation(target)
	return nil
}

func (s *Sync) roundTrip(ctx context.Context, delta int64) (int64, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	snapshot, exists, err := s.store.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("read aggregate: %w", err)
	}
	if !exists {
		snapshot = 0
	}

	target := snapshot + delta
	if target != snapshot {
		if err := s.store.WriteIfChanged(ctx, target); err != nil {
			return 0, fmt.Errorf("write aggregate: %w", err)
		}
		s.logger.Debug("Remote aggregate updated",
			zap.Int64("snapshot", snapshot),
			zap.Int64("delta", delta),
			zap.Int64("target", target))
	}
	return target, nil
}

// startAnimation runs with s.mu held so busy edges stay ordered with Advance.
func (s *Sync) startAnimation(target int64) {
	from := s.displayed
	s.displayed = target
	if s.presenter != nil {
		s.presenter.AnimateRemoteTotal(from, target, s.opts.AnimationDuration)
	}
	s.busy.SetBusy(true)

	s.animRemaining = s.opts.AnimationDuration.Seconds()
	s.animating = s.animRemaining > 0
	if !s.animating {
		s.busy.SetBusy(false)
	}
}

// Advance progresses the running animation by dt seconds and clears the
// busy state when it completes.
func (s *Sync) Advance(dt float64) {
	if !(dt > 0) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.animating {
		return
	}
	s.animRemaining -= dt
	if s.animRemaining <= 0 {
		s.animating = false
		s.animRemaining = 0
		s.busy.SetBusy(false)
	}
}

// Pending returns the delta not yet written to the remote store.
func (s *Sync) Pending() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pending
}

// Displayed returns the target of the latest animation.
func (s *Sync) Displayed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.displayed
}

// LastSnapshot returns the remote total after the latest successful reconciliation.
func (s *Sync) LastSnapshot() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastSnapshot
}

// InFlight reports whether a reconciliation is running.
func (s *Sync) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inFlight
}

// Animating reports whether the displayed total is still animating.
func (s *Sync) Animating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.animating
}
