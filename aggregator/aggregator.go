// Package aggregator wires the click engine together and is the only entry
// point the presentation layer uses.
//
// RecordInteraction and Tick may be called from different goroutines; they
// are serialized internally. Presenter and BusyListener callbacks are invoked
// while engine locks are held, so implementations must be safe for
// concurrent use and must not call back into the Aggregator.
package aggregator

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"pokuclick/audio"
	"pokuclick/config"
	"pokuclick/counter"
	"pokuclick/interfaces"
	"pokuclick/observer"
	"pokuclick/qos"
	"pokuclick/remote"
	"pokuclick/scheduler"
	"pokuclick/stats"
)

// Options holds the engine timing and effect thresholds.
type Options struct {
	FlushIntervalSeconds      float64
	RemoteSyncIntervalSeconds float64
	RateIntervalSeconds       float64
	RateWindowCapacity        int
	AnimationDuration         time.Duration
	ReconcileTimeout          time.Duration
	RateHigh                  float64
	RateLow                   float64
}

// OptionsFromConfig maps the engine and effects sections of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FlushIntervalSeconds:      cfg.Engine.FlushIntervalSeconds,
		RemoteSyncIntervalSeconds: cfg.Engine.RemoteSyncIntervalSeconds,
		RateIntervalSeconds:       cfg.Engine.RateIntervalSeconds,
		RateWindowCapacity:        cfg.Engine.RateWindowCapacity,
		AnimationDuration:         config.ParseDuration(cfg.Engine.AnimationDuration, 2*time.Second),
		ReconcileTimeout:          config.ParseDuration(cfg.Engine.ReconcileTimeout, 10*time.Second),
		RateHigh:                  cfg.Effects.RateHigh,
		RateLow:                   cfg.Effects.RateLow,
	}
}

// Deps are the collaborators supplied by the host.
type Deps struct {
	Local         interfaces.KeyValueStore
	Remote        interfaces.AggregateStore
	Presenter     interfaces.Presenter
	BusyListeners []interfaces.BusyListener
}

// Snapshot is a point-in-time view of the engine.
type Snapshot struct {
	LocalTotal    int64   `json:"local_total"`
	FlushedTotal  int64   `json:"flushed_total"`
	LastFlush     int64   `json:"last_flush"`
	PendingFlush  int64   `json:"pending_flush"`
	PendingRemote int64   `json:"pending_remote"`
	RemoteTotal   int64   `json:"remote_total"`
	Rate          float64 `json:"rate"`
	RateActive    bool    `json:"rate_active"`
	Busy          bool    `json:"busy"`
	Volume        int     `json:"volume"`
	NextFlushIn   float64 `json:"next_flush_in"`
	NextSyncIn    float64 `json:"next_sync_in"`
}

// Aggregator owns all engine state for one player session.
type Aggregator struct {
	mu        sync.Mutex
	logger    *zap.Logger
	presenter interfaces.Presenter

	total     *counter.Store
	flushed   *counter.Store
	lastFlush int64

	rate      *stats.RateEstimator
	rateTimer *scheduler.Timer
	gate      *qos.Gate

	flush     *scheduler.FlushScheduler
	syncTimer *scheduler.Timer
	sync      *remote.Sync
	busy      *observer.Broadcaster

	mixer *audio.Mixer

	wg    sync.WaitGroup
	spawn func(func())
}

// New restores persisted counters and builds the engine.
func New(opts Options, deps Deps, logger *zap.Logger) (*Aggregator, error) {
	if deps.Local == nil || deps.Remote == nil {
		return nil, errors.New("local and remote stores are required")
	}
	presenter := deps.Presenter
	if presenter == nil {
		presenter = nopPresenter{}
	}

	a := &Aggregator{
		logger:    logger,
		presenter: presenter,
		total:     counter.NewStore(counter.TotalKey, deps.Local, logger),
		flushed:   counter.NewStore(counter.FlushKey, deps.Local, logger),
		rate:      stats.NewRateEstimator(opts.RateWindowCapacity, opts.RateIntervalSeconds),
		gate:      qos.NewGate(opts.RateHigh, opts.RateLow, logger),
		busy:      observer.NewBroadcaster(deps.BusyListeners...),
		mixer:     audio.NewMixer(deps.Local, logger),
		spawn:     func(f func()) { go f() },
	}

	var err error
	if a.rateTimer, err = scheduler.NewTimer(opts.RateIntervalSeconds); err != nil {
		return nil, err
	}
	if a.syncTimer, err = scheduler.NewTimer(opts.RemoteSyncIntervalSeconds); err != nil {
		return nil, err
	}
	if a.flush, err = scheduler.NewFlushScheduler(opts.FlushIntervalSeconds, a.onFlush, logger); err != nil {
		return nil, err
	}
	a.sync = remote.NewSync(deps.Remote, a.busy, presenter, remote.Options{
		AnimationDuration: opts.AnimationDuration,
		Timeout:           opts.ReconcileTimeout,
	}, logger)

	total := a.total.Load()
	flushed := a.flushed.Load()
	a.rate.Reset(total)

	logger.Info("Click engine initialized",
		zap.Int64("local_total", total),
		zap.Int64("flushed_total", flushed),
		zap.Int("volume", a.mixer.Volume()))
	return a, nil
}

// RecordInteraction records one click: the local total and the pending
// flush grow together, the total is persisted and shown, and the click cue
// is returned and played.
func (a *Aggregator) RecordInteraction() (int64, interfaces.Cue) {
	a.mu.Lock()
	defer a.mu.Unlock()

	value := a.total.Increment(1)
	a.flush.Record()
	cue := a.mixer.Cue()

	a.presenter.DisplayLocalTotal(value)
	a.presenter.PlayCue(cue)
	return value, cue
}

// Tick advances the engine by dt elapsed seconds.
func (a *Aggregator) Tick(ctx context.Context, dt float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for n := a.rateTimer.Advance(dt); n > 0; n-- {
		r := a.rate.Tick(a.total.Get())
		if direction, ok := a.gate.Observe(r); ok {
			a.presenter.RateThresholdCrossed(direction)
		}
	}

	a.flush.Advance(dt)

	// An animation started by this tick's reconciliation runs from the next tick.
	a.sync.Advance(dt)
	if a.syncTimer.Advance(dt) > 0 {
		a.startReconcile(ctx)
	}
}

// onFlush runs inside Tick or Close with a.mu held.
func (a *Aggregator) onFlush(amount int64) {
	if amount <= 0 {
		return
	}
	total := a.flushed.Increment(amount)
	a.lastFlush = amount
	a.sync.ScheduleDelta(amount)
	a.presenter.DisplayFlushed(total, amount)
}

func (a *Aggregator) startReconcile(ctx context.Context) {
	if a.sync.InFlight() {
		a.logger.Debug("Skipping reconciliation, previous one still in flight")
		return
	}
	a.wg.Add(1)
	a.spawn(func() {
		defer a.wg.Done()
		err := a.sync.Reconcile(ctx)
		if errors.Is(err, remote.ErrReconcileInFlight) {
			a.logger.Debug("Reconciliation deferred", zap.Error(err))
		}
	})
}

// SetVolume stores the click volume (0-100) and returns the clamped value.
func (a *Aggregator) SetVolume(v int) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.mixer.SetVolume(v)
}

// SetRateThresholds replaces the speed-lines thresholds.
func (a *Aggregator) SetRateThresholds(high, low float64) {
	a.gate.SetThresholds(high, low)
}

// SubscribeBusy registers another busy listener.
func (a *Aggregator) SubscribeBusy(l interfaces.BusyListener) {
	a.busy.Subscribe(l)
}

// Busy reports whether a remote-total animation is running.
func (a *Aggregator) Busy() bool {
	return a.busy.Busy()
}

// Snapshot returns the current engine state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Snapshot{
		LocalTotal:    a.total.Get(),
		FlushedTotal:  a.flushed.Get(),
		LastFlush:     a.lastFlush,
		PendingFlush:  a.flush.Pending(),
		PendingRemote: a.sync.Pending(),
		RemoteTotal:   a.sync.Displayed(),
		Rate:          a.rate.Rate(),
		RateActive:    a.gate.Active(),
		Busy:          a.busy.Busy(),
		Volume:        a.mixer.Volume(),
		NextFlushIn:   a.flush.Remaining(),
		NextSyncIn:    a.syncTimer.Remaining(),
	}
}

// Close flushes whatever is pending, waits for running reconciliations and
// makes one last attempt to push the remaining delta to the remote store.
func (a *Aggregator) Close(ctx context.Context) error {
	a.mu.Lock()
	a.flush.Drain()
	a.mu.Unlock()

	a.wg.Wait()
	if a.sync.Pending() == 0 {
		return nil
	}
	return a.sync.Reconcile(ctx)
}

type nopPresenter struct{}

func (nopPresenter) DisplayLocalTotal(int64) {}
func (nopPresenter) DisplayFlushed(int64, int64) {}
func (nopPresenter) AnimateRemoteTotal(int64, int64, time.Duration) {}
func (nopPresenter) RateThresholdCrossed(interfaces.Direction) {}
func (nopPresenter) PlayCue(interfaces.Cue) {}
