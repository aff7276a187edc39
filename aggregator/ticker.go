package aggregator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pokuclick/interfaces"
)

var _ interfaces.TickerService = (*Ticker)(nil)

// Ticker drives an Aggregator from wall-clock time.
type Ticker struct {
	aggregator *Aggregator
	interval   time.Duration
	logger     *zap.Logger
}

// NewTicker creates a Ticker firing every interval.
func NewTicker(aggregator *Aggregator, interval time.Duration, logger *zap.Logger) *Ticker {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Ticker{
		aggregator: aggregator,
		interval:   interval,
		logger:     logger,
	}
}

// Run ticks the aggregator with the measured elapsed time until ctx is done.
func (t *Ticker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	last := time.Now()
	t.logger.Info("Engine ticker started", zap.Duration("interval", t.interval))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			t.aggregator.Tick(ctx, dt)
		}
	}
}

// GetTickerInterval returns the interval for periodic execution
func (t *Ticker) GetTickerInterval() string {
	return t.interval.String()
}
