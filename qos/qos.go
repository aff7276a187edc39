package qos

import (
	"sync"

	"go.uber.org/zap"

	"pokuclick/interfaces"
)

// Default thresholds in clicks per second.
const (
	DefaultHighThreshold = 8.0
	DefaultLowThreshold  = 4.0
)

// Gate turns a stream of rate samples into Rising/Falling edges with
// hysteresis: it rises at or above high and falls at or below low.
type Gate struct {
	mu     sync.Mutex
	high   float64
	low    float64
	active bool
	logger *zap.Logger
}

// NewGate creates a Gate. If low exceeds high the two are swapped.
func NewGate(high, low float64, logger *zap.Logger) *Gate {
	g := &Gate{logger: logger}
	g.SetThresholds(high, low)
	return g
}

// SetThresholds replaces the thresholds. The new values apply from the next Observe.
func (g *Gate) SetThresholds(high, low float64) {
	if low > high {
		high, low = low, high
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.high = high
	g.low = low
}

// Observe feeds one rate sample and returns the edge it produced, if any.
func (g *Gate) Observe(rate float64) (interfaces.Direction, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case !g.active && rate >= g.high:
		g.active = true
		g.logger.Debug("Click rate crossed high threshold",
			zap.Float64("rate", rate),
			zap.Float64("high", g.high))
		return interfaces.Rising, true
	case g.active && rate <= g.low:
		g.active = false
		g.logger.Debug("Click rate crossed low threshold",
			zap.Float64("rate", rate),
			zap.Float64("low", g.low))
		return interfaces.Falling, true
	}
	return 0, false
}

// Active reports whether the gate is above its high threshold.
func (g *Gate) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.active
}

// Thresholds returns the current high and low thresholds.
func (g *Gate) Thresholds() (high, low float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.high, g.low
}
