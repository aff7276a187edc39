package interfaces

import (
	"context"
	"time"
)

// Direction reports which way the rolling click rate crossed a threshold.
type Direction int

const (
	// Falling means the rate dropped to or below the low threshold.
	Falling Direction = -1
	// Rising means the rate reached or exceeded the high threshold.
	Rising Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	default:
		return "none"
	}
}

// Cue describes how a single click sound should be played.
type Cue struct {
	Pitch float64
	Gain  float64
}

// Presenter is implemented by the presentation layer and notified by the engine
type Presenter interface {
	// DisplayLocalTotal shows the local click total after an interaction
	DisplayLocalTotal(value int64)

	// DisplayFlushed shows the cumulative flushed amount and the amount of the last flush
	DisplayFlushed(total, amount int64)

	// AnimateRemoteTotal animates the global counter from one value to another
	AnimateRemoteTotal(from, to int64, duration time.Duration)

	// RateThresholdCrossed is called once per edge of the click-rate gate
	RateThresholdCrossed(direction Direction)

	// PlayCue plays the click sound effect
	PlayCue(cue Cue)
}

// BusyListener receives edge-triggered busy/idle notifications
type BusyListener interface {
	// OnBusyBegan is called on a false -> true transition
	OnBusyBegan()

	// OnBusyEnded is called on a true -> false transition
	OnBusyEnded()
}

// KeyValueStore persists small string values across sessions
type KeyValueStore interface {
	// Get returns the stored value and whether it exists
	Get(key string) (string, bool, error)

	// Set stores the value under key, replacing any previous value
	Set(key, value string) error
}

// AggregateStore is the shared counter owned by some remote system
type AggregateStore interface {
	// Read returns the current total, or false when the record does not exist yet
	Read(ctx context.Context) (int64, bool, error)

	// WriteIfChanged stores the new total
	WriteIfChanged(ctx context.Context, value int64) error
}

// BackgroundService defines a unified interface for all background services
type BackgroundService interface {
	// Run starts the background service with the given context
	// The service should stop gracefully when the context is cancelled
	Run(ctx context.Context) error
}

// TickerService defines an interface for services that need periodic execution
type TickerService interface {
	BackgroundService
	// GetTickerInterval returns the interval for periodic execution
	GetTickerInterval() string
}
