package config

import "time"

// EngineConfig contains the timing of the click aggregation engine
type EngineConfig struct {
	// TickInterval is how often the host ticker drives the engine
	TickInterval string `yaml:"tick_interval" env:"TICK_INTERVAL"`

	// FlushIntervalSeconds batches local clicks into flushes
	FlushIntervalSeconds float64 `yaml:"flush_interval_seconds" env:"FLUSH_INTERVAL_SECONDS"`

	// RemoteSyncIntervalSeconds reconciles flushed clicks with the aggregate
	RemoteSyncIntervalSeconds float64 `yaml:"remote_sync_interval_seconds" env:"REMOTE_SYNC_INTERVAL_SECONDS"`

	// Rolling rate window
	RateWindowCapacity  int     `yaml:"rate_window_capacity" env:"RATE_WINDOW_CAPACITY"`
	RateIntervalSeconds float64 `yaml:"rate_interval_seconds" env:"RATE_INTERVAL_SECONDS"`

	AnimationDuration string `yaml:"animation_duration" env:"ANIMATION_DURATION"`
	ReconcileTimeout  string `yaml:"reconcile_timeout" env:"RECONCILE_TIMEOUT"`
}

// ParseDuration safely parses duration strings, returning fallback when
// the value is empty or malformed
func ParseDuration(durationStr string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		return fallback
	}
	return duration
}
