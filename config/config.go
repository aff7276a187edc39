package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. POKUCLICK_LOG_LEVEL.
const EnvPrefix = "POKUCLICK_"

// Remote backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendHTTP   = "http"
)

// Config represents the application configuration
type Config struct {
	LogLevel string         `yaml:"log_level" env:"LOG_LEVEL"`
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Engine   EngineConfig   `yaml:"engine" envPrefix:"ENGINE_"`
	Effects  EffectsConfig  `yaml:"effects" envPrefix:"EFFECTS_"`
	Storage  StorageConfig  `yaml:"storage" envPrefix:"STORAGE_"`
	Remote   RemoteConfig   `yaml:"remote" envPrefix:"REMOTE_"`
	Throttle ThrottleConfig `yaml:"throttle" envPrefix:"THROTTLE_"`
}

// ServerConfig configures the HTTP host
type ServerConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
	// Domains enables TLS through ACME when non-empty
	Domains []string `yaml:"domains" env:"DOMAINS" envSeparator:","`
	CertDir string   `yaml:"cert_dir" env:"CERT_DIR"`
	// ACMEAddr serves ACME HTTP-01 challenges when TLS is enabled
	ACMEAddr string `yaml:"acme_addr" env:"ACME_ADDR"`
	// ServeAggregate exposes the remote store at /aggregate for other clients
	ServeAggregate bool `yaml:"serve_aggregate" env:"SERVE_AGGREGATE"`
}

// EffectsConfig contains the rate thresholds for the speed-lines effect
type EffectsConfig struct {
	RateHigh float64 `yaml:"rate_high" env:"RATE_HIGH"`
	RateLow  float64 `yaml:"rate_low" env:"RATE_LOW"`
}

// ThrottleConfig limits how fast a single client can post clicks
type ThrottleConfig struct {
	Enabled     bool   `yaml:"enabled" env:"ENABLED"`
	MinInterval string `yaml:"min_interval" env:"MIN_INTERVAL"`
	TTL         string `yaml:"ttl" env:"TTL"`
	Capacity    uint64 `yaml:"capacity" env:"CAPACITY"`
}

// Load loads configuration from the specified file. A .env file in the
// working directory and POKUCLICK_* environment variables override the
// file, which overrides Default().
func Load(filename string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes, defaults and the environment.
func Parse(data []byte) (*Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Engine.FlushIntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("engine.flush_interval_seconds must be positive, got %v", c.Engine.FlushIntervalSeconds))
	}
	if c.Engine.RemoteSyncIntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("engine.remote_sync_interval_seconds must be positive, got %v", c.Engine.RemoteSyncIntervalSeconds))
	}
	if c.Engine.RateIntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("engine.rate_interval_seconds must be positive, got %v", c.Engine.RateIntervalSeconds))
	}
	if c.Engine.RateWindowCapacity <= 0 {
		errs = append(errs, fmt.Errorf("engine.rate_window_capacity must be positive, got %d", c.Engine.RateWindowCapacity))
	}
	switch c.Remote.Backend {
	case BackendMemory, BackendRedis:
	case BackendHTTP:
		if c.Remote.HTTP.URL == "" {
			errs = append(errs, errors.New("remote.http.url is required for the http backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown remote.backend %q", c.Remote.Backend))
	}
	return errors.Join(errs...)
}

// Watch reloads the configuration whenever the file changes and passes the
// new value to onChange. Invalid files are logged and skipped. It returns
// when ctx is cancelled.
func Watch(ctx context.Context, filename string, logger *zap.Logger, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are still seen
	target := filepath.Clean(filename)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			cfg, err := Load(filename)
			if err != nil {
				logger.Warn("Ignoring invalid config change", zap.String("file", filename), zap.Error(err))
				continue
			}
			logger.Info("Config reloaded", zap.String("file", filename))
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Config watcher error", zap.Error(err))
		}
	}
}
