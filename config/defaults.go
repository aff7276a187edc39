package config

// Default returns the configuration used for any setting the file and the
// environment leave unset.
func Default() *Config {
	return &Config{
		LogLevel: "development",
		Server: ServerConfig{
			Addr:     ":8080",
			CertDir:  "secret-dir",
			ACMEAddr: ":80",
		},
		Engine: EngineConfig{
			TickInterval:              "100ms",
			FlushIntervalSeconds:      5,
			RemoteSyncIntervalSeconds: 30,
			RateWindowCapacity:        10,
			RateIntervalSeconds:       1,
			AnimationDuration:         "2s",
			ReconcileTimeout:          "10s",
		},
		Effects: EffectsConfig{
			RateHigh: 8,
			RateLow:  4,
		},
		Storage: StorageConfig{
			SQLitePath: "data/pokuclick.db",
		},
		Remote: RemoteConfig{
			Backend: BackendMemory,
			Redis: RedisConfig{
				Addr: "localhost:6379",
				Key:  "pokuclick:global",
			},
			HTTP: HTTPConfig{
				Timeout: "5s",
			},
		},
		Throttle: ThrottleConfig{
			Enabled:     true,
			MinInterval: "20ms",
			TTL:         "1m",
			Capacity:    10000,
		},
	}
}
