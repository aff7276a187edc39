package config

// StorageConfig configures local persistence
type StorageConfig struct {
	// SQLitePath is the database file; empty keeps state in memory only
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
}

// RemoteConfig selects and configures the shared aggregate counter
type RemoteConfig struct {
	Backend string      `yaml:"backend" env:"BACKEND"`
	Redis   RedisConfig `yaml:"redis" envPrefix:"REDIS_"`
	HTTP    HTTPConfig  `yaml:"http" envPrefix:"HTTP_"`
}

// RedisConfig holds the Redis connection and the key of the aggregate
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	Key      string `yaml:"key" env:"KEY"`
}

// HTTPConfig points at another pokuclick host serving /aggregate
type HTTPConfig struct {
	URL     string `yaml:"url" env:"URL"`
	Timeout string `yaml:"timeout" env:"TIMEOUT"`
}
