package initialize

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	configYamlFile    = "config.yaml"
	dataDir           = "data"
	secretDir         = "secret-dir"
	configYamlContent = `# PokuClick configuration
# Every value can be overridden with a POKUCLICK_* environment variable,
# e.g. POKUCLICK_REMOTE_BACKEND=redis or POKUCLICK_ENGINE_FLUSH_INTERVAL_SECONDS=2.

# Log level: production, development
log_level: development

server:
  addr: ":8080"
  # Listing domains switches the server to HTTPS with ACME certificates
  # domains: ["click.example.com"]
  cert_dir: "secret-dir"
  acme_addr: ":80"
  # Serve GET/PUT /aggregate so other hosts can use this one as their remote
  serve_aggregate: false

engine:
  tick_interval: "100ms"
  flush_interval_seconds: 5
  remote_sync_interval_seconds: 30
  rate_window_capacity: 10
  rate_interval_seconds: 1
  animation_duration: "2s"
  reconcile_timeout: "10s"

# Speed lines turn on at rate_high clicks/s and off at rate_low
# (hot reloaded)
effects:
  rate_high: 8
  rate_low: 4

storage:
  # Empty keeps counters in memory only
  sqlite_path: "data/pokuclick.db"

remote:
  # memory, redis or http
  backend: memory
  redis:
    addr: "localhost:6379"
    password: ""
    db: 0
    key: "pokuclick:global"
  http:
    url: ""
    timeout: "5s"

throttle:
  enabled: true
  min_interval: "20ms"
  ttl: "1m"
  capacity: 10000
`
)

// CheckConfig checks and creates the config file and directories in the working directory
func CheckConfig() error {
	return CheckConfigIn(".")
}

// CheckConfigIn checks and creates the config file and directories under root
func CheckConfigIn(root string) error {
	configPath := filepath.Join(root, configYamlFile)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Println("config.yaml not found, creating from template...")
		if err := os.WriteFile(configPath, []byte(configYamlContent), 0644); err != nil {
			return fmt.Errorf("failed to create config.yaml: %w", err)
		}
		fmt.Printf("Created config file: %s\n", configPath)
	}

	for _, dir := range []string{dataDir, secretDir} {
		path := filepath.Join(root, dir)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Printf("Directory not found, creating: %s\n", path)
			if err := os.MkdirAll(path, 0755); err != nil {
				// Not fatal, the features using it report their own errors
				fmt.Printf("Warning: failed to create directory %s: %v\n", path, err)
			}
		}
	}

	fmt.Println("Configuration initialization completed successfully.")
	return nil
}
