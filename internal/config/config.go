package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds tunable defaults for the filesystem service.
type Config struct {
	Logging LogConfig
	Watch   WatchConfig
	Exec    ExecConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"FS_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"FS_LOG_DEV" default:"false"`
}

// WatchConfig holds change-notification defaults.
type WatchConfig struct {
	PollInterval       time.Duration `envconfig:"FS_WATCH_POLL_INTERVAL" default:"100ms"`
	StabilityThreshold time.Duration `envconfig:"FS_WATCH_STABILITY_THRESHOLD" default:"2s"`
}

// ExecConfig holds command execution defaults.
type ExecConfig struct {
	DefaultTimeout time.Duration `envconfig:"FS_EXEC_DEFAULT_TIMEOUT" default:"60s"`
	MaxOutputBytes int64         `envconfig:"FS_EXEC_MAX_OUTPUT" default:"10485760"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or falls back to the
// built-in defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LogConfig{Level: "info"},
		Watch: WatchConfig{
			PollInterval:       100 * time.Millisecond,
			StabilityThreshold: 2 * time.Second,
		},
		Exec: ExecConfig{
			DefaultTimeout: 60 * time.Second,
			MaxOutputBytes: 10 << 20,
		},
	}
}
