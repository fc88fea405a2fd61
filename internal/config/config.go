package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines client configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	State  StateConfig  `yaml:"state"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	// BaseURL is the origin of the Impala backend, e.g. https://impala.example.com.
	BaseURL string `yaml:"base_url"`
	// TimeoutSeconds bounds every HTTP request. Expiry is treated as a
	// network failure.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type StateConfig struct {
	// Path is the SQLite file holding durable client state (the bearer token).
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 30,
		},
		State: StateConfig{
			Path: defaultStatePath(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("IMPALA_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if url := os.Getenv("IMPALA_SERVER_URL"); url != "" {
		cfg.Server.BaseURL = url
	}
	if timeoutStr := os.Getenv("IMPALA_HTTP_TIMEOUT"); timeoutStr != "" {
		timeout, err := strconv.Atoi(timeoutStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid IMPALA_HTTP_TIMEOUT: %w", err)
		}
		cfg.Server.TimeoutSeconds = timeout
	}
	if statePath := os.Getenv("IMPALA_STATE_PATH"); statePath != "" {
		cfg.State.Path = statePath
	}
	if level := os.Getenv("IMPALA_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("IMPALA_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}

	return cfg, nil
}

// Timeout returns the HTTP request timeout as a duration.
func (c ServerConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "impala.db"
	}
	return filepath.Join(home, ".impala", "state.db")
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
