package ingest

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines ingestion configuration.
type Config struct {
	KeyFile      string
	Interval     time.Duration
	FetchTimeout time.Duration
	Locations    []string
	RunOnStartup bool
}

// fileConfig is the yaml overlay shape. Durations are strings in
// time.ParseDuration syntax ("1h", "30s"); yaml.v3 has no native duration
// decoding.
type fileConfig struct {
	KeyFile      string   `yaml:"key_file"`
	Interval     string   `yaml:"interval"`
	FetchTimeout string   `yaml:"fetch_timeout"`
	Locations    []string `yaml:"locations"`
	RunOnStartup *bool    `yaml:"run_on_startup"`
}

// LoadConfig loads config from env, then merges an optional yaml file named
// by INGEST_CONFIG over it. Only fields set in the file override the env
// values.
func LoadConfig() (Config, error) {
	cfg := Config{
		KeyFile:      getenvDefault("LOCATION_KEY_FILE", "location_keys.json"),
		Interval:     getenvDuration("INGEST_INTERVAL", time.Hour),
		FetchTimeout: getenvDuration("FETCH_TIMEOUT", 30*time.Second),
		RunOnStartup: getenvBool("INGEST_RUN_ON_STARTUP", false),
	}

	if path := os.Getenv("INGEST_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return cfg, err
		}
		if file.KeyFile != "" {
			cfg.KeyFile = file.KeyFile
		}
		if file.Interval != "" {
			parsed, err := time.ParseDuration(file.Interval)
			if err != nil {
				return cfg, fmt.Errorf("ingest: parse interval: %w", err)
			}
			cfg.Interval = parsed
		}
		if file.FetchTimeout != "" {
			parsed, err := time.ParseDuration(file.FetchTimeout)
			if err != nil {
				return cfg, fmt.Errorf("ingest: parse fetch_timeout: %w", err)
			}
			cfg.FetchTimeout = parsed
		}
		if len(file.Locations) > 0 {
			cfg.Locations = file.Locations
		}
		if file.RunOnStartup != nil {
			cfg.RunOnStartup = *file.RunOnStartup
		}
	}

	if cfg.KeyFile == "" {
		return cfg, errors.New("ingest: key file required")
	}
	if cfg.Interval <= 0 {
		return cfg, errors.New("ingest: interval must be positive")
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
