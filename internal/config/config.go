// Package config manages application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ytupload/internal/logging"
	"ytupload/internal/retry"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "YTUPLOAD_"

// FileName is the optional configuration file looked up by Load.
const FileName = "ytupload.yaml"

// chunkAlignment is the granularity the resumable upload protocol requires
// for every chunk but the last.
const chunkAlignment = 256 * 1024

// Config holds all application configuration.
type Config struct {
	// Local state
	CachePath     string        `yaml:"cache_path" env:"CACHE_PATH"`
	ClientSecrets string        `yaml:"client_secrets" env:"CLIENT_SECRETS"`
	Credentials   string        `yaml:"credentials" env:"CREDENTIALS"`
	LockTimeout   time.Duration `yaml:"lock_timeout" env:"LOCK_TIMEOUT"`

	// Upload settings
	MaxRetries  int           `yaml:"max_retries" env:"MAX_RETRIES"`
	BackoffBase time.Duration `yaml:"backoff_base" env:"BACKOFF_BASE"`
	ChunkSize   int64         `yaml:"chunk_size" env:"CHUNK_SIZE"`
	Privacy     string        `yaml:"privacy" env:"PRIVACY"`

	// API settings
	APIRPS             float64 `yaml:"api_rps" env:"API_RPS"`
	ListingConcurrency int     `yaml:"listing_concurrency" env:"LISTING_CONCURRENCY"`

	// Observability
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat   string `yaml:"log_format" env:"LOG_FORMAT"`
	LogFile     string `yaml:"log_file" env:"LOG_FILE"`
	MetricsFile string `yaml:"metrics_file" env:"METRICS_FILE"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		CachePath:          "cache.yaml",
		ClientSecrets:      "client_secrets.json",
		Credentials:        "credentials.json",
		LockTimeout:        30 * time.Second,
		MaxRetries:         10,
		BackoffBase:        time.Second,
		ChunkSize:          8 * 1024 * 1024,
		Privacy:            "unlisted",
		APIRPS:             5,
		ListingConcurrency: 4,
		LogLevel:           "info",
		LogFormat:          "console",
	}
}

// Load builds the configuration.
// Priority: env vars (including .env) > config file > defaults
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if err := cfg.loadFromFile(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load config file: %w", err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads ytupload.yaml from the current directory or
// ~/.config/ytupload. It returns os.ErrNotExist when neither exists.
func (c *Config) loadFromFile() error {
	paths := []string{FileName}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "ytupload", FileName))
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}
	return os.ErrNotExist
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.CachePath == "" {
		return fmt.Errorf("cache_path must be set")
	}
	if c.LockTimeout <= 0 {
		return fmt.Errorf("lock_timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.BackoffBase <= 0 {
		return fmt.Errorf("backoff_base must be positive")
	}
	if c.ChunkSize < 0 || c.ChunkSize%chunkAlignment != 0 {
		return fmt.Errorf("chunk_size must be a multiple of %d bytes, got %d", chunkAlignment, c.ChunkSize)
	}
	switch c.Privacy {
	case "private", "unlisted", "public":
	default:
		return fmt.Errorf("privacy must be private, unlisted or public, got %q", c.Privacy)
	}
	if c.APIRPS < 0 {
		return fmt.Errorf("api_rps must be non-negative")
	}
	if c.ListingConcurrency <= 0 {
		return fmt.Errorf("listing_concurrency must be positive")
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:      c.LogLevel,
		Format:     strings.ToLower(c.LogFormat),
		OutputPath: c.LogFile,
	}
}

// Backoff returns the resumable upload retry schedule.
func (c *Config) Backoff() retry.Backoff {
	return retry.Backoff{Base: c.BackoffBase, MaxRetries: c.MaxRetries}
}
