package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// HTTP settings
	BindAddr string

	// Region store settings
	RegionsPath string
	PostgresDSN string // when set, regions are read from PostgreSQL instead of the YAML file

	// Classifier settings
	LexiconPath string // optional YAML lexicon; built-in table is used when empty

	// Feed settings
	FeedTimeout      time.Duration
	FetchConcurrency int
	RetryAttempts    int
	RetryDelay       time.Duration

	// Result cache settings
	CacheTTL   time.Duration
	CacheSweep time.Duration

	// Aggregation limits
	DefaultLimit int
	MaxLimit     int

	// App settings
	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		BindAddr:         "0.0.0.0:8080",
		RegionsPath:      "configs/regions.yaml",
		FeedTimeout:      10 * time.Second,
		FetchConcurrency: 8,
		RetryAttempts:    2,
		RetryDelay:       2 * time.Second,
		CacheTTL:         180 * time.Second,
		CacheSweep:       60 * time.Second,
		DefaultLimit:     30,
		MaxLimit:         100,
	}

	cfg.BindAddr = getEnvOrDefault("BIND_ADDR", cfg.BindAddr)
	cfg.RegionsPath = getEnvOrDefault("REGIONS_CONFIG_PATH", cfg.RegionsPath)
	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")
	cfg.LexiconPath = os.Getenv("LEXICON_CONFIG_PATH")

	cfg.FeedTimeout = getEnvDurationOrDefault("FEED_TIMEOUT", cfg.FeedTimeout)
	cfg.FetchConcurrency = getEnvIntOrDefault("FETCH_CONCURRENCY", cfg.FetchConcurrency)
	cfg.RetryAttempts = getEnvIntOrDefault("FEED_RETRY_ATTEMPTS", cfg.RetryAttempts)
	cfg.RetryDelay = getEnvDurationOrDefault("FEED_RETRY_DELAY", cfg.RetryDelay)

	cfg.CacheTTL = getEnvDurationOrDefault("CACHE_TTL", cfg.CacheTTL)
	cfg.CacheSweep = getEnvDurationOrDefault("CACHE_SWEEP_INTERVAL", cfg.CacheSweep)

	cfg.DefaultLimit = getEnvIntOrDefault("DEFAULT_NEWS_LIMIT", cfg.DefaultLimit)
	cfg.MaxLimit = getEnvIntOrDefault("MAX_NEWS_LIMIT", cfg.MaxLimit)

	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.BindAddr == "" {
		return fmt.Errorf("BIND_ADDR is required")
	}
	if c.PostgresDSN == "" && c.RegionsPath == "" {
		return fmt.Errorf("REGIONS_CONFIG_PATH is required when POSTGRES_DSN is not set")
	}
	if c.FeedTimeout <= 0 {
		return fmt.Errorf("FEED_TIMEOUT must be positive")
	}
	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("FETCH_CONCURRENCY must be positive")
	}
	if c.RetryAttempts <= 0 {
		return fmt.Errorf("FEED_RETRY_ATTEMPTS must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.DefaultLimit < 1 {
		return fmt.Errorf("DEFAULT_NEWS_LIMIT must be at least 1")
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("MAX_NEWS_LIMIT cannot be below DEFAULT_NEWS_LIMIT")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
