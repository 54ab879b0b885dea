// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults
// for the server, dialog engine, scraper, and optional features.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir         string        // Data directory for SQLite database
	CacheTTL        time.Duration // Absolute expiration for scraped schedule data
	ConversationTTL time.Duration // Max age of an unanswered clarification dialog
	RefreshInterval time.Duration // How often the scraper refreshes schedule data

	// Dialog Configuration
	DefaultOrganization string // Organization assumed when a profile has none

	// LLM Configuration (optional, rule classifier used when empty)
	LLMAPIKey   string
	LLMModel    string
	LLMEndpoint string

	// Scraper Configuration
	ScraperTimeout    time.Duration
	ScraperMaxRetries int
	ScraperBaseURLs   []string // Mirror list, tried in order

	// Rate Limits (Token Bucket Algorithm)
	UserRateLimitBurst        float64 // Maximum burst tokens per user
	UserRateLimitRefillPerSec float64 // Tokens refilled per second
	GlobalRateLimitRPS        float64 // Global rate limit in requests per second

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth
	MetricsPassword string // Password for /metrics endpoint (empty = no auth)

	// Sentry Configuration (optional)
	SentryDSN         string
	SentryEnvironment string
	SentrySampleRate  float64

	// Backup Configuration (optional, S3-compatible storage)
	BackupEnabled     bool
	BackupInterval    time.Duration
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Bucket          string
	S3Key             string
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		// Server Configuration
		Port:            getEnv("PORT", "10000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		// Data Configuration
		DataDir:         getEnv("DATA_DIR", getDefaultDataDir()),
		CacheTTL:        getDurationEnv("CACHE_TTL", 168*time.Hour), // 7 days
		ConversationTTL: getDurationEnv("CONVERSATION_TTL", 30*time.Minute),
		RefreshInterval: getDurationEnv("REFRESH_INTERVAL", 24*time.Hour),

		// Dialog Configuration
		DefaultOrganization: getEnv("DEFAULT_ORGANIZATION", ""),

		// LLM Configuration
		LLMAPIKey:   getEnv("LLM_API_KEY", ""),
		LLMModel:    getEnv("LLM_MODEL", ""),
		LLMEndpoint: getEnv("LLM_ENDPOINT", ""),

		// Scraper Configuration
		ScraperTimeout:    getDurationEnv("SCRAPER_TIMEOUT", ScraperRequest),
		ScraperMaxRetries: getIntEnv("SCRAPER_MAX_RETRIES", 5),
		ScraperBaseURLs:   getListEnv("SCRAPER_BASE_URLS", nil),

		// Rate Limits
		UserRateLimitBurst:        getFloatEnv("USER_RATE_LIMIT_BURST", 15.0),
		UserRateLimitRefillPerSec: getFloatEnv("USER_RATE_LIMIT_REFILL_PER_SEC", 0.5),
		GlobalRateLimitRPS:        getFloatEnv("GLOBAL_RATE_LIMIT_RPS", 100.0),

		// Metrics Authentication
		MetricsUsername: getEnv("METRICS_USERNAME", "prometheus"),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		// Sentry Configuration
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", "production"),
		SentrySampleRate:  getFloatEnv("SENTRY_SAMPLE_RATE", 1.0),

		// Backup Configuration
		BackupEnabled:     getBoolEnv("BACKUP_ENABLED", false),
		BackupInterval:    getDurationEnv("BACKUP_INTERVAL", 6*time.Hour),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3Key:             getEnv("S3_KEY", "sagebot/cache.db.zst"),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_TTL must be positive, got %v", c.CacheTTL))
	}
	if c.ConversationTTL <= 0 {
		errs = append(errs, fmt.Errorf("CONVERSATION_TTL must be positive, got %v", c.ConversationTTL))
	}
	if c.ScraperTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SCRAPER_TIMEOUT must be positive, got %v", c.ScraperTimeout))
	}
	if c.ScraperMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("SCRAPER_MAX_RETRIES cannot be negative, got %d", c.ScraperMaxRetries))
	}
	if c.LLMAPIKey != "" && (c.LLMModel == "" || c.LLMEndpoint == "") {
		errs = append(errs, errors.New("LLM_MODEL and LLM_ENDPOINT are required when LLM_API_KEY is set"))
	}
	if c.BackupEnabled {
		if c.S3Endpoint == "" || c.S3AccessKeyID == "" || c.S3SecretAccessKey == "" || c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_ENDPOINT, S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY and S3_BUCKET are required when BACKUP_ENABLED is set"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getListEnv retrieves a comma-separated environment variable
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// HasLLMProvider returns true if an LLM classifier is configured.
func (c *Config) HasLLMProvider() bool {
	return c.LLMAPIKey != ""
}
