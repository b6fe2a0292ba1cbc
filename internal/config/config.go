package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Gallery   GalleryConfig   `yaml:"gallery"`
	Importer  ImporterConfig  `yaml:"importer"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	UserAgent string          `yaml:"user_agent"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
}

// GalleryConfig contains gallery loader settings
type GalleryConfig struct {
	QueryTimeoutSeconds int `yaml:"query_timeout_seconds"`
	MaxRecords          int `yaml:"max_records"`
}

// ImporterConfig contains external listing import settings
type ImporterConfig struct {
	// RunnerUserID is the placeholder account imported records are
	// attached to for access-control bookkeeping.
	RunnerUserID        string `yaml:"runner_user_id"`
	RequestDelaySeconds int    `yaml:"request_delay_seconds"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
	MaxRetries          int    `yaml:"max_retries"`
	RetryDelaySeconds   int    `yaml:"retry_delay_seconds"`
	MaxRequestsPerDay   int    `yaml:"max_requests_per_day"`
	DailyRunEnabled     bool   `yaml:"daily_run_enabled"`
	DailyRunTime        string `yaml:"daily_run_time"`
}

// RateLimitConfig contains rate limiting settings for the import API
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level        string `yaml:"level"`
	LogRequests  bool   `yaml:"log_requests"`
	LogResponses bool   `yaml:"log_responses"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Gallery: GalleryConfig{
			QueryTimeoutSeconds: 10,
			MaxRecords:          100,
		},
		Importer: ImporterConfig{
			RequestDelaySeconds: 2,
			TimeoutSeconds:      30,
			MaxRetries:          3,
			RetryDelaySeconds:   2,
			MaxRequestsPerDay:   5000,
			DailyRunEnabled:     false,
			DailyRunTime:        "02:00",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 30,
			RequestsPerHour:   1800,
		},
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		Logging: LoggingConfig{
			Level:        "info",
			LogRequests:  true,
			LogResponses: false,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	// Read file
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// GetQueryTimeout returns the gallery query timeout as a duration
func (c *GalleryConfig) GetQueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

// GetRequestDelay returns the request delay as a duration
func (c *ImporterConfig) GetRequestDelay() time.Duration {
	return time.Duration(c.RequestDelaySeconds) * time.Second
}

// GetTimeout returns the timeout as a duration
func (c *ImporterConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetRetryDelay returns the retry delay as a duration
func (c *ImporterConfig) GetRetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}
