// Package config provides configuration management for the device
// intelligence core MCP server.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the MCP server.
type Config struct {
	// Platform adapter connection.
	PlatformBaseURL string `json:"platform_base_url"`
	PlatformAPIKey  string `json:"platform_api_key,omitempty"` // from env only, never logged

	// HTTP client configuration.
	Timeout         time.Duration `json:"timeout"`
	MaxRetries      int           `json:"max_retries"`
	RetryWaitMin    time.Duration `json:"retry_wait_min"`
	RetryWaitMax    time.Duration `json:"retry_wait_max"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	IdleConnTimeout time.Duration `json:"idle_conn_timeout"`

	// AdapterTimeoutMs is the per-call deadline imposed on every platform
	// adapter request (C3/C4/C7's suspension points).
	AdapterTimeoutMs int `json:"adapter_timeout_ms"`

	// Rate limiting.
	RateLimit       int  `json:"rate_limit"`
	RateLimitBurst  int  `json:"rate_limit_burst"`
	EnableRateLimit bool `json:"enable_rate_limit"`

	// Security.
	TLSVerify bool `json:"tls_verify"`

	// Core component tunables (spec section 6, "Configuration (enumerated)").
	// SystemStatusSample is loaded, validated and shown by the config
	// resource; the status aggregator does not read it and always samples
	// at most 15 devices.
	FuzzyThreshold            float64 `json:"fuzzy_threshold"`
	CommandRingSize           int     `json:"command_ring_size"`
	RetentionDays             int     `json:"retention_days"`
	DefaultEventLimit         int     `json:"default_event_limit"`
	MaxEventLimit             int     `json:"max_event_limit"`
	SystemStatusSample        int     `json:"system_status_sample"`
	RecommendationCatalogPath string  `json:"recommendation_catalog_path"`

	// Observability.
	EnableTracing   bool `json:"enable_tracing"`
	EnableAuditLog  bool `json:"enable_audit_log"`
	MetricsEndpoint bool `json:"metrics_endpoint"`

	// Health & metrics HTTP server.
	HealthPort      int           `json:"health_port"`
	HealthBindAddr  string        `json:"health_bind_addr"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`

	// Logging.
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"` // json or console
}

// Load builds configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		RetryWaitMin:    1 * time.Second,
		RetryWaitMax:    30 * time.Second,
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
		RateLimit:       100,
		RateLimitBurst:  20,
		EnableRateLimit: true,
		TLSVerify:       true,
		LogLevel:        "info",
		LogFormat:       "json",

		AdapterTimeoutMs: 10_000,

		FuzzyThreshold:            0.6,
		CommandRingSize:           1000,
		RetentionDays:             7,
		DefaultEventLimit:         100,
		MaxEventLimit:             500,
		SystemStatusSample:        15,
		RecommendationCatalogPath: "internal/diagnostics/catalog.json",

		EnableTracing:   true,
		EnableAuditLog:  true,
		MetricsEndpoint: true,

		HealthPort:      8080,
		HealthBindAddr:  "127.0.0.1",
		ShutdownTimeout: 30 * time.Second,
	}

	loadFromEnv(cfg)

	return cfg, nil
}

func loadFromEnv(cfg *Config) {
	loadStringEnvs(cfg)
	loadDurationEnvs(cfg)
	loadIntEnvs(cfg)
	loadFloatEnvs(cfg)
	loadBoolEnvs(cfg)
}

func loadStringEnvs(cfg *Config) {
	assignString(&cfg.PlatformBaseURL, "PLATFORM_BASE_URL")
	assignString(&cfg.PlatformAPIKey, "PLATFORM_API_KEY")
	assignString(&cfg.RecommendationCatalogPath, "RECOMMENDATION_CATALOG_PATH")
	assignString(&cfg.LogLevel, "LOG_LEVEL")
	assignString(&cfg.LogFormat, "LOG_FORMAT")
	assignString(&cfg.HealthBindAddr, "HEALTH_BIND_ADDR")
}

func loadDurationEnvs(cfg *Config) {
	assignDuration(&cfg.Timeout, "ADAPTER_TIMEOUT")
	assignDuration(&cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT")
}

func loadIntEnvs(cfg *Config) {
	assignInt(&cfg.MaxRetries, "MAX_RETRIES")
	assignInt(&cfg.RateLimit, "RATE_LIMIT")
	assignInt(&cfg.RateLimitBurst, "RATE_LIMIT_BURST")
	assignInt(&cfg.HealthPort, "HEALTH_PORT")
	assignInt(&cfg.AdapterTimeoutMs, "ADAPTER_TIMEOUT_MS")
	assignInt(&cfg.CommandRingSize, "COMMAND_RING_SIZE")
	assignInt(&cfg.RetentionDays, "RETENTION_DAYS")
	assignInt(&cfg.DefaultEventLimit, "DEFAULT_EVENT_LIMIT")
	assignInt(&cfg.MaxEventLimit, "MAX_EVENT_LIMIT")
	assignInt(&cfg.SystemStatusSample, "SYSTEM_STATUS_SAMPLE")

	// RetentionDays is platform-imposed; never let configuration push it
	// past the hard 7-day ceiling.
	if cfg.RetentionDays > 7 {
		cfg.RetentionDays = 7
	}
}

func loadFloatEnvs(cfg *Config) {
	if v, ok := lookupEnv("FUZZY_THRESHOLD"); ok {
		if threshold, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.FuzzyThreshold = threshold
		}
	}
}

func loadBoolEnvs(cfg *Config) {
	assignBool(&cfg.EnableRateLimit, "ENABLE_RATE_LIMIT")
	assignBool(&cfg.TLSVerify, "TLS_VERIFY")
	assignBool(&cfg.EnableTracing, "ENABLE_TRACING")
	assignBool(&cfg.EnableAuditLog, "ENABLE_AUDIT_LOG")
	assignBool(&cfg.MetricsEndpoint, "METRICS_ENDPOINT")
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.PlatformBaseURL == "" {
		return errors.New("PLATFORM_BASE_URL is required")
	}
	if c.PlatformAPIKey == "" {
		return errors.New("PLATFORM_API_KEY is required")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return errors.New("max_retries must be non-negative")
	}
	if c.RateLimit <= 0 && c.EnableRateLimit {
		return errors.New("rate_limit must be positive when rate limiting is enabled")
	}
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
		return errors.New("fuzzy_threshold must be in (0, 1]")
	}
	if c.CommandRingSize <= 0 {
		return errors.New("command_ring_size must be positive")
	}
	if c.RetentionDays <= 0 || c.RetentionDays > 7 {
		return errors.New("retention_days must be in [1, 7]")
	}
	if c.DefaultEventLimit <= 0 || c.DefaultEventLimit > c.MaxEventLimit {
		return errors.New("default_event_limit must be positive and not exceed max_event_limit")
	}
	if c.SystemStatusSample <= 0 {
		return errors.New("system_status_sample must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}

// Redact returns a copy of the config with sensitive data removed.
func (c *Config) Redact() *Config {
	redacted := *c
	redacted.PlatformAPIKey = MaskAPIKey(redacted.PlatformAPIKey)
	return &redacted
}

// MaskAPIKey returns a masked version of an API key for safe logging.
func MaskAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return "***"
	}
	return apiKey[:4] + "..." + apiKey[len(apiKey)-4:]
}
