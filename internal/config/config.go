// Meetupsync - Live Meetup Map State Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meetupsync

package config

import (
	"strings"
	"time"
)

// Config holds all settings for a sync session, resolved once at start.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values for every optional setting
//  2. Config File: optional YAML file (CONFIG_PATH, meetupsync.yaml, /etc/meetupsync/config.yaml)
//  3. Environment Variables: override any mapped setting
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	c := client.New(&cfg.API)
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	API        APIConfig        `koanf:"api"`
	Stream     StreamConfig     `koanf:"stream"`
	Cache      CacheConfig      `koanf:"cache"`
	Identity   IdentityConfig   `koanf:"identity"`
	Logging    LoggingConfig    `koanf:"logging"`
	Server     ServerConfig     `koanf:"server"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// APIConfig holds backend request/response settings.
//
// Environment Variables:
//   - API_BASE_URL: backend address (default: http://localhost:8000)
//   - API_TIMEOUT: per-request timeout (default: 30s)
//   - API_RATE_LIMIT_RPS: outgoing requests per second, 0 disables (default: 10)
//   - API_RATE_LIMIT_BURST: limiter burst (default: 20)
type APIConfig struct {
	BaseURL        string        `koanf:"base_url" validate:"required"`
	Timeout        time.Duration `koanf:"timeout" validate:"gte=0"`
	RateLimitRPS   float64       `koanf:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int           `koanf:"rate_limit_burst" validate:"gte=0"`
	Breaker        BreakerConfig `koanf:"breaker"`
}

// BreakerConfig tunes the circuit breaker in front of the backend.
type BreakerConfig struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32 `koanf:"max_requests"`
	// MinRequests before the failure ratio is considered.
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio" validate:"gt=0,lte=1"`
	Interval     time.Duration `koanf:"interval" validate:"gte=0"`
	Timeout      time.Duration `koanf:"timeout" validate:"gte=0"`
}

// StreamConfig holds push stream settings.
//
// Environment Variables:
//   - STREAM_BASE_URL: per-meetup stream address (default: API_BASE_URL)
//   - STREAM_GLOBAL_URL: global status stream, empty disables it
//   - STREAM_BACKOFF_FLOOR / STREAM_BACKOFF_CEILING: reconnect delay bounds (1s / 30s)
//   - STREAM_DEBUG: log stream lifecycle and dropped frames
type StreamConfig struct {
	BaseURL        string        `koanf:"base_url"`
	GlobalURL      string        `koanf:"global_url"`
	BackoffFloor   time.Duration `koanf:"backoff_floor" validate:"gt=0"`
	BackoffCeiling time.Duration `koanf:"backoff_ceiling" validate:"gt=0"`
	Debug          bool          `koanf:"debug"`
}

// CacheConfig holds read cache settings. A zero TTL keeps entries until
// they are invalidated or deleted.
type CacheConfig struct {
	TTL time.Duration `koanf:"ttl" validate:"gte=0"`
}

// IdentityConfig is the placeholder user sent on join and leave.
type IdentityConfig struct {
	UserID int64   `koanf:"user_id" validate:"gt=0"`
	Lat    float64 `koanf:"lat" validate:"latitude"`
	Lng    float64 `koanf:"lng" validate:"longitude"`
}

// LoggingConfig holds logging configuration.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level" validate:"oneof=trace debug info warn error"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// ServerConfig holds the local companion server that pushes cache changes
// to a map UI.
type ServerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Addr            string        `koanf:"addr" validate:"required_if=Enabled true"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`

	// RateLimitRequests caps write requests per client IP per
	// RateLimitWindow. Zero disables the limit.
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gte=0"`
}

// SupervisorConfig mirrors the supervisor tree's restart policy.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gte=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gte=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gte=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`
}

// StreamBaseURL returns the address per-meetup streams hang off,
// falling back to the API address.
func (c *Config) StreamBaseURL() string {
	base := c.Stream.BaseURL
	if base == "" {
		base = c.API.BaseURL
	}
	return strings.TrimRight(base, "/")
}

// GlobalStreamEnabled reports whether a global stream address is set.
func (c *Config) GlobalStreamEnabled() bool {
	return strings.TrimSpace(c.Stream.GlobalURL) != ""
}

// EffectiveLogLevel returns the configured level, forced to debug when
// stream debugging is on.
func (c *Config) EffectiveLogLevel() string {
	if c.Stream.Debug {
		switch strings.ToLower(c.Logging.Level) {
		case "trace", "debug":
			return c.Logging.Level
		}
		return "debug"
	}
	return c.Logging.Level
}

// Load reads configuration from all sources in order of priority:
//  1. Built-in defaults
//  2. Config file (CONFIG_PATH or a default path)
//  3. Environment variables
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
