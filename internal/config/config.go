// Package config provides configuration management for the crawler.
// It defines the recognized knobs, their defaults, and validation.
package config

import "time"

// CrawlConfig holds crawler configuration.
//
// Concurrency (worker pool size) and MaxConnections (concurrent fetch bound)
// are two independent knobs: a pool larger than the connection limit simply
// queues on admission, and a smaller one never saturates it.
type CrawlConfig struct {
	SeedURLs        []string      `mapstructure:"seed_urls" yaml:"seed_urls"`               // Starting URLs
	Concurrency     int           `mapstructure:"concurrency" yaml:"concurrency"`           // Number of workers
	MaxConnections  int           `mapstructure:"max_connections" yaml:"max_connections"`   // Bound on concurrent fetches
	PolitenessDelay time.Duration `mapstructure:"politeness_delay" yaml:"politeness_delay"` // Per-worker pause between URLs
	MaxDepth        int           `mapstructure:"max_depth" yaml:"max_depth"`               // Inclusive link-discovery depth bound
	RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`   // HTTP request timeout
	UserAgent       string        `mapstructure:"user_agent" yaml:"user_agent"`             // UA header and robots agent token

	// Persistence
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"` // SQLite page store path

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"` // debug, info, warn, error
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`   // Empty means console only
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *CrawlConfig {
	return &CrawlConfig{
		Concurrency:     4,
		MaxConnections:  8,
		PolitenessDelay: 1 * time.Second,
		MaxDepth:        3,
		RequestTimeout:  30 * time.Second,
		UserAgent:       "Kumo/1.0",
		DatabasePath:    "./kumo.db",
		LogLevel:        "info",
	}
}

// Validate checks the configuration and normalizes borderline values.
func (c *CrawlConfig) Validate() error {
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxConnections <= 0 {
		return ErrInvalidMaxConnections
	}
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.UserAgent == "" {
		return ErrEmptyUserAgent
	}
	if c.DatabasePath == "" {
		return ErrEmptyDatabasePath
	}

	// Keep a floor under the pacing delay so workers cannot hammer a host.
	if c.PolitenessDelay < 10*time.Millisecond {
		c.PolitenessDelay = 10 * time.Millisecond
	}

	return nil
}
