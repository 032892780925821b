package config

import "errors"

var (
	// ErrInvalidConcurrency is returned when concurrency is not greater than 0
	ErrInvalidConcurrency = errors.New("concurrency must be greater than 0")
	// ErrInvalidMaxConnections is returned when max_connections is not greater than 0
	ErrInvalidMaxConnections = errors.New("max_connections must be greater than 0")
	// ErrInvalidMaxDepth is returned when max_depth is negative
	ErrInvalidMaxDepth = errors.New("max_depth cannot be negative")
	// ErrInvalidTimeout is returned when request timeout is not greater than 0
	ErrInvalidTimeout = errors.New("request_timeout must be greater than 0")
	// ErrEmptyUserAgent is returned when no user agent string is configured
	ErrEmptyUserAgent = errors.New("user_agent cannot be empty")
	// ErrEmptyDatabasePath is returned when database path is empty
	ErrEmptyDatabasePath = errors.New("database_path cannot be empty")
)
