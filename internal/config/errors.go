package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and the loaders so that
// callers can use errors.Is() while users still get readable messages.
var (
	// ErrInvalidListenAddress is returned when the API listen address is empty.
	ErrInvalidListenAddress = errors.New("invalid listen address: must not be empty")

	// ErrInvalidTimeout is returned when a page or fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidConcurrency is returned when the fetch concurrency is negative.
	// Use 0 for no bound.
	ErrInvalidConcurrency = errors.New("invalid max concurrent fetches: must be non-negative")

	// ErrInvalidFetchRate is returned when the fetch rate is negative.
	// Use 0 for no pacing.
	ErrInvalidFetchRate = errors.New("invalid fetch rate: must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidCacheSize is returned when the pattern cache size is not positive.
	ErrInvalidCacheSize = errors.New("invalid pattern cache size: must be positive")

	// ErrInvalidValue is returned when a config file or environment value
	// cannot be parsed.
	ErrInvalidValue = errors.New("invalid configuration value")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
