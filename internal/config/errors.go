package config

import "errors"

// Validation errors.
var (
	ErrInvalidThreads        = errors.New("threads must be at least 1")
	ErrInvalidRetries        = errors.New("retries must be at least 1")
	ErrInvalidDepth          = errors.New("depth must not be negative")
	ErrInvalidRelevancy      = errors.New("min relevancy must not be negative")
	ErrMissingDownloadFolder = errors.New("download folder must not be empty")
	ErrInvalidTimeout        = errors.New("timeout must be positive")
)
