// Package logger provides logging functionality for the application.
package logger

import "errors"

// Common errors returned by the logger package.
var (
	// ErrNilConfig is returned when a nil configuration is provided.
	ErrNilConfig = errors.New("logger config cannot be nil")
	// ErrInvalidLevel is returned when an invalid logging level is provided.
	ErrInvalidLevel = errors.New("invalid logging level")
)
