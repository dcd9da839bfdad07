package database

import "errors"

// ErrNotFound is returned when a requested row does not exist.
// Callers should check with errors.Is().
var ErrNotFound = errors.New("row not found")
