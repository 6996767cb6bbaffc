package models

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable marks an upstream fetch that failed or returned malformed data
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInsufficientHistory marks a section that had too few bars to compute
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrNoCandidate marks an analysis step that found no valid output
	ErrNoCandidate = errors.New("no candidate")
)

// ConfigError is a fatal configuration problem. It halts the tick.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}
