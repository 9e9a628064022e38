package config

import (
	"errors"
)

// Sentinel error kinds for this package, checked by callers via errors.Is.
var (
	// ErrInvalidConfig marks a configuration that failed validation.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig marks a failure to read or parse configuration sources.
	ErrLoadConfig = errors.New("load config failed")
)
