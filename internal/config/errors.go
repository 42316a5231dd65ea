package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is matched by every error FromEnv and Validate return.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError is fatal and only produced at startup.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", ErrInvalidConfig, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrInvalidConfig, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() []error { return []error{ErrInvalidConfig, e.Err} }

func fieldError(field string, err error) error {
	return &ConfigError{Field: field, Err: err}
}
