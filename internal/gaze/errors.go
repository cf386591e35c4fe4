package gaze

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is matched by every *ConfigError.
	ErrInvalidConfig = errors.New("invalid segmentation config")

	// ErrZeroTimeDelta reports consecutive samples sharing a timestamp.
	ErrZeroTimeDelta = errors.New("zero time delta between samples")
)

// ConfigError describes a rejected configuration field.
type ConfigError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s=%v %s", ErrInvalidConfig, e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// ZeroDeltaError lists the velocity indices whose sample pair had no
// elapsed time. The speed at those indices is +Inf.
type ZeroDeltaError struct {
	Indices []int
}

func (e *ZeroDeltaError) Error() string {
	return fmt.Sprintf("%s at %d velocity index(es), first at %d", ErrZeroTimeDelta, len(e.Indices), e.Indices[0])
}

func (e *ZeroDeltaError) Unwrap() error { return ErrZeroTimeDelta }
