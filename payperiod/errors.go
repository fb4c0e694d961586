package payperiod

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is wrapped by every ValidationError.
	ErrInvalidConfig = errors.New("invalid pay period config")

	// ErrGeneration is wrapped by every GenerationError.
	ErrGeneration = errors.New("period generation failed")
)

// ValidationError names the config field that is missing or malformed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidConfig }

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// GenerationError reports a config combination that cannot produce a
// contiguous period sequence.
type GenerationError struct {
	PeriodType PeriodType
	Reason     string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("cannot generate %s periods: %s", e.PeriodType, e.Reason)
}

func (e *GenerationError) Unwrap() error { return ErrGeneration }
