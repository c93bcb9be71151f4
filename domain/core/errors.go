package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound             = errors.New("resource not found")
	ErrInterventionNotFound = fmt.Errorf("%w: intervention", ErrNotFound)
	ErrPatternNotFound      = fmt.Errorf("%w: pattern", ErrNotFound)

	// Analytical errors
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrStrategyFailed   = errors.New("forecast strategy failed")

	// Validation errors
	ErrInvalidCategory  = errors.New("invalid event category")
	ErrInvalidUrgency   = errors.New("invalid intervention urgency")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrConfidenceBounds = errors.New("confidence outside allowed range")
	ErrSampleTooSmall   = errors.New("sample size below minimum evidence gate")
)

// NewNotFoundError builds a not-found error with context.
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// NewValidationError builds a field-level validation error.
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// IsNotFoundError reports whether err is a not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInsufficientData reports whether err means too few samples. Callers treat
// this as an empty result except where zero input is itself invalid.
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}
