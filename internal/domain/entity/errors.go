package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrCurrencyMismatch is returned when invoice, purchase order, or
	// goods receipt currencies disagree.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrConcurrentModification is returned when an optimistic-concurrency
	// precondition failed at write time.
	ErrConcurrentModification = errors.New("invoice was modified concurrently")
)

// ValidationError reports malformed input rejected before computation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for a field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
