// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidAction is returned when a task control action is not
	// one of start, stop or restart.
	ErrInvalidAction = errors.New("invalid control action")
)

// ValidationError carries the field that failed validation alongside a
// sentinel error so callers can match with errors.Is while handlers
// surface a field-specific message.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "validation failed: " + e.Field + " " + e.Message
}

// Unwrap returns the wrapped sentinel to support errors.Is.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}
