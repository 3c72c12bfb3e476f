package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrContention    = errors.New("storage contention")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// InvalidChangeDataError reports a change payload whose variant does not
// match the entity kind being processed. This indicates a bug in whatever
// produced the operation, so it is propagated as a hard failure instead of
// being collected with the per-operation failures.
type InvalidChangeDataError struct {
	Expected  string
	Actual    string
	Operation string
}

func (e *InvalidChangeDataError) Error() string {
	return fmt.Sprintf("invalid change data while %s: expected %s, got %s",
		e.Operation, e.Expected, e.Actual)
}

// NewInvalidChangeDataError builds an InvalidChangeDataError from the payload
// actually received.
func NewInvalidChangeDataError(expected string, actual ChangeData, operation string) *InvalidChangeDataError {
	return &InvalidChangeDataError{
		Expected:  expected,
		Actual:    fmt.Sprintf("%T", actual),
		Operation: operation,
	}
}
