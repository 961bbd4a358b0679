package utils

import "errors"

// Error kinds surfaced by the booking engine. Callers wrap them with
// context and classify with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidState    = errors.New("invalid state")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("authentication required")
)

// ValidationError carries field errors from request validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + FormatValidationErrors(e.Fields)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}
