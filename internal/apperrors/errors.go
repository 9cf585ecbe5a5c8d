package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the sentinel for missing resources. For annotation reads
	// it is an expected steady state (no draft yet), not a failure.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated is the sentinel for missing or invalid identity.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is the sentinel for role or ownership violations.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is the sentinel for lost claim races and locked submissions.
	ErrConflict = errors.New("conflict")
)

// ValidationError names the single offending field so the caller can fix it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
