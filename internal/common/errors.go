// Package common defines shared constants and sentinel errors used across
// the repository, service and transport layers. Callers should use errors.Is
// and errors.As to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Error classes for client-facing validation failures.
	ErrorValidation = errors.New("validation error")
	ErrorConflict   = errors.New("conflict")
)

// ValidationError is a client-facing failure with a stable message.
// It unwraps to its class (ErrorValidation or ErrorConflict).
type ValidationError struct {
	Message string
	Class   error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Class }

func newValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg, Class: ErrorValidation}
}

var (
	ErrMissingName        = newValidationError("Missing name")
	ErrMissingType        = newValidationError("Missing type")
	ErrMissingData        = newValidationError("Missing data")
	ErrParentNotFound     = newValidationError("Parent not found")
	ErrParentNotFolder    = newValidationError("Parent is not a folder")
	ErrFolderHasNoContent = newValidationError("A folder doesn't have content")
	ErrInvalidSize        = newValidationError("Invalid size")

	ErrMissingEmail    = newValidationError("Missing email")
	ErrMissingPassword = newValidationError("Missing password")
	ErrPasswordTooLong = newValidationError("Password too long")

	// ErrAlreadyExists is reported on duplicate registration; it shares the
	// validation code path but belongs to the conflict class.
	ErrAlreadyExists = &ValidationError{Message: "Already exist", Class: ErrorConflict}
)
