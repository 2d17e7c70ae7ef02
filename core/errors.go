package core

import "github.com/pkg/errors"

// FieldError ties a rejected value to the request field it came from, e.g. "assigned_to_id".
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a business rule violation found after the payload itself validated,
// such as an email already synced by another subject. The API answers it with 400.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

// NewShutdownError marks a failure after which the storage can no longer be trusted,
// like a transaction that could not be rolled back. The API stops gracefully once it handled it.
func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

// IsShutdown looks through wrapped errors.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
