package ingest

import (
	"errors"
)

var (
	// ErrUnauthorized is returned when an operation runs without a resolved identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNoProject is returned when the caller has no project to attach a write to,
	// or the project lookup itself failed.
	ErrNoProject = errors.New("no projects found")
)

// ValidationError reports a request that is malformed or names an unknown enum value.
// Message is safe to return to the caller verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(message string) error {
	return &ValidationError{Message: message}
}

// PersistenceError reports a failed backend call. Message is the fixed,
// caller-facing description; Err is the underlying cause and is only logged.
type PersistenceError struct {
	Message string
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
