// Package apperror defines the domain errors shared by the service layer and
// its transports. Each AppError wraps one sentinel so callers branch with
// errors.Is; HTTP handlers map the sentinel to a status code.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrUnavailable = errors.New("unavailable")
)

type AppError struct {
	Err     error  // sentinel
	Message string // shown to the user
	Field   string // optional: input field causing the error
	Cause   error  // optional: underlying infrastructure error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause to errors.Is and errors.As.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// WithMessage replaces the user-facing message.
func (e *AppError) WithMessage(msg string) *AppError {
	e.Message = msg
	return e
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Unavailable reports that a dependency (usually storage) failed and the
// operation was undone. HTTP handlers map it to 503.
func Unavailable(message string, cause error) *AppError {
	return &AppError{
		Err:     ErrUnavailable,
		Message: message,
		Cause:   cause,
	}
}
