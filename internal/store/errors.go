package store

import (
	"fmt"
	"net/http"
)

// Error is a storage error with an HTTP status code.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any store error with the same status, so ErrQuestionNotFound
// satisfies errors.Is(err, ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{
		Code:    e.Code,
		Message: msg,
		Err:     e.Err,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "resource not found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
	}

	ErrInvalidInput = &Error{
		Code:    http.StatusBadRequest,
		Message: "invalid input",
	}

	ErrUnauthorized = &Error{
		Code:    http.StatusUnauthorized,
		Message: "unauthorized",
	}

	// ErrBusy means a write kept losing transaction conflicts. The caller
	// may retry.
	ErrBusy = &Error{
		Code:    http.StatusServiceUnavailable,
		Message: "storage busy, please retry",
	}
)

// Entity-specific errors.
var (
	ErrQuestionNotFound = ErrNotFound.WithMessage("question not found")
	ErrAnswerNotFound   = ErrNotFound.WithMessage("answer not found")
	ErrUserNotFound     = ErrNotFound.WithMessage("user not found")
	ErrSessionNotFound  = ErrNotFound.WithMessage("session not found")
	ErrTagNotFound      = ErrNotFound.WithMessage("tag not found")

	ErrEmailExists    = ErrAlreadyExists.WithMessage("email already in use")
	ErrSessionExpired = ErrUnauthorized.WithMessage("session expired")
)
