// Package apperr defines the error taxonomy surfaced to the route layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure.
type Code string

const (
	CodeValidation Code = "VALIDATION_FAILED"
	CodeNotFound   Code = "NOT_FOUND"
	CodeLocked     Code = "PLAN_LOCKED"
	CodeGeneration Code = "GENERATION_FAILED"
	CodeStorage    Code = "STORAGE_UNAVAILABLE"
)

// Error is an application error with a user-displayable message.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status the route layer should answer with.
func (e *Error) StatusCode() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeLocked:
		return http.StatusConflict
	case CodeGeneration:
		return http.StatusBadGateway
	case CodeStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Validation reports a missing or malformed request field.
func Validation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a day, recipe or task that does not exist.
func NotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Locked reports an approval attempted after the deadline.
func Locked(format string, args ...any) *Error {
	return &Error{Code: CodeLocked, Message: fmt.Sprintf(format, args...)}
}

// Generation reports an AI generator failure or insufficient data to generate.
func Generation(cause error, format string, args ...any) *Error {
	return &Error{Code: CodeGeneration, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Storage reports an unavailable key-value backend.
func Storage(cause error, op, key string) *Error {
	return &Error{Code: CodeStorage, Message: fmt.Sprintf("failed to %s %q", op, key), Cause: cause}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}
