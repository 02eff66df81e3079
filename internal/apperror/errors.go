// Package apperror defines the single error shape surfaced to API clients.
package apperror

import (
	"errors"
	"net/http"
)

// Error carries the message and HTTP status returned to the client.
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with the given status and message.
func New(statusCode int, message string) *Error {
	return &Error{StatusCode: statusCode, Message: message}
}

// Wrap attaches a client-facing status and message to an underlying error.
func Wrap(err error, statusCode int, message string) *Error {
	return &Error{StatusCode: statusCode, Message: message, Err: err}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Internal hides err from the client.
func Internal(err error) *Error {
	return Wrap(err, http.StatusInternalServerError, "internal server error")
}

// From returns err as an *Error, treating anything else as an internal error.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
