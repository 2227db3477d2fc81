package server

import (
	"errors"
	"fmt"
)

// ErrorCode classifies room-operation failures for the wire protocol.
type ErrorCode string

const (
	ErrValidation    ErrorCode = "validation"
	ErrCapacity      ErrorCode = "capacity"
	ErrAuthorization ErrorCode = "authorization"
	ErrNotFound      ErrorCode = "not_found"
)

// Error is a structured failure returned by room operations. Operations that
// return an Error leave the room unmutated.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewValidationError builds a validation failure; used by transports that
// reject a message before it reaches a room.
func NewValidationError(format string, args ...any) *Error {
	return newError(ErrValidation, format, args...)
}

// NewNotFoundError builds a lookup failure.
func NewNotFoundError(format string, args ...any) *Error {
	return newError(ErrNotFound, format, args...)
}

// CodeOf extracts the error code, defaulting to validation for foreign errors.
func CodeOf(err error) ErrorCode {
	var structured *Error
	if errors.As(err, &structured) {
		return structured.Code
	}
	return ErrValidation
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
