// Package errs provides structured domain errors with machine-readable codes.
package errs

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeUnauthenticated means the request carried no resolvable identity.
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	// CodeForbidden means the identity resolved to no known User, or the
	// User's role does not allow the operation.
	CodeForbidden Code = "FORBIDDEN"
	// CodeInvalidRequest means the payload violates a domain rule.
	CodeInvalidRequest Code = "INVALID_REQUEST"
	// CodeNotFound means the resource does not exist or is not visible.
	CodeNotFound Code = "NOT_FOUND"
	// CodeConflict means a uniqueness constraint was violated at commit
	// time; the operation may be retried.
	CodeConflict Code = "CONFLICT"
)

// Error is a domain error carrying a code and a user-facing message.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New returns an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
