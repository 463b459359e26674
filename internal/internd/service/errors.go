package service

import (
	"fmt"
	"net/http"
)

// Error codes carried in the API error envelope
const (
	CodeInvalidRequest    = "invalid_request"
	CodeUnauthorized      = "unauthorized"
	CodeForbidden         = "forbidden"
	CodeNotFound          = "not_found"
	CodeConflict          = "conflict"
	CodeInvalidTransition = "invalid_transition"
	CodeRateLimited       = "rate_limited"
	CodeInternal          = "internal_error"
)

// Error is a domain error with an API code and a client-safe message.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error code to a response status.
func (e *Error) HTTPStatus() int {
	return StatusForCode(e.Code)
}

// StatusForCode maps an API error code to an HTTP status
func StatusForCode(code string) int {
	switch code {
	case CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvalidTransition:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func newError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func invalidRequest(message string, err error) *Error {
	return newError(CodeInvalidRequest, message, err)
}

func unauthorized(message string) *Error {
	return newError(CodeUnauthorized, message, nil)
}

func forbidden(message string) *Error {
	return newError(CodeForbidden, message, nil)
}

func notFound(message string, err error) *Error {
	return newError(CodeNotFound, message, err)
}

func conflict(message string, err error) *Error {
	return newError(CodeConflict, message, err)
}

func invalidTransition(message string, err error) *Error {
	return newError(CodeInvalidTransition, message, err)
}

func internal(message string, err error) *Error {
	return newError(CodeInternal, message, err)
}
