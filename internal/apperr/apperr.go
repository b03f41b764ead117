package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Type classifies an application error.
type Type string

const (
	TypeValidation Type = "validation_error"
	TypeNotFound   Type = "not_found"
	TypeUpstream   Type = "upstream_error"
	TypeTimeout    Type = "timeout"
	TypeInternal   Type = "internal_error"
)

// Error is an application error carrying a client-facing message.
type Error struct {
	Type    Type
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Code returns the machine-readable code sent in the X-Error-Code header.
func (e *Error) Code() string {
	switch e.Type {
	case TypeValidation:
		return "BAD_REQUEST"
	case TypeNotFound:
		return "NOT_FOUND"
	case TypeUpstream:
		return "UPSTREAM_UNAVAILABLE"
	case TypeTimeout:
		return "TIMEOUT"
	default:
		return "INTERNAL_ERROR"
	}
}

// Status returns the HTTP status for the error type.
func (e *Error) Status() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeUpstream:
		return http.StatusBadGateway
	case TypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func New(t Type, message string, err error) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

func Validation(message string) *Error { return New(TypeValidation, message, nil) }

func Upstream(message string, err error) *Error { return New(TypeUpstream, message, err) }

func Internal(message string, err error) *Error { return New(TypeInternal, message, err) }

// From converts any error into an *Error. Context deadline errors become
// timeouts; unknown errors become internal errors.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Type != TypeTimeout && errors.Is(err, context.DeadlineExceeded) {
			return New(TypeTimeout, "Request timed out.", err)
		}
		return ae
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(TypeTimeout, "Request timed out.", err)
	}
	return Internal("Internal server error.", err)
}

// Is reports whether err is an application error of type t.
func Is(err error, t Type) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Type == t
}
