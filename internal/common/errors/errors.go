// Package errors provides standardized error handling for the sync service.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed      ErrorCode = "VALIDATION_FAILED"
	ErrCodeNotFound              ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeUpstreamRequestFailed ErrorCode = "UPSTREAM_REQUEST_FAILED"
	ErrCodeUpstreamUnreachable   ErrorCode = "UPSTREAM_UNREACHABLE"
	ErrCodeMalformedOrder        ErrorCode = "MALFORMED_ORDER"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Status    int       `json:"-"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// HTTPStatus returns the client-facing status code for the error.
func (e *StandardError) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Code {
	case ErrCodeValidationFailed, ErrCodeMalformedOrder:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUpstreamUnreachable:
		return http.StatusServiceUnavailable
	case ErrCodeUpstreamRequestFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError creates a non-retryable request validation error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError creates a non-retryable lookup error.
func NewNotFoundError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   "Record not found",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamError creates an error for a non-2xx upstream response,
// carrying the upstream status through to the caller.
func NewUpstreamError(system string, status int, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamRequestFailed,
		Message:   fmt.Sprintf("Upstream '%s' request failed", system),
		Details:   details,
		Status:    status,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamUnreachableError creates a retryable connection error.
func NewUpstreamUnreachableError(system string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamUnreachable,
		Message:   fmt.Sprintf("Could not connect to '%s', check the configured URL", system),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedOrderError creates a per-order recoverable mapping error.
func NewMalformedOrderError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedOrder,
		Message:   "Source order could not be mapped",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps anything unexpected.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// AsStandard normalizes any error to a StandardError.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// IsCode reports whether err is a StandardError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// IsMalformedOrder reports whether err is a per-order mapping failure.
func IsMalformedOrder(err error) bool {
	return IsCode(err, ErrCodeMalformedOrder)
}
