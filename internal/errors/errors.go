// Package errors defines the stable error codes shared by every component
// of the aggregation engine, and the wrapping error type that carries them.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// NotFound indicates the requested entity exists in neither record store.
	// Distinct from an entity that exists with zero allocated funds.
	NotFound ErrorCode = "NOT_FOUND"
	// InvalidScope indicates a structurally malformed house/term selection.
	// Scope resolution itself never raises this; it is reserved for
	// collaborators that pass non-parseable input before reaching the core.
	InvalidScope ErrorCode = "INVALID_SCOPE"
	// CacheDegraded indicates a non-fatal cache capacity or memory condition.
	// Logged, never propagated as a request failure.
	CacheDegraded ErrorCode = "CACHE_DEGRADED"
	// AggregationInconsistency indicates a detected invariant violation in
	// externally sourced data; the value is clamped and the anomaly logged.
	AggregationInconsistency ErrorCode = "AGGREGATION_INCONSISTENCY"
	// StoreUnavailable indicates the record store could not be reached
	StoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// EngineError represents an engine error with a stable code and message
type EngineError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a new EngineError
func New(code ErrorCode, message string, cause error) *EngineError {
	return &EngineError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Newf creates a new EngineError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *EngineError {
	return &EngineError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *EngineError) WithDetails(details interface{}) *EngineError {
	e.Details = details
	return e
}

// CodeOf extracts the error code from err, or InternalError if err does not
// carry one.
func CodeOf(err error) ErrorCode {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return InternalError
}

// IsNotFound reports whether err carries the NotFound code
func IsNotFound(err error) bool {
	return CodeOf(err) == NotFound
}
