// Package errors provides standardized domain errors with codes for the ledger core.
//
// Usage:
//
//	// In services - return typed errors
//	if balance.Money < service.Cost {
//	    return errors.InsufficientFunds("not enough invite money")
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrInsufficientFunds) {
//	    response.Conflict(w, err.Error(), logger)
//	    return
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeValidation        Code = "VALIDATION"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeConflict          Code = "CONFLICT"
	CodeInternal          Code = "INTERNAL"
	CodeFeatureDisabled   Code = "FEATURE_DISABLED"
	CodeEmptyCatalog      Code = "EMPTY_CATALOG"
	CodeUnknownService    Code = "UNKNOWN_SERVICE"
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
	CodeRateLimited       Code = "RATE_LIMITED"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound, CodeUnknownService:
		return http.StatusNotFound
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeFeatureDisabled:
		return http.StatusForbidden
	case CodeConflict, CodeInsufficientFunds, CodeEmptyCatalog:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause returns a new error wrapping the given cause.
func (e *Error) WithCause(cause error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   cause,
	}
}

// Sentinel errors for use with errors.Is.
var (
	ErrNotFound          = &Error{Code: CodeNotFound}
	ErrValidation        = &Error{Code: CodeValidation}
	ErrUnauthorized      = &Error{Code: CodeUnauthorized}
	ErrForbidden         = &Error{Code: CodeForbidden}
	ErrConflict          = &Error{Code: CodeConflict}
	ErrInternal          = &Error{Code: CodeInternal}
	ErrFeatureDisabled   = &Error{Code: CodeFeatureDisabled}
	ErrEmptyCatalog      = &Error{Code: CodeEmptyCatalog}
	ErrUnknownService    = &Error{Code: CodeUnknownService}
	ErrInsufficientFunds = &Error{Code: CodeInsufficientFunds}
	ErrRateLimited       = &Error{Code: CodeRateLimited}
)

// NotFound creates a not found error.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message}
}

// Forbidden creates a forbidden error.
func Forbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message}
}

// Conflict creates a conflict error.
func Conflict(message string) *Error {
	return &Error{Code: CodeConflict, Message: message}
}

// Internal creates an internal error wrapping the cause.
func Internal(message string, cause error) *Error {
	return &Error{Code: CodeInternal, Message: message, cause: cause}
}

// FeatureDisabled creates a feature disabled error.
// Returned by the redemption engine when redeeming is switched off.
func FeatureDisabled(message string) *Error {
	return &Error{Code: CodeFeatureDisabled, Message: message}
}

// EmptyCatalog creates an empty catalog error.
func EmptyCatalog(message string) *Error {
	return &Error{Code: CodeEmptyCatalog, Message: message}
}

// UnknownService creates an unknown service error.
func UnknownService(message string) *Error {
	return &Error{Code: CodeUnknownService, Message: message}
}

// InsufficientFunds creates an insufficient funds error.
func InsufficientFunds(message string) *Error {
	return &Error{Code: CodeInsufficientFunds, Message: message}
}

// RateLimited creates a rate limited error.
func RateLimited(message string) *Error {
	return &Error{Code: CodeRateLimited, Message: message}
}
