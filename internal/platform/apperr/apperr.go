// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error taxonomy for the shopfront service.

It provides a rich error type that bridges low-level storage and security
failures and the HTTP responses produced by the boundary adapter.

Architecture:

  - AppError: A struct containing a machine-readable code and a client-safe message.
  - Taxonomy: InvalidInput, InvalidCredentials, Unauthenticated, Forbidden,
    CSRF, Conflict, NotFound, Gone, PaymentDeclined and Internal.
  - Mapping: Every constructor fixes the HTTP status the error surfaces as.

Every error that leaves the service layer should be an [AppError]; anything
else is treated as Internal by [respond.Error].
*/
package apperr

import (
	"errors"
	"net/http"
)

// Stable machine-readable codes.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeForbidden          = "FORBIDDEN"
	CodeCSRF               = "CSRF_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeGone               = "GONE"
	CodePaymentDeclined    = "PAYMENT_DECLINED"
	CodeInternal           = "INTERNAL_ERROR"
)

// AppError is the canonical error type for the shopfront service.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients.
// Token values must never be placed in Message or Details.
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "CONFLICT").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the form or JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// Is matches two AppErrors by code so sentinel values work with [errors.Is].
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code && other.HTTPStatus == e.HTTPStatus
}

// WithCause returns a copy of the error carrying cause for server-side logs.
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Product") // Returns "Product not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// InvalidCredentials creates the single generic 401 used for every failed login.
// Unknown username and wrong password are indistinguishable by design of the caller.
func InvalidCredentials() *AppError {
	return &AppError{
		Code:       CodeInvalidCredentials,
		Message:    "Invalid username or password",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Unauthenticated creates a 401 [AppError] for routes that require a session.
// The boundary turns it into a redirect for browser navigations.
func Unauthenticated() *AppError {
	return &AppError{
		Code:       CodeUnauthenticated,
		Message:    "Authentication required",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates a 403 [AppError]. Messages stay generic.
func Forbidden() *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    "Forbidden",
		HTTPStatus: http.StatusForbidden,
	}
}

// CSRF creates the 403 returned when the anti-forgery token is missing or wrong.
func CSRF() *AppError {
	return &AppError{
		Code:       CodeCSRF,
		Message:    "Invalid form token, reload the page and try again",
		HTTPStatus: http.StatusForbidden,
	}
}

// Conflict creates a 409 [AppError] for duplicate or already-consumed state.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// Gone creates a 410 [AppError] for expired one-shot links.
func Gone(msg string) *AppError {
	return &AppError{
		Code:       CodeGone,
		Message:    msg,
		HTTPStatus: http.StatusGone,
	}
}

// PaymentDeclined creates the 402 returned when the gateway refuses a charge.
func PaymentDeclined() *AppError {
	return &AppError{
		Code:       CodePaymentDeclined,
		Message:    "Payment was declined",
		HTTPStatus: http.StatusPaymentRequired,
	}
}

// PaymentRequired creates the 402 returned when checkout has no way to pay.
func PaymentRequired() *AppError {
	return &AppError{
		Code:       CodePaymentDeclined,
		Message:    "A payment method is required",
		HTTPStatus: http.StatusPaymentRequired,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries an [*AppError] with the given code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
