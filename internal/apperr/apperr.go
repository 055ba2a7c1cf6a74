// Package apperr holds the error taxonomy shared by stores, policy and handlers.
package apperr

import (
	"errors"   // Sentinel errors
	"net/http" // HTTP status codes
)

// Kinds of failure. Every *Error wraps exactly one of these.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access denied")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrTooManyRequests = errors.New("too many requests")
)

// Well-known failures with fixed reasons.
var (
	ErrUsernameTaken      = New(ErrValidation, "Username is already taken")
	ErrInvalidCredentials = New(ErrUnauthenticated, "Invalid credentials")
	ErrAccessDenied       = New(ErrForbidden, "Access denied")
	ErrAdminRequired      = New(ErrForbidden, "Admin access required")
	ErrSelfDelete         = New(ErrValidation, "Cannot delete your own account")
	ErrUserNotFound       = New(ErrNotFound, "User not found")
	ErrEtfNotFound        = New(ErrNotFound, "ETF not found")
	ErrPortfolioNotFound  = New(ErrNotFound, "Portfolio not found")
	ErrAlreadyInPortfolio = New(ErrConflict, "ETF already in portfolio")
	ErrLoginLocked        = New(ErrTooManyRequests, "Too many failed login attempts")
)

// Error is a failure with a short human-readable reason
type Error struct {
	Kind    error
	Message string
}

// New creates an error of the given kind
func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation is shorthand for a 400 with the given reason
func Validation(message string) *Error {
	return New(ErrValidation, message)
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// Status maps an error to the HTTP status it should produce
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing reason, hiding unexpected errors
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
