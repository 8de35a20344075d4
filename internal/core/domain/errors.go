package domain

import (
	"errors"
	"fmt"
	"maps"
)

// DomainError is a business error with a structured error code.
//
// Codes have the form GK-<AREA>-<NNNN>; the first three digits of the
// number are the HTTP status the error maps to.
type DomainError struct {
	Code    string            // Error code (e.g., "GK-AUTH-4010")
	Message string            // Client-safe message
	Details string            // Optional additional details
	Fields  map[string]string // Optional per-field validation messages
	Cause   error             // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches on Code only.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

func (e *DomainError) clone() *DomainError {
	c := *e
	c.Fields = maps.Clone(e.Fields)
	return &c
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := e.clone()
	c.Details = details
	return c
}

// WithMessage returns a copy of the error with a different client message.
func (e *DomainError) WithMessage(message string) *DomainError {
	c := e.clone()
	c.Message = message
	return c
}

// WithField returns a copy of the error carrying a per-field message.
func (e *DomainError) WithField(field, message string) *DomainError {
	c := e.clone()
	if c.Fields == nil {
		c.Fields = make(map[string]string, 1)
	}
	c.Fields[field] = message
	return c
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := e.clone()
	c.Cause = cause
	return c
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return code == "" || de.Code == code
	}
	return false
}

// AsDomainError returns the first DomainError in err's chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	ok := errors.As(err, &de)
	return de, ok
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	if de, ok := AsDomainError(err); ok {
		return de.Code
	}
	return ""
}

// Authentication errors (AUTH).
//
// Wrong passwords and bad tokens share one code so responses never reveal
// which one happened.
var (
	ErrUnauthorized = NewDomainError("GK-AUTH-4010", "Unauthorized")

	ErrTooManyAttempts = NewDomainError("GK-AUTH-4290", "Too many attempts")
)

// System errors (SYS).
var (
	ErrInternal = NewDomainError("GK-SYS-5000", "Unexpected error")

	// ErrNotConfigured means a required password or secret is absent.
	ErrNotConfigured = NewDomainError("GK-SYS-5001", "Server not configured")

	ErrMethodNotAllowed = NewDomainError("GK-SYS-4050", "Method Not Allowed")

	ErrStorage = NewDomainError("GK-SYS-5002", "storage error")
)

// Argument errors (ARG).
var (
	ErrBadRequest = NewDomainError("GK-ARG-4000", "Bad request")

	ErrMissingArgument = NewDomainError("GK-ARG-4001", "Missing required fields")

	ErrValidation = NewDomainError("GK-ARG-4002", "Validation failed")
)

// Asset errors (ASSET).
var (
	ErrAssetNotFound = NewDomainError("GK-ASSET-4040", "Not found")
)

// Mail errors (MAIL).
var (
	ErrMailProvider = NewDomainError("GK-MAIL-5020", "Email provider error")
)
