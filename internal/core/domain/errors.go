// Package domain defines the core domain values for dashlink.
package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed API call.
type ErrorKind string

const (
	KindNone           ErrorKind = ""
	KindSessionExpired ErrorKind = "session_expired"
	KindForbidden      ErrorKind = "forbidden"
	KindNotFound       ErrorKind = "not_found"
	KindServerError    ErrorKind = "server_error"
)

// DomainError represents a client error with a structured error code.
//
// Message is the fixed user-facing text for the code. Details carries
// whatever the server said about the failure, if anything.
type DomainError struct {
	Code    string    // Error code (e.g., "DL-AUTH-4010")
	Kind    ErrorKind // Classification of a failed response, if any
	Message string    // Human-readable message
	Details string    // Optional additional details
	Status  int       // HTTP status that produced the error, 0 otherwise
	Cause   error     // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
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

func newKindError(code string, kind ErrorKind, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := *e
	c.Details = details
	return &c
}

// WithStatus returns a copy of the error carrying the HTTP status.
func (e *DomainError) WithStatus(status int) *DomainError {
	c := *e
	c.Status = status
	return &c
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.Cause = cause
	return &c
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// KindOf returns the response classification carried by err, or KindNone.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindNone
}

// ============================================================================
// Response errors (HTTP)
// ============================================================================

var (
	// ErrSessionExpired is returned for every 401, including duplicates
	// inside an expiry episode.
	ErrSessionExpired = newKindError("DL-AUTH-4010", KindSessionExpired, "session expired, please log in again")

	// ErrForbidden is returned for 403.
	ErrForbidden = newKindError("DL-AUTH-4030", KindForbidden, "you do not have permission to access this resource")

	// ErrNotFound is returned for 404.
	ErrNotFound = newKindError("DL-HTTP-4040", KindNotFound, "the requested resource does not exist")

	// ErrServerError is returned for any status >= 500.
	ErrServerError = newKindError("DL-HTTP-5000", KindServerError, "server error, please try again later")
)

// ============================================================================
// Client errors
// ============================================================================

var (
	// ErrLoginRejected indicates the login endpoint refused the credentials.
	ErrLoginRejected = NewDomainError("DL-AUTH-4011", "invalid username or password")

	// ErrNotLoggedIn indicates no session token is stored.
	ErrNotLoggedIn = NewDomainError("DL-AUTH-4012", "not logged in")

	// ErrInvalidConfig indicates the configuration failed validation.
	ErrInvalidConfig = NewDomainError("DL-CONF-4000", "invalid configuration")

	// ErrKeyNotFound indicates a storage key does not exist.
	ErrKeyNotFound = NewDomainError("DL-STOR-4040", "key not found")

	// ErrStorageClosed indicates the storage backend was already closed.
	ErrStorageClosed = NewDomainError("DL-STOR-5000", "storage closed")
)
