package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches domain errors by code so sentinel comparisons survive wrapping
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewStoreError wraps an opaque store failure so callers can surface it
// unchanged while still distinguishing it from expected domain outcomes
func NewStoreError(cause error) *DomainError {
	return &DomainError{
		Code:    "STORE_ERROR",
		Message: "Durable store operation failed",
		cause:   cause,
	}
}

// Common domain errors
var (
	ErrNotFound         = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists    = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrValidationFailed = NewDomainError("VALIDATION_FAILED", "Invalid input provided")
	ErrStoreFailure     = NewDomainError("STORE_ERROR", "Durable store operation failed")
	ErrUnauthorized     = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrInvalidState     = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)
