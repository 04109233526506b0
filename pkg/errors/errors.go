package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeTransport indicates the upstream API could not be reached
	ErrorTypeTransport ErrorType = "TRANSPORT"

	// ErrorTypeTimeout indicates an upstream call exceeded its wall-clock budget
	ErrorTypeTimeout ErrorType = "TIMEOUT"

	// ErrorTypeUpstream indicates the upstream API answered success=false;
	// its message is surfaced to the user verbatim
	ErrorTypeUpstream ErrorType = "UPSTREAM"

	// ErrorTypeSoftParse indicates an HTTP 200 whose body failed to parse.
	// The operation may have succeeded server-side; callers suggest a
	// manual refresh instead of reporting failure.
	ErrorTypeSoftParse ErrorType = "SOFT_PARSE"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// TypeOf returns the error type of err, or ErrorTypeInternal when err is
// not an AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// IsType reports whether err is an AppError of the given type
func IsType(err error, t ErrorType) bool {
	return TypeOf(err) == t
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{Type: ErrorTypeValidation, Message: message}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{Type: ErrorTypeConflict, Message: message}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// NewTransportError creates a new transport error
func NewTransportError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeTransport, Message: message, Err: err}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeTimeout, Message: message, Err: err}
}

// NewUpstreamError creates a new upstream application error carrying the
// server's verbatim error string.
func NewUpstreamError(message string) *AppError {
	return &AppError{Type: ErrorTypeUpstream, Message: message}
}

// NewSoftParseError creates a new soft parse error
func NewSoftParseError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeSoftParse, Message: message, Err: err}
}
