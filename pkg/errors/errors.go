package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Definition-time errors
	ErrorTypeSchema ErrorType = "SCHEMA"

	// Construction and mutation errors
	ErrorTypeChildConstruction    ErrorType = "CHILD_CONSTRUCTION"
	ErrorTypeCollectionAssignment ErrorType = "COLLECTION_ASSIGNMENT"
	ErrorTypeValidation           ErrorType = "VALIDATION"
	ErrorTypeNotFound             ErrorType = "NOT_FOUND"

	// Infrastructure errors
	ErrorTypeConfig   ErrorType = "CONFIG"
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an error raised by the model layer or its infrastructure
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetail adds a single detail
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// captureStackTrace captures the current stack trace
func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := ""
	for {
		frame, more := frames.Next()
		stack += fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return stack
}

func newError(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		StackTrace: captureStackTrace(),
	}
}

// Constructor functions for common error types

// NewSchemaError creates an error for a malformed or misused model schema
func NewSchemaError(format string, args ...interface{}) *AppError {
	return newError(ErrorTypeSchema, fmt.Sprintf(format, args...))
}

// NewChildConstructionError creates an error for a collection item that could not
// be turned into its declared child type
func NewChildConstructionError(model, property string, index int, cause error) *AppError {
	return newError(ErrorTypeChildConstruction,
		fmt.Sprintf("%s.%s[%d] could not be constructed", model, property, index)).
		WithDetail("model", model).
		WithDetail("property", property).
		WithDetail("index", index).
		WithCause(cause)
}

// NewCollectionAssignmentError creates an error for a direct write to a collection property
func NewCollectionAssignmentError(model, property string) *AppError {
	return newError(ErrorTypeCollectionAssignment,
		fmt.Sprintf("%s.%s is a collection and cannot be assigned directly", model, property)).
		WithDetail("model", model).
		WithDetail("property", property)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return newError(ErrorTypeValidation, message)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return newError(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource))
}

// NewConfigError creates a configuration error
func NewConfigError(message string, err error) *AppError {
	return newError(ErrorTypeConfig, message).WithCause(err)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return newError(ErrorTypeInternal, message)
}

// Helper functions

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsSchema checks if an error is a schema error
func IsSchema(err error) bool {
	return IsType(err, ErrorTypeSchema)
}

// IsChildConstruction checks if an error is a child construction error
func IsChildConstruction(err error) bool {
	return IsType(err, ErrorTypeChildConstruction)
}

// IsCollectionAssignment checks if an error is a collection assignment error
func IsCollectionAssignment(err error) bool {
	return IsType(err, ErrorTypeCollectionAssignment)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsConfig checks if an error is a configuration error
func IsConfig(err error) bool {
	return IsType(err, ErrorTypeConfig)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, return a copy with context added to the message.
	// The wrapped error is left untouched.
	if appErr := GetAppError(err); appErr != nil {
		wrapped := *appErr
		wrapped.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		if appErr.Details != nil {
			wrapped.Details = make(map[string]interface{}, len(appErr.Details))
			for k, v := range appErr.Details {
				wrapped.Details[k] = v
			}
		}
		return &wrapped
	}

	// Otherwise create a new internal error
	return NewInternalError(message).WithCause(err)
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}
