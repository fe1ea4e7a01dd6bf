package errors

import (
	"fmt"
	"strings"
)

// FieldError is a single failed rule on a record property
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates multiple validation errors
type ValidationErrors struct {
	Errors []*FieldError `json:"errors"`
}

// NewValidationErrors creates a new validation errors collection
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]*FieldError, 0),
	}
}

// Add adds a validation error
func (v *ValidationErrors) Add(field, rule, message string) {
	v.Errors = append(v.Errors, &FieldError{Field: field, Rule: rule, Message: message})
}

// Merge appends the errors of other with every field prefixed by prefix
func (v *ValidationErrors) Merge(prefix string, other *ValidationErrors) {
	if other == nil {
		return
	}
	for _, e := range other.Errors {
		v.Errors = append(v.Errors, &FieldError{
			Field:   prefix + "." + e.Field,
			Rule:    e.Rule,
			Message: e.Message,
		})
	}
}

// HasErrors returns true if there are validation errors
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}

	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// AsAppError converts the aggregate into a VALIDATION AppError
func (v *ValidationErrors) AsAppError() *AppError {
	return NewValidationError(v.Error()).
		WithDetail("fields", v.ToMap()).
		WithCause(v)
}

// ToMap converts validation errors to a map for JSON serialization
func (v *ValidationErrors) ToMap() map[string][]string {
	result := make(map[string][]string)

	for _, err := range v.Errors {
		field := err.Field
		if field == "" {
			field = "general"
		}
		result[field] = append(result[field], err.Message)
	}

	return result
}
