package riskerr

import (
	"errors"
	"fmt"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	// Errors that indicate a caller contract violation
	ErrorCategoryValidation    ErrorCategory = "VALIDATION"
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"

	// Errors from supporting infrastructure, never fatal to an assessment
	ErrorCategoryJournal   ErrorCategory = "JOURNAL"
	ErrorCategoryReporting ErrorCategory = "REPORTING"
)

// EngineError represents a categorized error with context
type EngineError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Component, e.Operation, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// New creates a new categorized engine error
func New(category ErrorCategory, component, operation, message string) *EngineError {
	return &EngineError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
	}
}

// Newf creates a new categorized engine error with a formatted message
func Newf(category ErrorCategory, component, operation, format string, args ...interface{}) *EngineError {
	return New(category, component, operation, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with engine error context
func Wrap(err error, category ErrorCategory, component, operation string) *EngineError {
	return &EngineError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    err.Error(),
		Underlying: err,
	}
}

// IsValidation reports whether err is a caller contract violation.
// Business rejections are never validation errors; they come back as
// decisions, not errors.
func IsValidation(err error) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Category == ErrorCategoryValidation
	}
	return false
}
