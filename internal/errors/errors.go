// Package errors provides a lightweight structured error type (SitewatchError)
// for category-based classification in the watch loop, the build runner, and
// the HTTP server.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a sitewatch error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Build and filesystem errors
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryWatch      ErrorCategory = "watch"

	// Runtime and infrastructure errors
	CategoryServer   ErrorCategory = "server"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// SitewatchError is a structured error with category, severity, and context
type SitewatchError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for SitewatchError
type ContextFields map[string]any

// Error implements the error interface
func (e *SitewatchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *SitewatchError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *SitewatchError) WithContext(key string, value any) *SitewatchError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new SitewatchError
func New(category ErrorCategory, severity ErrorSeverity, message string) *SitewatchError {
	return &SitewatchError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new SitewatchError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *SitewatchError {
	return &SitewatchError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// Fatal creates a new fatal SitewatchError
func Fatal(category ErrorCategory, message string) *SitewatchError {
	return New(category, SeverityFatal, message)
}

// WrapFatal creates a new fatal SitewatchError that wraps an existing error
func WrapFatal(err error, category ErrorCategory, message string) *SitewatchError {
	return Wrap(err, category, SeverityFatal, message)
}

// CategoryOf returns the category of err if it is a SitewatchError, or
// CategoryInternal otherwise.
func CategoryOf(err error) ErrorCategory {
	var se *SitewatchError
	if stdErrors.As(err, &se) {
		return se.Category
	}
	return CategoryInternal
}
