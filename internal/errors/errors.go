// Package errors provides a lightweight structured error type (FramecastError)
// for category-based classification in the CLI and the push pipeline.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a framecast error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig ErrorCategory = "config"
	CategoryTheme  ErrorCategory = "theme"

	// External system integration errors
	CategoryNetwork ErrorCategory = "network"
	CategoryTV      ErrorCategory = "tv"

	// Rendering and processing errors
	CategoryRender     ErrorCategory = "render"
	CategoryState      ErrorCategory = "state"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// FramecastError is a structured error with category, severity, and context
type FramecastError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for FramecastError
type ContextFields map[string]any

// Error implements the error interface
func (e *FramecastError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *FramecastError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *FramecastError) WithContext(key string, value any) *FramecastError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new FramecastError
func New(category ErrorCategory, severity ErrorSeverity, message string) *FramecastError {
	return &FramecastError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new FramecastError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *FramecastError {
	return &FramecastError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if fce, ok := err.(*FramecastError); ok {
		return fce.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a FramecastError
func GetCategory(err error) ErrorCategory {
	if fce, ok := err.(*FramecastError); ok {
		return fce.Category
	}
	return CategoryInternal
}

// ConfigError creates a fatal configuration error
func ConfigError(message string) *FramecastError {
	return &FramecastError{
		Category: CategoryConfig,
		Severity: SeverityFatal,
		Message:  message,
	}
}

// ThemeError creates a fatal theme resolution error
func ThemeError(message string) *FramecastError {
	return &FramecastError{
		Category: CategoryTheme,
		Severity: SeverityFatal,
		Message:  message,
	}
}

// WrapError wraps an existing error with a new FramecastError at SeverityError
func WrapError(err error, category ErrorCategory, message string) *FramecastError {
	return &FramecastError{
		Category: category,
		Severity: SeverityError,
		Message:  message,
		Cause:    err,
	}
}
