// Package errors provides the structured error type (EngineError) used by the
// metric engine, its loaders and its adapters for category-based classification.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of an engine error for classification
type ErrorCategory string

const (
	// Declaration and configuration errors
	CategoryConfig     ErrorCategory = "config"
	CategoryDependency ErrorCategory = "dependency"
	CategoryValidation ErrorCategory = "validation"

	// Per-metric runtime errors
	CategoryExtraction ErrorCategory = "extraction"
	CategoryTransform  ErrorCategory = "transform"
	CategoryShape      ErrorCategory = "shape"
	CategoryRender     ErrorCategory = "render"

	// Plumbing around the engine
	CategoryStorage  ErrorCategory = "storage"
	CategoryIO       ErrorCategory = "io"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the run
	SeverityError   ErrorSeverity = "error"   // One metric lost
	SeverityWarning ErrorSeverity = "warning" // Degraded output
)

// EngineError is a structured error with category, the offending metric and context
type EngineError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	MetricID string        `json:"metric_id,omitempty"`
	Cause    error         `json:"-"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for EngineError
type ContextFields map[string]any

// Error implements the error interface
func (e *EngineError) Error() string {
	msg := e.Message
	if e.MetricID != "" {
		msg = fmt.Sprintf("metric %q: %s", e.MetricID, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, msg, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, msg)
}

// Unwrap implements error unwrapping
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *EngineError) WithContext(key string, value any) *EngineError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// ForMetric tags the error with the metric it belongs to.
func (e *EngineError) ForMetric(id string) *EngineError {
	e.MetricID = id
	return e
}

// CauseText returns the wrapped cause as a string, or "" when there is none.
func (e *EngineError) CauseText() string {
	if e.Cause == nil {
		return ""
	}
	return e.Cause.Error()
}

// New creates a new EngineError
func New(category ErrorCategory, severity ErrorSeverity, message string) *EngineError {
	return &EngineError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new EngineError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *EngineError {
	return &EngineError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// As extracts an *EngineError from err's chain.
func As(err error) (*EngineError, bool) {
	for err != nil {
		if ee, ok := err.(*EngineError); ok {
			return ee, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if ee, ok := As(err); ok {
		return ee.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not an EngineError
func GetCategory(err error) ErrorCategory {
	if ee, ok := As(err); ok {
		return ee.Category
	}
	return CategoryInternal
}

// IsConfiguration reports whether err stems from a bad declaration rather than bad data.
func IsConfiguration(err error) bool {
	switch GetCategory(err) {
	case CategoryConfig, CategoryDependency:
		return true
	}
	return false
}
