// Package errors provides the structured error type shared across the
// glossary engine. Errors carry a category, a stable code, and optional
// key/value context so operator-facing logs can say which term, locale,
// or document a failure belongs to.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeStore    ErrorType = "store"
	ErrorTypePattern  ErrorType = "pattern"
	ErrorTypeParse    ErrorType = "parse"
	ErrorTypeIO       ErrorType = "io"
	ErrorTypeInternal ErrorType = "internal"
)

// GlossaryError is a structured error type with context.
type GlossaryError struct {
	Type      ErrorType
	Code      string
	Message   string
	Cause     error
	Component string
	Context   map[string]interface{}
}

// Error implements the error interface.
func (e *GlossaryError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *GlossaryError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *GlossaryError) Is(target error) bool {
	var t *GlossaryError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}
	return false
}

// WithContext attaches a key/value pair and returns the error.
func (e *GlossaryError) WithContext(key string, value interface{}) *GlossaryError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithComponent names the component the error originated from.
func (e *GlossaryError) WithComponent(component string) *GlossaryError {
	e.Component = component
	return e
}

// New creates a structured error of the given type.
func New(errType ErrorType, code, message string) *GlossaryError {
	return &GlossaryError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// Wrap wraps a cause error with type, code, and message.
func Wrap(cause error, errType ErrorType, code, message string) *GlossaryError {
	return &GlossaryError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsType reports whether err (or anything it wraps) is a GlossaryError
// of the given type.
func IsType(err error, errType ErrorType) bool {
	var ge *GlossaryError
	if errors.As(err, &ge) {
		return ge.Type == errType
	}
	return false
}
