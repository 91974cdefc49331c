package errors

import (
	"fmt"
	"reflect"
	"strings"
)

// Kinder lets an error expose a short kind tag for report rendering.
type Kinder interface {
	Kind() string
}

// Kind returns a short tag identifying the error's kind. Errors implementing
// Kinder choose their own tag; every other error is tagged with its concrete
// Go type name, pointer star stripped.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	if k, ok := err.(Kinder); ok {
		return k.Kind()
	}
	name := reflect.TypeOf(err).String()
	return strings.TrimPrefix(name, "*")
}

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures scenario validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExecutionError represents a scenario execution failure.
type ExecutionError struct {
	StepTitle string
	Err       error
}

// NewExecutionError constructs an ExecutionError.
func NewExecutionError(stepTitle string, err error) error {
	return &ExecutionError{StepTitle: stepTitle, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.StepTitle != "" {
		return fmt.Sprintf("execution error on step %q: %v", e.StepTitle, e.Err)
	}
	return fmt.Sprintf("execution error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// FailureError is a deliberate failure raised by a scenario step.
type FailureError struct {
	Message string
}

// NewFailureError constructs a FailureError.
func NewFailureError(message string) error {
	return &FailureError{Message: message}
}

func (e *FailureError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Kind tags scripted failures distinctly from runtime errors.
func (e *FailureError) Kind() string {
	return "Failure"
}

// AggregateError combines every failure collected by an aggregation scope
// into one error. Causes stay in order of occurrence and are never flattened:
// a nested aggregation contributes exactly one cause. Identity is by
// reference; two aggregate errors with equal causes are distinct values.
type AggregateError struct {
	Title  string
	Causes []error
}

// NewAggregateError constructs an AggregateError for the named scope.
// Construction never fails.
func NewAggregateError(title string, causes []error) *AggregateError {
	return &AggregateError{Title: title, Causes: causes}
}

func (e *AggregateError) Error() string {
	if e == nil {
		return ""
	}
	parts := make([]string, 0, len(e.Causes))
	for _, cause := range e.Causes {
		parts = append(parts, fmt.Sprintf("%s: %s", Kind(cause), cause.Error()))
	}
	return fmt.Sprintf("%d exception(s) occurred during '%s': %s", len(e.Causes), e.Title, strings.Join(parts, ", "))
}

// Kind tags the aggregate distinctly from any underlying cause kind.
func (e *AggregateError) Kind() string {
	return "AggregateError"
}

// Unwrap exposes the collected causes for errors.Is / errors.As traversal.
func (e *AggregateError) Unwrap() []error {
	if e == nil {
		return nil
	}
	return e.Causes
}

// PanicError carries a panic recovered from a step body so it can travel the
// same collection path as a returned error.
type PanicError struct {
	Value any
	Stack []byte
}

// NewPanicError constructs a PanicError from a recovered value.
func NewPanicError(value any, stack []byte) error {
	return &PanicError{Value: value, Stack: stack}
}

func (e *PanicError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// Kind tags recovered panics uniformly regardless of the panic value's type.
func (e *PanicError) Kind() string {
	return "PanicError"
}
