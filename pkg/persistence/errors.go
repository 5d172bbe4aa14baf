// Package persistence provides standardized error types for storage operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all backends should use.
var (
	// ErrTemplateNotFound indicates no template exists under the given name.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrExecutionNotFound indicates no execution record exists under the given id.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrTemplateAlreadyExists indicates a template with the same name already exists.
	ErrTemplateAlreadyExists = errors.New("template already exists")
)

// TemplateError wraps template storage errors with operation context.
type TemplateError struct {
	Op       string // Operation being performed (e.g. "GetByName", "Save")
	Template string // Template name
	Err      error  // Underlying error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("%s operation failed for template %s: %v", e.Op, e.Template, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

func (e *TemplateError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewTemplateError creates a new template error with context.
func NewTemplateError(op, template string, err error) *TemplateError {
	return &TemplateError{Op: op, Template: template, Err: err}
}

// ExecutionError wraps execution-record storage errors with operation context.
type ExecutionError struct {
	Op          string
	ExecutionID string
	Err         error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s operation failed for execution %s: %v", e.Op, e.ExecutionID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewExecutionError creates a new execution-record error with context.
func NewExecutionError(op, executionID string, err error) *ExecutionError {
	return &ExecutionError{Op: op, ExecutionID: executionID, Err: err}
}

// IsTemplateNotFound checks if an error indicates a missing template.
func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

// IsExecutionNotFound checks if an error indicates a missing execution record.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}
