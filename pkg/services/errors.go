// Package services provides the application layer between transports and
// the workflow engine.
package services

import (
	"errors"
	"fmt"

	"github.com/reliefops/aidflow/pkg/persistence"
)

// Business logic errors mapped to client responses (4xx).
var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrInvalidTemplate = errors.New("invalid template")

	ErrTemplateNotFound  = persistence.ErrTemplateNotFound
	ErrExecutionNotFound = persistence.ErrExecutionNotFound

	// ErrTemplateExists signals a create against an already registered
	// template name (409 Conflict).
	ErrTemplateExists = persistence.ErrTemplateAlreadyExists

	// ErrAsyncUnavailable is returned when asynchronous execution is
	// requested but no event bus is configured (503).
	ErrAsyncUnavailable = errors.New("asynchronous execution unavailable")
)

// ServiceError wraps service-level errors with the operation that failed.
type ServiceError struct {
	Op      string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewValidationError creates a validation error with context.
func NewValidationError(op, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// IsValidationError checks whether an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidTemplate)
}

// IsNotFoundError checks whether an error should map to HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrExecutionNotFound)
}

// IsConflictError checks whether an error should map to HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrTemplateExists)
}
