// Package services provides the workflow and document rule registries used by the API and
// the engine, with standardized error types for their operations.
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks client errors that should return HTTP 400.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks duplicates that should return HTTP 409.
	ErrConflict = errors.New("conflict")

	// ErrInvalidRequest is returned for missing identifiers and nil payloads.
	ErrInvalidRequest = errors.New("invalid request")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string   // Operation name
	Code    string   // Error code for API responses
	Message string   // Human-readable message
	Details []string // Individual validation problems
	Err     error    // Underlying error
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

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidRequest)
}

// IsConflictError checks if an error should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflict)
}

// NewValidationError creates a validation error listing every problem found.
func NewValidationError(op, code string, problems []string) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: strings.Join(problems, "; "),
		Details: problems,
		Err:     ErrValidation,
	}
}
