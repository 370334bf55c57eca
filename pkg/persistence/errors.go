// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrExecutionNotFound indicates an execution was not found.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrTaskNotFound indicates an approval task was not found.
	ErrTaskNotFound = errors.New("approval task not found")

	// ErrRuleNotFound indicates a document rule was not found.
	ErrRuleNotFound = errors.New("document rule not found")

	// ErrTemplateNotFound indicates a document template was not found.
	ErrTemplateNotFound = errors.New("document template not found")
)

// RecordError wraps repository errors with the operation and record involved.
type RecordError struct {
	Op    string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	Kind  string // Record kind (workflow, execution, task, rule, template)
	ID    string
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Kind, e.ID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for record errors.
func (e *RecordError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRecordError creates a new record error with context.
func NewRecordError(op, kind, id string, err error) *RecordError {
	return &RecordError{
		Op:   op,
		Kind: kind,
		ID:   id,
		Err:  err,
	}
}

// IsNotFound checks if an error indicates any record was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound) ||
		errors.Is(err, ErrExecutionNotFound) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrRuleNotFound) ||
		errors.Is(err, ErrTemplateNotFound)
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}
