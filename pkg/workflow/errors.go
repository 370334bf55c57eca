package workflow

import (
	"errors"
	"fmt"

	"github.com/dukex/juris/pkg/models"
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrWorkflowDisabled = errors.New("workflow is disabled")
	ErrValidation       = errors.New("validation failed")

	ErrNotFound          = errors.New("not found")
	ErrWorkflowNotFound  = fmt.Errorf("workflow %w", ErrNotFound)
	ErrStepNotFound      = fmt.Errorf("step %w", ErrNotFound)
	ErrExecutionNotFound = fmt.Errorf("execution %w", ErrNotFound)
	ErrTaskNotFound      = fmt.Errorf("approval task %w", ErrNotFound)

	// ErrTaskAlreadyDecided is returned when a response targets a task that is no longer pending.
	ErrTaskAlreadyDecided = errors.New("approval task already decided")

	// ErrExecutionNotRunning is returned when cancelling an execution that already finished.
	ErrExecutionNotRunning = errors.New("execution is not running")

	// ErrStepLimitExceeded stops runs that visit more steps than Config.MaxSteps allows.
	ErrStepLimitExceeded = errors.New("step limit exceeded")

	errCancelled = errors.New("execution cancelled")
)

// StepError is the unrecovered failure of a single step.
type StepError struct {
	StepID   string
	StepType models.StepType
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s (%s) failed: %v", e.StepID, e.StepType, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err names a missing workflow, step, execution or task.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
