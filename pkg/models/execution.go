package models

import "time"

// ExecutionStatus is the lifecycle state of a workflow execution.
type ExecutionStatus string

const (
	ExecutionStatusRunning         ExecutionStatus = "running"
	ExecutionStatusCompleted       ExecutionStatus = "completed"
	ExecutionStatusFailed          ExecutionStatus = "failed"
	ExecutionStatusCancelled       ExecutionStatus = "cancelled"
	ExecutionStatusWaitingApproval ExecutionStatus = "waiting_approval"
)

// IsTerminal reports whether no more steps will run for the execution.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed || s == ExecutionStatusCancelled
}

// StepResultStatus is the outcome recorded for a single step run.
type StepResultStatus string

const (
	StepResultSuccess StepResultStatus = "success"
	StepResultFailure StepResultStatus = "failure"
	StepResultSkipped StepResultStatus = "skipped"
)

// StepResult records one step run inside an execution.
type StepResult struct {
	StepID      string           `json:"step_id"`
	Status      StepResultStatus `json:"status"`
	Output      any              `json:"output,omitempty"`
	Error       string           `json:"error,omitempty"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt time.Time        `json:"completed_at"`
}

// WorkflowExecution is one run of a workflow. Context is shared and mutated by every step.
type WorkflowExecution struct {
	ID            string          `json:"id"`
	WorkflowID    string          `json:"workflow_id"`
	Status        ExecutionStatus `json:"status"`
	StartedAt     time.Time       `json:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	CurrentStepID string          `json:"current_step_id,omitempty"`
	Results       []StepResult    `json:"results"`
	Context       map[string]any  `json:"context"`
	InitiatedBy   string          `json:"initiated_by"`
	Error         string          `json:"error,omitempty"`
}

// AddResult appends a step result to the execution log.
func (e *WorkflowExecution) AddResult(result StepResult) {
	e.Results = append(e.Results, result)
}

// Finish moves the execution to a terminal status.
func (e *WorkflowExecution) Finish(status ExecutionStatus, at time.Time) {
	e.Status = status
	e.CompletedAt = &at
}

// Clone copies the execution with its result log and the top level of its context.
func (e *WorkflowExecution) Clone() *WorkflowExecution {
	clone := *e

	clone.Results = append([]StepResult(nil), e.Results...)

	if e.Context != nil {
		clone.Context = make(map[string]any, len(e.Context))
		for k, v := range e.Context {
			clone.Context[k] = v
		}
	}

	if e.CompletedAt != nil {
		completedAt := *e.CompletedAt
		clone.CompletedAt = &completedAt
	}

	return &clone
}
