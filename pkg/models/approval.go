package models

import "time"

// TaskStatus is the decision state of an approval task.
type TaskStatus string

const (
	TaskStatusPending  TaskStatus = "pending"
	TaskStatusApproved TaskStatus = "approved"
	TaskStatusRejected TaskStatus = "rejected"
)

// IsTerminal reports whether the task has been decided.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusApproved || s == TaskStatusRejected
}

// ApprovalTask is created by an approval step for each approver.
type ApprovalTask struct {
	ID          string     `json:"id"`
	WorkflowID  string     `json:"workflow_id"  validate:"required"`
	ExecutionID string     `json:"execution_id" validate:"required"`
	StepID      string     `json:"step_id"      validate:"required"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AssigneeID  string     `json:"assignee_id"  validate:"required"`
	Status      TaskStatus `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Comments    string     `json:"comments,omitempty"`
	DecidedBy   string     `json:"decided_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

// ApprovalOutcome is stored in the execution context once every task of a step is decided.
type ApprovalOutcome struct {
	AllApproved bool     `json:"all_approved"`
	Approved    []string `json:"approved"`
	Rejected    []string `json:"rejected"`
	TaskIDs     []string `json:"task_ids"`
}

// Clone copies the task and its time pointers.
func (t *ApprovalTask) Clone() *ApprovalTask {
	clone := *t

	if t.DueDate != nil {
		dueDate := *t.DueDate
		clone.DueDate = &dueDate
	}

	if t.DecidedAt != nil {
		decidedAt := *t.DecidedAt
		clone.DecidedAt = &decidedAt
	}

	return &clone
}

// AsMap renders the outcome as a plain map so condition paths can address its fields.
func (o ApprovalOutcome) AsMap() map[string]any {
	return map[string]any{
		"all_approved": o.AllApproved,
		"approved":     o.Approved,
		"rejected":     o.Rejected,
		"task_ids":     o.TaskIDs,
	}
}
