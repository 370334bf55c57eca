// Package events defines event types and structures for workflow lifecycle notifications.
package events

import (
	"time"

	"github.com/dukex/juris/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic is the watermill topic every juris event is published on.
const Topic = "juris.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Workflow execution lifecycle events.
	WorkflowExecutionStartedEvent         EventType = "workflow.execution.started"
	WorkflowExecutionCompletedEvent       EventType = "workflow.execution.completed"
	WorkflowExecutionFailedEvent          EventType = "workflow.execution.failed"
	WorkflowExecutionCancelledEvent       EventType = "workflow.execution.cancelled"
	WorkflowExecutionWaitingApprovalEvent EventType = "workflow.execution.waiting_approval"
	WorkflowExecutionResumedEvent         EventType = "workflow.execution.resumed"

	// Step events.
	WorkflowStepFinishedEvent EventType = "workflow.step.finished"
	WorkflowStepFailedEvent   EventType = "workflow.step.failed"

	// Approval gate events.
	ApprovalTaskCreatedEvent EventType = "approval.task.created"
	ApprovalTaskDecidedEvent EventType = "approval.task.decided"

	NotificationRequestedEvent EventType = "notification.requested"
	DocumentProcessedEvent     EventType = "document.processed"

	// TriggerEvent is consumed by the scheduler to start event-triggered workflows.
	TriggerEvent EventType = "trigger.event"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent stamps an event with a fresh id and the current time.
func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}

type WorkflowExecutionStarted struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	InitiatedBy string         `json:"initiated_by"`
	Context     map[string]any `json:"context,omitempty"`
}

func (e WorkflowExecutionStarted) GetType() EventType {
	return WorkflowExecutionStartedEvent
}

type WorkflowExecutionCompleted struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	Steps       int           `json:"steps"`
	Duration    time.Duration `json:"duration"`
}

func (e WorkflowExecutionCompleted) GetType() EventType {
	return WorkflowExecutionCompletedEvent
}

type WorkflowExecutionFailed struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	StepID      string        `json:"step_id,omitempty"`
	Error       string        `json:"error"`
	Duration    time.Duration `json:"duration"`
}

func (e WorkflowExecutionFailed) GetType() EventType {
	return WorkflowExecutionFailedEvent
}

type WorkflowExecutionCancelled struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	CancelledBy string `json:"cancelled_by"`
	VoidedTasks int    `json:"voided_tasks"`
}

func (e WorkflowExecutionCancelled) GetType() EventType {
	return WorkflowExecutionCancelledEvent
}

type WorkflowExecutionWaitingApproval struct {
	BaseEvent

	ExecutionID string   `json:"execution_id"`
	StepID      string   `json:"step_id"`
	TaskIDs     []string `json:"task_ids"`
}

func (e WorkflowExecutionWaitingApproval) GetType() EventType {
	return WorkflowExecutionWaitingApprovalEvent
}

type WorkflowExecutionResumed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	StepID      string `json:"step_id"`
	AllApproved bool   `json:"all_approved"`
	NextStepID  string `json:"next_step_id,omitempty"`
}

func (e WorkflowExecutionResumed) GetType() EventType {
	return WorkflowExecutionResumedEvent
}

type WorkflowStepFinished struct {
	BaseEvent

	ExecutionID string                  `json:"execution_id"`
	StepID      string                  `json:"step_id"`
	StepType    models.StepType         `json:"step_type"`
	Status      models.StepResultStatus `json:"status"`
	Duration    time.Duration           `json:"duration"`
}

func (e WorkflowStepFinished) GetType() EventType {
	return WorkflowStepFinishedEvent
}

type WorkflowStepFailed struct {
	BaseEvent

	ExecutionID string          `json:"execution_id"`
	StepID      string          `json:"step_id"`
	StepType    models.StepType `json:"step_type"`
	Error       string          `json:"error"`
	Recovered   bool            `json:"recovered"`
	Duration    time.Duration   `json:"duration"`
}

func (e WorkflowStepFailed) GetType() EventType {
	return WorkflowStepFailedEvent
}

type ApprovalTaskCreated struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	TaskID      string `json:"task_id"`
	StepID      string `json:"step_id"`
	AssigneeID  string `json:"assignee_id"`
}

func (e ApprovalTaskCreated) GetType() EventType {
	return ApprovalTaskCreatedEvent
}

type ApprovalTaskDecided struct {
	BaseEvent

	ExecutionID string            `json:"execution_id"`
	TaskID      string            `json:"task_id"`
	StepID      string            `json:"step_id"`
	Status      models.TaskStatus `json:"status"`
	DecidedBy   string            `json:"decided_by"`
}

func (e ApprovalTaskDecided) GetType() EventType {
	return ApprovalTaskDecidedEvent
}

type NotificationRequested struct {
	BaseEvent

	Notification models.Notification `json:"notification"`
}

func (e NotificationRequested) GetType() EventType {
	return NotificationRequestedEvent
}

type DocumentProcessed struct {
	BaseEvent

	DocumentType string         `json:"document_type"`
	AppliedRules []string       `json:"applied_rules"`
	Actions      int            `json:"actions"`
	Metadata     map[string]any `json:"document_metadata,omitempty"`
}

func (e DocumentProcessed) GetType() EventType {
	return DocumentProcessedEvent
}

// Trigger asks the scheduler to start every event workflow listening for Name.
type Trigger struct {
	BaseEvent

	Name    string         `json:"name"`
	Payload map[string]any `json:"payload,omitempty"`
}

func (e Trigger) GetType() EventType {
	return TriggerEvent
}

// NewTrigger builds a trigger.event message for the named domain event.
func NewTrigger(name string, payload map[string]any) Trigger {
	return Trigger{
		BaseEvent: NewBaseEvent(TriggerEvent, ""),
		Name:      name,
		Payload:   payload,
	}
}
