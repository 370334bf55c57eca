// Package models defines the core domain models for legal document workflow automation.
package models

import "time"

// TriggerType describes how a workflow is started.
type TriggerType string

const (
	TriggerTypeManual    TriggerType = "manual"
	TriggerTypeScheduled TriggerType = "scheduled"
	TriggerTypeEvent     TriggerType = "event"
)

// IsValid reports whether the trigger type is one of the known values.
func (t TriggerType) IsValid() bool {
	switch t {
	case TriggerTypeManual, TriggerTypeScheduled, TriggerTypeEvent:
		return true
	default:
		return false
	}
}

// TriggerConfig carries the details of scheduled and event triggers.
type TriggerConfig struct {
	// Cron is a 5-field cron expression, used when the trigger type is scheduled.
	Cron string `json:"cron,omitempty"`

	// Event is the event name, used when the trigger type is event.
	Event string `json:"event,omitempty"`

	// Conditions must all equal the event payload values for the workflow to start.
	Conditions map[string]any `json:"conditions,omitempty"`
}

// WorkflowDefinition is an ordered graph of steps linked by step ids.
type WorkflowDefinition struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"                   validate:"required"`
	Description string         `json:"description"            validate:"required"`
	TriggerType TriggerType    `json:"trigger_type"           validate:"required,oneof=manual scheduled event"`
	Trigger     *TriggerConfig `json:"trigger,omitempty"`
	Steps       []WorkflowStep `json:"steps"                  validate:"required,min=1,dive"`
	Enabled     bool           `json:"enabled"`
	CreatedBy   string         `json:"created_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	LastRunAt   *time.Time     `json:"last_run_at,omitempty"`
}

// FirstStepID returns the id of the entry step, or "" for a workflow without steps.
func (w *WorkflowDefinition) FirstStepID() string {
	if len(w.Steps) == 0 {
		return ""
	}

	return w.Steps[0].ID
}

// StepByID looks a step up by its id.
func (w *WorkflowDefinition) StepByID(id string) (*WorkflowStep, bool) {
	for i := range w.Steps {
		if w.Steps[i].ID == id {
			return &w.Steps[i], true
		}
	}

	return nil, false
}

// Clone returns a deep enough copy for cache isolation: slices and maps owned by the
// definition are copied, parameter values are shared.
func (w *WorkflowDefinition) Clone() *WorkflowDefinition {
	if w == nil {
		return nil
	}

	clone := *w

	clone.Steps = make([]WorkflowStep, len(w.Steps))
	for i, step := range w.Steps {
		clone.Steps[i] = step.Clone()
	}

	if w.Trigger != nil {
		trigger := *w.Trigger
		if w.Trigger.Conditions != nil {
			trigger.Conditions = make(map[string]any, len(w.Trigger.Conditions))
			for k, v := range w.Trigger.Conditions {
				trigger.Conditions[k] = v
			}
		}

		clone.Trigger = &trigger
	}

	if w.LastRunAt != nil {
		lastRun := *w.LastRunAt
		clone.LastRunAt = &lastRun
	}

	return &clone
}

// WorkflowPatch holds the fields of a partial workflow update. Nil fields are left unchanged.
type WorkflowPatch struct {
	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	TriggerType *TriggerType    `json:"trigger_type,omitempty"`
	Trigger     *TriggerConfig  `json:"trigger,omitempty"`
	Steps       *[]WorkflowStep `json:"steps,omitempty"`
	Enabled     *bool           `json:"enabled,omitempty"`
}

// Apply merges the patch into a copy of the workflow.
func (p WorkflowPatch) Apply(workflow *WorkflowDefinition) *WorkflowDefinition {
	merged := workflow.Clone()

	if p.Name != nil {
		merged.Name = *p.Name
	}

	if p.Description != nil {
		merged.Description = *p.Description
	}

	if p.TriggerType != nil {
		merged.TriggerType = *p.TriggerType
	}

	if p.Trigger != nil {
		merged.Trigger = p.Trigger
	}

	if p.Steps != nil {
		merged.Steps = *p.Steps
	}

	if p.Enabled != nil {
		merged.Enabled = *p.Enabled
	}

	return merged
}
