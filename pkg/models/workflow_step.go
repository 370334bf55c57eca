package models

// StepType selects the handler that executes a step.
type StepType string

const (
	StepTypeDocumentGeneration  StepType = "document_generation"
	StepTypeDocumentReview      StepType = "document_review"
	StepTypeNotification        StepType = "notification"
	StepTypeApproval            StepType = "approval"
	StepTypeExternalIntegration StepType = "external_integration"
	StepTypeCustom              StepType = "custom"
)

// WorkflowStep is a node of the workflow graph. Steps reference each other by id.
type WorkflowStep struct {
	ID                string         `json:"id"                             validate:"required"`
	Name              string         `json:"name"                           validate:"required"`
	Type              StepType       `json:"type"                           validate:"required"`
	Parameters        map[string]any `json:"parameters,omitempty"`
	Condition         *StepCondition `json:"condition,omitempty"`
	NextStepOnSuccess string         `json:"next_step_on_success,omitempty"`
	NextStepOnFailure string         `json:"next_step_on_failure,omitempty"`

	// OutputVariable names the context key that receives the step output on success.
	OutputVariable string `json:"output_variable,omitempty"`
}

// StepCondition gates a step on a value found in the execution context.
type StepCondition struct {
	Field    string            `json:"field"    validate:"required"`
	Operator ConditionOperator `json:"operator" validate:"required"`
	Value    any               `json:"value"`
}

// StringParam returns a string parameter, or "" when absent or not a string.
func (s *WorkflowStep) StringParam(name string) string {
	value, _ := s.Parameters[name].(string)

	return value
}

// Clone copies the step and its parameter map.
func (s WorkflowStep) Clone() WorkflowStep {
	clone := s

	if s.Parameters != nil {
		clone.Parameters = make(map[string]any, len(s.Parameters))
		for k, v := range s.Parameters {
			clone.Parameters[k] = v
		}
	}

	if s.Condition != nil {
		condition := *s.Condition
		clone.Condition = &condition
	}

	return clone
}

// BranchDecision is produced by branching steps to pick the next step explicitly.
type BranchDecision struct {
	Result     bool   `json:"result"`
	NextStepID string `json:"next_step_id"`
}
