package steps

import "github.com/dukex/juris/pkg/models"

// ApprovalDescriptor registers the approval step type. Approval steps are run by the
// approval gate of the executor, not by a handler.
type ApprovalDescriptor struct{}

func (ApprovalDescriptor) Type() models.StepType {
	return models.StepTypeApproval
}

func (ApprovalDescriptor) Name() string {
	return "Approval"
}

func (ApprovalDescriptor) Description() string {
	return "Suspends the workflow until every approver decides; a single rejection takes the failure branch"
}

func (ApprovalDescriptor) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"approvers": map[string]any{
				"description": "User ids or {{context.path}} references",
				"oneOf": []any{
					map[string]any{"type": "string", "minLength": 1},
					map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 1},
				},
			},
			"title":       map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"priority":    map[string]any{"type": "string", "enum": []string{"low", "medium", "high", "urgent"}},
			"dueInDays":   map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []string{"approvers"},
	}
}
