package steps

import (
	"context"
	"time"

	"github.com/dukex/juris/pkg/models"
)

// ExternalIntegration is the extension point for third-party systems. It returns a canned
// successful payload.
type ExternalIntegration struct {
	now func() time.Time
}

func NewExternalIntegration() *ExternalIntegration {
	return &ExternalIntegration{now: time.Now}
}

func (h *ExternalIntegration) Type() models.StepType {
	return models.StepTypeExternalIntegration
}

func (h *ExternalIntegration) Name() string {
	return "External integration"
}

func (h *ExternalIntegration) Description() string {
	return "Placeholder for calls to court systems, e-signature and other external services"
}

func (h *ExternalIntegration) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"integration": map[string]any{"type": "string", "description": "External system name"},
			"operation":   map[string]any{"type": "string"},
		},
	}
}

func (h *ExternalIntegration) Execute(_ context.Context, step *models.WorkflowStep, _ map[string]any) (any, error) {
	return map[string]any{
		"integration": step.StringParam("integration"),
		"operation":   step.StringParam("operation"),
		"status":      "success",
		"executedAt":  h.now().UTC().Format(time.RFC3339),
		"data":        map[string]any{},
	}, nil
}
