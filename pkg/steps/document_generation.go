package steps

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/persistence"
	"github.com/dukex/juris/pkg/template"
)

// DocumentGeneration fills a stored template with values read from the execution context.
// Its output is the generated text.
type DocumentGeneration struct {
	logger    *slog.Logger
	templates persistence.TemplateRepository
}

func NewDocumentGeneration(logger *slog.Logger, templates persistence.TemplateRepository) *DocumentGeneration {
	return &DocumentGeneration{logger: logger, templates: templates}
}

func (h *DocumentGeneration) Type() models.StepType {
	return models.StepTypeDocumentGeneration
}

func (h *DocumentGeneration) Name() string {
	return "Document generation"
}

func (h *DocumentGeneration) Description() string {
	return "Generates a document from a template, replacing {PARAM} and [PARAM] placeholders with context values"
}

func (h *DocumentGeneration) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"templateId": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Id of the stored document template",
			},
			"parameterMapping": map[string]any{
				"type":                 "object",
				"description":          "Placeholder name to dot path in the execution context",
				"additionalProperties": map[string]any{"type": "string"},
				"examples": []any{
					map[string]any{"NOME": "context.client.name", "PROCESSO": "processNumber"},
				},
			},
		},
		"required": []string{"templateId"},
	}
}

func (h *DocumentGeneration) Execute(ctx context.Context, step *models.WorkflowStep, wctx map[string]any) (any, error) {
	templateID := step.StringParam("templateId")
	if templateID == "" {
		return nil, missing("templateId")
	}

	stored, err := h.templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", templateID, err)
	}

	mapping, _ := step.Parameters["parameterMapping"].(map[string]any)
	content := template.Substitute(stored.Content, template.ResolveMapping(mapping, wctx))

	stored.UsageCount++

	err = h.templates.Save(ctx, stored)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to update template usage", "template_id", templateID, "error", err)
	}

	return content, nil
}
