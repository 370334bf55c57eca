package steps

import (
	"context"
	"fmt"

	"github.com/dukex/juris/pkg/models"
)

// DocumentReview runs the document analysis routine on text held in the context.
type DocumentReview struct {
	analyzer DocumentAnalyzer
}

func NewDocumentReview(analyzer DocumentAnalyzer) *DocumentReview {
	return &DocumentReview{analyzer: analyzer}
}

func (h *DocumentReview) Type() models.StepType {
	return models.StepTypeDocumentReview
}

func (h *DocumentReview) Name() string {
	return "Document review"
}

func (h *DocumentReview) Description() string {
	return "Reviews a document from the context for corrections, missing clauses and risk areas"
}

func (h *DocumentReview) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"documentVariable": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Context path holding the document text",
			},
			"reviewType": map[string]any{
				"type":    "string",
				"enum":    []string{"general", "contract", "petition"},
				"default": "general",
			},
		},
		"required": []string{"documentVariable"},
	}
}

func (h *DocumentReview) Execute(ctx context.Context, step *models.WorkflowStep, wctx map[string]any) (any, error) {
	text, err := documentText(step, wctx)
	if err != nil {
		return nil, err
	}

	result, err := h.analyzer.AnalyzeDocument(ctx, text, step.StringParam("reviewType"))
	if err != nil {
		return nil, fmt.Errorf("document analysis failed: %w", err)
	}

	return result, nil
}
