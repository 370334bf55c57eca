package steps

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/juris/pkg/documents"
	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/notification"
	"github.com/dukex/juris/pkg/template"
)

const (
	ActionClassifyDocument  = "classifyDocument"
	ActionConditionalBranch = "conditionalBranch"
	ActionFileDocument      = "fileDocument"
)

// Custom dispatches on the action parameter.
type Custom struct {
	logger   *slog.Logger
	notifier notification.Notifier
	now      func() time.Time
}

func NewCustom(logger *slog.Logger, notifier notification.Notifier) *Custom {
	return &Custom{logger: logger, notifier: notifier, now: time.Now}
}

func (h *Custom) Type() models.StepType {
	return models.StepTypeCustom
}

func (h *Custom) Name() string {
	return "Custom action"
}

func (h *Custom) Description() string {
	return "Runs classifyDocument, conditionalBranch or fileDocument"
}

func (h *Custom) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type": "string",
				"enum": []string{ActionClassifyDocument, ActionConditionalBranch, ActionFileDocument},
			},
			"documentVariable":       map[string]any{"type": "string"},
			"field":                  map[string]any{"type": "string"},
			"operator":               map[string]any{"type": "string"},
			"value":                  map[string]any{},
			"trueStep":               map[string]any{"type": "string"},
			"falseStep":              map[string]any{"type": "string"},
			"classificationVariable": map[string]any{"type": "string"},
			"category":               map[string]any{"type": "string"},
			"clientId":               map[string]any{"type": "string"},
			"fileName":               map[string]any{"type": "string"},
			"notify":                 map[string]any{"type": "boolean"},
			"recipients":             map[string]any{},
		},
		"required": []string{"action"},
	}
}

func (h *Custom) Execute(ctx context.Context, step *models.WorkflowStep, wctx map[string]any) (any, error) {
	action := step.StringParam("action")

	switch action {
	case ActionClassifyDocument:
		return h.classifyDocument(step, wctx)
	case ActionConditionalBranch:
		return h.conditionalBranch(step, wctx)
	case ActionFileDocument:
		return h.fileDocument(ctx, step, wctx)
	case "":
		return nil, missing("action")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
}

func (h *Custom) classifyDocument(step *models.WorkflowStep, wctx map[string]any) (any, error) {
	text, err := documentText(step, wctx)
	if err != nil {
		return nil, err
	}

	return documents.Classify(text), nil
}

// conditionalBranch picks trueStep or falseStep. The operator defaults to equals.
func (h *Custom) conditionalBranch(step *models.WorkflowStep, wctx map[string]any) (any, error) {
	field := step.StringParam("field")
	if field == "" {
		return nil, missing("field")
	}

	operator := models.ConditionOperator(step.StringParam("operator"))
	if operator == "" {
		operator = models.OperatorEquals
	}

	if !operator.IsValid() {
		return nil, fmt.Errorf("unsupported operator %q", operator)
	}

	result := models.EvaluateCondition(&models.StepCondition{
		Field:    field,
		Operator: operator,
		Value:    step.Parameters["value"],
	}, wctx)

	decision := models.BranchDecision{Result: result, NextStepID: step.StringParam("falseStep")}
	if result {
		decision.NextStepID = step.StringParam("trueStep")
	}

	return decision, nil
}

// fileDocument derives the storage path from a classification found in the context or
// from the category parameter.
func (h *Custom) fileDocument(ctx context.Context, step *models.WorkflowStep, wctx map[string]any) (any, error) {
	category := step.StringParam("category")
	documentType := ""

	if variable := step.StringParam("classificationVariable"); variable != "" {
		value, found := models.ResolvePath(wctx, variable)
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, variable)
		}

		switch classification := value.(type) {
		case models.DocumentClassification:
			category, documentType = classification.Category, classification.DocumentType
		case *models.DocumentClassification:
			category, documentType = classification.Category, classification.DocumentType
		case map[string]any:
			category, _ = classification["category"].(string)
			documentType, _ = classification["document_type"].(string)
		}
	}

	clientID := template.Interpolate(step.StringParam("clientId"), wctx)
	fileName := template.Interpolate(step.StringParam("fileName"), wctx)
	filedAt := h.now().UTC()
	filingPath := documents.FilingPath(category, clientID, fileName, filedAt)

	output := map[string]any{
		"path":         filingPath,
		"category":     category,
		"documentType": documentType,
		"filedAt":      filedAt.Format(time.RFC3339),
	}

	if !boolParam(step, "notify") {
		return output, nil
	}

	recipients := template.ResolveList(step.Parameters["recipients"], wctx)
	if len(recipients) == 0 {
		return output, nil
	}

	err := h.notifier.Notify(ctx, models.Notification{
		Title:      "Documento arquivado",
		Message:    "Documento arquivado em " + filingPath,
		Type:       models.NotificationInfo,
		Recipients: recipients,
		Data:       map[string]any{"path": filingPath, "stepId": step.ID},
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to notify filing", "step_id", step.ID, "error", err)
	}

	return output, nil
}
