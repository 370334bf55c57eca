package steps

import (
	"context"
	"log/slog"

	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/notification"
	"github.com/dukex/juris/pkg/template"
)

// Notification sends a message whose title and body may reference context values as {{path}}.
type Notification struct {
	logger   *slog.Logger
	notifier notification.Notifier
}

func NewNotification(logger *slog.Logger, notifier notification.Notifier) *Notification {
	return &Notification{logger: logger, notifier: notifier}
}

func (h *Notification) Type() models.StepType {
	return models.StepTypeNotification
}

func (h *Notification) Name() string {
	return "Notification"
}

func (h *Notification) Description() string {
	return "Notifies users, optionally attaching a document from the context"
}

func (h *Notification) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":   map[string]any{"type": "string", "minLength": 1},
			"message": map[string]any{"type": "string", "minLength": 1},
			"recipients": map[string]any{
				"description": "User ids or {{path}} references",
				"oneOf": []any{
					map[string]any{"type": "string"},
					map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 1},
				},
			},
			"type":             map[string]any{"type": "string", "enum": []string{"info", "success", "warning", "error", "approval"}},
			"priority":         map[string]any{"type": "string"},
			"attachDocument":   map[string]any{"type": "boolean"},
			"documentVariable": map[string]any{"type": "string"},
		},
		"required": []string{"title", "message", "recipients"},
	}
}

// Execute fails on missing parameters. Delivery errors are logged and reported in the
// output as sent=false without failing the step.
func (h *Notification) Execute(ctx context.Context, step *models.WorkflowStep, wctx map[string]any) (any, error) {
	title := step.StringParam("title")
	if title == "" {
		return nil, missing("title")
	}

	message := step.StringParam("message")
	if message == "" {
		return nil, missing("message")
	}

	recipients := template.ResolveList(step.Parameters["recipients"], wctx)
	if len(recipients) == 0 {
		return nil, missing("recipients")
	}

	notificationType := models.NotificationType(step.StringParam("type"))
	if notificationType == "" {
		notificationType = models.NotificationInfo
	}

	payload := models.Notification{
		Title:      template.Interpolate(title, wctx),
		Message:    template.Interpolate(message, wctx),
		Type:       notificationType,
		Recipients: recipients,
		Priority:   step.StringParam("priority"),
		Data:       map[string]any{"stepId": step.ID},
	}

	if boolParam(step, "attachDocument") {
		text, err := documentText(step, wctx)
		if err != nil {
			return nil, err
		}

		payload.Data["document"] = text
	}

	sent := true

	err := h.notifier.Notify(ctx, payload)
	if err != nil {
		sent = false

		h.logger.ErrorContext(ctx, "failed to send notification", "step_id", step.ID, "error", err)
	}

	return map[string]any{
		"sent":       sent,
		"title":      payload.Title,
		"recipients": recipients,
	}, nil
}
