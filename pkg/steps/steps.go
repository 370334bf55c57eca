// Package steps implements the handlers for every executable workflow step type.
package steps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/notification"
	"github.com/dukex/juris/pkg/persistence"
	"github.com/dukex/juris/pkg/registry"
)

var (
	ErrMissingParameter = errors.New("missing required parameter")
	ErrDocumentNotFound = errors.New("document not found in context")
	ErrUnknownAction    = errors.New("unknown custom action")
)

// DocumentAnalyzer reviews document text. documents.Analyzer is the production implementation.
type DocumentAnalyzer interface {
	AnalyzeDocument(ctx context.Context, text string, reviewType string) (*models.AnalysisResult, error)
}

// Dependencies are the collaborators shared by the built-in handlers.
type Dependencies struct {
	Logger    *slog.Logger
	Templates persistence.TemplateRepository
	Analyzer  DocumentAnalyzer
	Notifier  notification.Notifier
}

// RegisterDefaults registers every built-in step type, including the approval descriptor.
func RegisterDefaults(r *registry.Registry, deps Dependencies) {
	logger := deps.Logger.With("module", "steps")

	r.MustRegister(
		NewDocumentGeneration(logger, deps.Templates),
		NewDocumentReview(deps.Analyzer),
		NewNotification(logger, deps.Notifier),
		NewExternalIntegration(),
		NewCustom(logger, deps.Notifier),
		ApprovalDescriptor{},
	)
}

func missing(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingParameter, name)
}

// documentText reads the text stored under the step's documentVariable.
func documentText(step *models.WorkflowStep, wctx map[string]any) (string, error) {
	variable := step.StringParam("documentVariable")
	if variable == "" {
		return "", missing("documentVariable")
	}

	value, found := models.ResolvePath(wctx, variable)
	if !found {
		return "", fmt.Errorf("%w: %s", ErrDocumentNotFound, variable)
	}

	text, ok := value.(string)
	if !ok || text == "" {
		return "", fmt.Errorf("%w: %s is not document text", ErrDocumentNotFound, variable)
	}

	return text, nil
}

func boolParam(step *models.WorkflowStep, name string) bool {
	value, _ := step.Parameters[name].(bool)

	return value
}
