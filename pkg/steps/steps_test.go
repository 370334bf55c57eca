package steps

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukex/juris/pkg/documents"
	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/notification"
	"github.com/dukex/juris/pkg/persistence"
	"github.com/dukex/juris/pkg/persistence/file"
	"github.com/dukex/juris/pkg/registry"
	"github.com/dukex/juris/pkg/services"
	"github.com/dukex/juris/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, models.Notification) error {
	return errors.New("unreachable")
}

func TestDocumentGeneration_PlaceholderRoundTrip(t *testing.T) {
	templates := file.NewPersistence(t.TempDir()).TemplateRepository()
	require.NoError(t, templates.Save(t.Context(), &models.DocumentTemplate{ID: "saudacao", Name: "Saudação", Content: "Olá [NOME]"}))

	handler := NewDocumentGeneration(testLogger, templates)
	step := &models.WorkflowStep{
		ID:   "gen",
		Type: models.StepTypeDocumentGeneration,
		Parameters: map[string]any{
			"templateId":       "saudacao",
			"parameterMapping": map[string]any{"NOME": "context.user.name"},
		},
	}

	output, err := handler.Execute(t.Context(), step, map[string]any{"user": map[string]any{"name": "Ana"}})
	require.NoError(t, err)
	assert.Equal(t, "Olá Ana", output)

	stored, err := templates.GetByID(t.Context(), "saudacao")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsageCount)
}

func TestDocumentGeneration_Failures(t *testing.T) {
	handler := NewDocumentGeneration(testLogger, file.NewPersistence(t.TempDir()).TemplateRepository())

	_, err := handler.Execute(t.Context(), &models.WorkflowStep{ID: "gen"}, map[string]any{})
	assert.ErrorIs(t, err, ErrMissingParameter)

	_, err = handler.Execute(t.Context(), &models.WorkflowStep{ID: "gen", Parameters: map[string]any{"templateId": "nope"}}, map[string]any{})
	assert.ErrorIs(t, err, persistence.ErrTemplateNotFound)
}

func TestDocumentReview(t *testing.T) {
	handler := NewDocumentReview(documents.NewAnalyzer())
	step := &models.WorkflowStep{ID: "review", Parameters: map[string]any{"documentVariable": "draft", "reviewType": "contract"}}

	output, err := handler.Execute(t.Context(), step, map[string]any{"draft": "Contrato com objeto, prazo, pagamento, rescisão e foro."})
	require.NoError(t, err)

	result, ok := output.(*models.AnalysisResult)
	require.True(t, ok)
	assert.Equal(t, 100, result.CompletenessScore)

	_, err = handler.Execute(t.Context(), step, map[string]any{})
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestNotification(t *testing.T) {
	recorder := &notification.Recorder{}
	handler := NewNotification(testLogger, recorder)
	wctx := map[string]any{"client": map[string]any{"name": "Ana"}, "lawyer": "u-1", "doc": "Minuta"}

	output, err := handler.Execute(t.Context(), &models.WorkflowStep{
		ID: "notify",
		Parameters: map[string]any{
			"title":            "Cliente {{client.name}}",
			"message":          "Documento de {{client.name}} pronto",
			"recipients":       []any{"{{lawyer}}", "u-2"},
			"attachDocument":   true,
			"documentVariable": "doc",
		},
	}, wctx)
	require.NoError(t, err)
	assert.Equal(t, true, output.(map[string]any)["sent"])

	sent := recorder.Notifications()
	require.Len(t, sent, 1)
	assert.Equal(t, "Cliente Ana", sent[0].Title)
	assert.Equal(t, "Documento de Ana pronto", sent[0].Message)
	assert.Equal(t, []string{"u-1", "u-2"}, sent[0].Recipients)
	assert.Equal(t, "Minuta", sent[0].Data["document"])
	assert.Equal(t, models.NotificationInfo, sent[0].Type)

	_, err = handler.Execute(t.Context(), &models.WorkflowStep{ID: "n", Parameters: map[string]any{"title": "x", "message": "y"}}, wctx)
	assert.ErrorIs(t, err, ErrMissingParameter)
}

func TestNotification_DeliveryErrorIsNotAFailure(t *testing.T) {
	handler := NewNotification(testLogger, failingNotifier{})

	output, err := handler.Execute(t.Context(), &models.WorkflowStep{
		ID:         "n",
		Parameters: map[string]any{"title": "x", "message": "y", "recipients": "u-1"},
	}, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, false, output.(map[string]any)["sent"])
}

func TestExternalIntegration(t *testing.T) {
	handler := NewExternalIntegration()

	output, err := handler.Execute(t.Context(), &models.WorkflowStep{Parameters: map[string]any{"integration": "pje"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "success", output.(map[string]any)["status"])
	assert.Equal(t, "pje", output.(map[string]any)["integration"])
}

func TestCustom_ClassifyDocument(t *testing.T) {
	handler := NewCustom(testLogger, notification.Noop{})

	output, err := handler.Execute(t.Context(), &models.WorkflowStep{
		Parameters: map[string]any{"action": ActionClassifyDocument, "documentVariable": "doc"},
	}, map[string]any{"doc": "PROCURAÇÃO: o outorgante nomeia o outorgado com poderes amplos."})
	require.NoError(t, err)
	assert.Equal(t, "power_of_attorney", output.(models.DocumentClassification).DocumentType)
}

func TestCustom_ConditionalBranch(t *testing.T) {
	handler := NewCustom(testLogger, notification.Noop{})
	step := &models.WorkflowStep{Parameters: map[string]any{
		"action":    ActionConditionalBranch,
		"field":     "context.area",
		"value":     "trabalhista",
		"trueStep":  "labor",
		"falseStep": "civil",
	}}

	output, err := handler.Execute(t.Context(), step, map[string]any{"area": "trabalhista"})
	require.NoError(t, err)
	assert.Equal(t, models.BranchDecision{Result: true, NextStepID: "labor"}, output)

	output, err = handler.Execute(t.Context(), step, map[string]any{"area": "civil"})
	require.NoError(t, err)
	assert.Equal(t, models.BranchDecision{Result: false, NextStepID: "civil"}, output)
}

func TestCustom_FileDocument(t *testing.T) {
	recorder := &notification.Recorder{}
	handler := NewCustom(testLogger, recorder)
	handler.now = func() time.Time { return time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC) }

	output, err := handler.Execute(t.Context(), &models.WorkflowStep{ID: "file", Parameters: map[string]any{
		"action":                 ActionFileDocument,
		"classificationVariable": "classification",
		"clientId":               "{{client.id}}",
		"fileName":               "contrato.pdf",
		"notify":                 true,
		"recipients":             "u-1",
	}}, map[string]any{
		"client":         map[string]any{"id": "c-9"},
		"classification": models.DocumentClassification{DocumentType: "contract", Category: "contratos"},
	})
	require.NoError(t, err)
	assert.Equal(t, "documents/contratos/2026/05/c-9/contrato.pdf", output.(map[string]any)["path"])
	assert.Len(t, recorder.Notifications(), 1)
}

func TestCustom_UnknownAction(t *testing.T) {
	handler := NewCustom(testLogger, notification.Noop{})

	_, err := handler.Execute(t.Context(), &models.WorkflowStep{Parameters: map[string]any{"action": "sign"}}, nil)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestNotification_UnresolvedRecipientsContinueOnFailureBranch(t *testing.T) {
	p := file.NewPersistence(t.TempDir())

	reg := registry.NewRegistry(testLogger)
	RegisterDefaults(reg, Dependencies{
		Logger:    testLogger,
		Templates: p.TemplateRepository(),
		Analyzer:  documents.NewAnalyzer(),
		Notifier:  notification.Noop{},
	})

	require.NoError(t, p.WorkflowRepository().Save(t.Context(), &models.WorkflowDefinition{
		ID:          "wf-aviso",
		Name:        "Aviso à equipe",
		Description: "Avisa a equipe e registra no tribunal",
		TriggerType: models.TriggerTypeManual,
		Enabled:     true,
		Steps: []models.WorkflowStep{
			{
				ID:   "notify",
				Name: "Avisar equipe",
				Type: models.StepTypeNotification,
				Parameters: map[string]any{
					"title":      "Prazo",
					"message":    "Prazo do caso {{caseId}}",
					"recipients": "{{team}}",
				},
				NextStepOnSuccess: "protocol",
				NextStepOnFailure: "protocol",
			},
			{ID: "protocol", Name: "Protocolar", Type: models.StepTypeExternalIntegration},
		},
	}))

	registryService := services.NewWorkflow(testLogger, p, reg)
	executor := workflow.NewExecutor(workflow.Config{
		Logger:     testLogger,
		Workflows:  registryService,
		Executions: registryService,
		Registry:   reg,
	})

	execution, err := executor.Execute(t.Context(), "wf-aviso", map[string]any{"caseId": "42"}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, execution.Status)
	require.Len(t, execution.Results, 2)
	assert.Equal(t, models.StepResultFailure, execution.Results[0].Status)
	assert.Contains(t, execution.Results[0].Error, "recipients")
	assert.Equal(t, models.StepResultSuccess, execution.Results[1].Status)
}

func TestRegisterDefaults_Schemas(t *testing.T) {
	r := registry.NewRegistry(testLogger)
	RegisterDefaults(r, Dependencies{
		Logger:    testLogger,
		Templates: file.NewPersistence(t.TempDir()).TemplateRepository(),
		Analyzer:  documents.NewAnalyzer(),
		Notifier:  notification.Noop{},
	})

	assert.Len(t, r.Descriptors(), 6)

	_, ok := r.Handler(models.StepTypeApproval)
	assert.False(t, ok)

	assert.ErrorIs(t, r.ValidateStep(&models.WorkflowStep{ID: "g", Type: models.StepTypeDocumentGeneration}), registry.ErrInvalidParameters)
	assert.NoError(t, r.ValidateStep(&models.WorkflowStep{ID: "g", Type: models.StepTypeDocumentGeneration, Parameters: map[string]any{"templateId": "t"}}))
	assert.NoError(t, r.ValidateStep(&models.WorkflowStep{ID: "a", Type: models.StepTypeApproval, Parameters: map[string]any{"approvers": "{{context.lawyer}}"}}))
	assert.ErrorIs(t, r.ValidateStep(&models.WorkflowStep{ID: "a", Type: models.StepTypeApproval, Parameters: map[string]any{"approvers": []any{}}}), registry.ErrInvalidParameters)
}
