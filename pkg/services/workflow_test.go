package services

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/juris/pkg/documents"
	"github.com/dukex/juris/pkg/mocks"
	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/notification"
	"github.com/dukex/juris/pkg/persistence"
	"github.com/dukex/juris/pkg/persistence/file"
	"github.com/dukex/juris/pkg/registry"
	"github.com/dukex/juris/pkg/steps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errUnavailable = errors.New("connection refused")

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func stepRegistry(p persistence.Persistence) *registry.Registry {
	reg := registry.NewRegistry(testLogger())
	steps.RegisterDefaults(reg, steps.Dependencies{
		Logger:    testLogger(),
		Templates: p.TemplateRepository(),
		Analyzer:  documents.NewAnalyzer(),
		Notifier:  notification.Noop{},
	})

	return reg
}

func newFileService(t *testing.T) *Workflow {
	t.Helper()

	p := file.NewPersistence(t.TempDir())

	return NewWorkflow(testLogger(), p, stepRegistry(p))
}

func contractWorkflow() *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		Name:        "Contrato de honorários",
		Description: "Gera e aprova o contrato",
		TriggerType: models.TriggerTypeManual,
		Enabled:     true,
		Steps: []models.WorkflowStep{
			{
				ID:                "generate",
				Name:              "Gerar contrato",
				Type:              models.StepTypeDocumentGeneration,
				Parameters:        map[string]any{"templateId": "tpl-honorarios"},
				NextStepOnSuccess: "approve",
				OutputVariable:    "contract",
			},
			{
				ID:         "approve",
				Name:       "Aprovação do sócio",
				Type:       models.StepTypeApproval,
				Parameters: map[string]any{"approvers": []any{"socio-1"}},
			},
		},
	}
}

func TestWorkflow_CRUD(t *testing.T) {
	service := newFileService(t)

	created, err := service.Create(t.Context(), contractWorkflow())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := service.Get(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Contrato de honorários", fetched.Name)
	assert.Len(t, fetched.Steps, 2)

	disabled := false
	name := "Contrato de honorários v2"

	updated, err := service.Update(t.Context(), created.ID, models.WorkflowPatch{Name: &name, Enabled: &disabled})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.False(t, updated.Enabled)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	list, err := service.List(t.Context())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, name, list[0].Name)

	require.NoError(t, service.Delete(t.Context(), created.ID))

	_, err = service.Get(t.Context(), created.ID)
	require.ErrorIs(t, err, ErrWorkflowNotFound)
	require.ErrorIs(t, service.Delete(t.Context(), created.ID), ErrWorkflowNotFound)
}

func TestWorkflow_CreateDuplicateID(t *testing.T) {
	service := newFileService(t)

	workflow := contractWorkflow()
	workflow.ID = "wf-fixed"

	_, err := service.Create(t.Context(), workflow)
	require.NoError(t, err)

	_, err = service.Create(t.Context(), workflow)
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
}

func TestWorkflow_ValidationRejectsBeforeMutation(t *testing.T) {
	service := newFileService(t)

	workflow := &models.WorkflowDefinition{
		Name:        "Quebrado",
		TriggerType: models.TriggerTypeScheduled,
		Trigger:     &models.TriggerConfig{Cron: "every monday"},
		Steps: []models.WorkflowStep{
			{ID: "a", Name: "Gerar", Type: models.StepTypeDocumentGeneration, NextStepOnSuccess: "ghost"},
			{ID: "a", Name: "Duplicado", Type: "teleport"},
		},
	}

	_, err := service.Create(t.Context(), workflow)
	require.ErrorIs(t, err, ErrValidation)
	assert.True(t, IsValidationError(err))

	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "invalid_workflow", serviceErr.Code)

	joined := serviceErr.Message
	assert.Contains(t, joined, "Description")
	assert.Contains(t, joined, `step id "a" is used more than once`)
	assert.Contains(t, joined, "requires templateId")
	assert.Contains(t, joined, `unknown step "ghost"`)
	assert.Contains(t, joined, "invalid cron expression")
	assert.Contains(t, joined, registry.ErrUnknownStepType.Error())

	list, err := service.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWorkflow_TriggerValidation(t *testing.T) {
	service := newFileService(t)

	event := contractWorkflow()
	event.TriggerType = models.TriggerTypeEvent

	_, err := service.Create(t.Context(), event)
	require.ErrorIs(t, err, ErrValidation)

	event.Trigger = &models.TriggerConfig{Event: "document.uploaded"}
	_, err = service.Create(t.Context(), event)
	require.NoError(t, err)

	scheduled := contractWorkflow()
	scheduled.TriggerType = models.TriggerTypeScheduled
	scheduled.Trigger = &models.TriggerConfig{Cron: "0 9 * * 1-5"}
	_, err = service.Create(t.Context(), scheduled)
	require.NoError(t, err)

	byTrigger, err := service.ListByTrigger(t.Context(), models.TriggerTypeScheduled)
	require.NoError(t, err)
	require.Len(t, byTrigger, 1)
	assert.Equal(t, "0 9 * * 1-5", byTrigger[0].Trigger.Cron)
}

func TestWorkflow_InvalidPatchLeavesStoredDefinition(t *testing.T) {
	service := newFileService(t)

	created, err := service.Create(t.Context(), contractWorkflow())
	require.NoError(t, err)

	empty := []models.WorkflowStep{}
	_, err = service.Update(t.Context(), created.ID, models.WorkflowPatch{Steps: &empty})
	require.ErrorIs(t, err, ErrValidation)

	fetched, err := service.Get(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Len(t, fetched.Steps, 2)
}

func TestWorkflow_StoreFailuresServeCache(t *testing.T) {
	p := mocks.NewMockPersistence()
	p.Workflows.On("Save", mock.Anything, mock.Anything).Return(errUnavailable)
	p.Workflows.On("GetByID", mock.Anything, mock.Anything).Return(nil, errUnavailable)
	p.Workflows.On("GetAll", mock.Anything).Return(nil, errUnavailable)

	service := NewWorkflow(testLogger(), p, stepRegistry(p))

	created, err := service.Create(t.Context(), contractWorkflow())
	require.NoError(t, err)

	fetched, err := service.Get(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, fetched.Name)

	list, err := service.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = service.Get(t.Context(), "unknown")
	require.ErrorIs(t, err, ErrWorkflowNotFound)

	p.AssertExpectations(t)
}

func TestWorkflow_StoreIsRefreshedWhenReachable(t *testing.T) {
	stored := contractWorkflow()
	stored.ID = "wf-remote"
	stored.Name = "Criado por outro processo"

	p := mocks.NewMockPersistence()
	p.Workflows.On("GetByID", mock.Anything, "wf-remote").Return(stored, nil)
	p.Workflows.On("GetAll", mock.Anything).Return([]*models.WorkflowDefinition{stored}, nil)

	service := NewWorkflow(testLogger(), p, nil)

	fetched, err := service.Get(t.Context(), "wf-remote")
	require.NoError(t, err)
	assert.Equal(t, "Criado por outro processo", fetched.Name)

	list, err := service.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestWorkflow_MarkRun(t *testing.T) {
	service := newFileService(t)

	created, err := service.Create(t.Context(), contractWorkflow())
	require.NoError(t, err)
	assert.Nil(t, created.LastRunAt)

	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, service.MarkRun(t.Context(), created.ID, at))

	fetched, err := service.Get(t.Context(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.LastRunAt)
	assert.True(t, at.Equal(*fetched.LastRunAt))
}

func TestWorkflow_ExecutionLog(t *testing.T) {
	service := newFileService(t)
	now := time.Now().UTC()

	first := &models.WorkflowExecution{ID: "e1", WorkflowID: "wf", Status: models.ExecutionStatusCompleted, StartedAt: now}
	second := &models.WorkflowExecution{ID: "e2", WorkflowID: "wf", Status: models.ExecutionStatusRunning, StartedAt: now.Add(time.Minute)}

	require.NoError(t, service.SaveExecution(t.Context(), first))
	require.NoError(t, service.SaveExecution(t.Context(), second))

	second.Status = models.ExecutionStatusCompleted

	fetched, err := service.Execution(t.Context(), "e2")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, fetched.Status)

	executions, err := service.Executions(t.Context(), "wf")
	require.NoError(t, err)
	require.Len(t, executions, 2)
	assert.Equal(t, "e2", executions[0].ID)

	_, err = service.Execution(t.Context(), "missing")
	require.ErrorIs(t, err, ErrExecutionNotFound)

	require.ErrorIs(t, service.SaveExecution(t.Context(), &models.WorkflowExecution{}), ErrInvalidRequest)
}

func TestWorkflow_ExecutionLogSurvivesStoreOutage(t *testing.T) {
	p := mocks.NewMockPersistence()
	p.Executions.On("Save", mock.Anything, mock.Anything).Return(errUnavailable)
	p.Executions.On("GetByWorkflow", mock.Anything, "wf").Return(nil, errUnavailable)

	service := NewWorkflow(testLogger(), p, nil)

	require.NoError(t, service.SaveExecution(t.Context(), &models.WorkflowExecution{ID: "e1", WorkflowID: "wf"}))

	fetched, err := service.Execution(t.Context(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "wf", fetched.WorkflowID)

	executions, err := service.Executions(t.Context(), "wf")
	require.NoError(t, err)
	assert.Len(t, executions, 1)
}

func TestWorkflow_HealthCheck(t *testing.T) {
	p := mocks.NewMockPersistence()
	p.On("HealthCheck", mock.Anything).Return(errUnavailable).Once()
	p.On("HealthCheck", mock.Anything).Return(nil).Once()

	service := NewWorkflow(testLogger(), p, nil)

	message, ok := service.HealthCheck(t.Context())
	assert.False(t, ok)
	assert.Contains(t, message, "connection refused")

	_, ok = service.HealthCheck(t.Context())
	assert.True(t, ok)
}
