package models

import (
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validWorkflow() *WorkflowDefinition {
	return &WorkflowDefinition{
		ID:          "wf-1",
		Name:        "Petição inicial",
		Description: "Gera e revisa a petição inicial",
		TriggerType: TriggerTypeManual,
		Enabled:     true,
		Steps: []WorkflowStep{
			{
				ID:         "generate",
				Name:       "Gerar documento",
				Type:       StepTypeDocumentGeneration,
				Parameters: map[string]any{"templateId": "tpl-1"},
			},
		},
	}
}

func TestWorkflowDefinition_Validation(t *testing.T) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	require.NoError(t, validate.Struct(validWorkflow()))

	missingName := validWorkflow()
	missingName.Name = ""
	assert.Error(t, validate.Struct(missingName))

	noSteps := validWorkflow()
	noSteps.Steps = nil
	assert.Error(t, validate.Struct(noSteps))

	badTrigger := validWorkflow()
	badTrigger.TriggerType = "hourly"
	err := validate.Struct(badTrigger)
	require.Error(t, err)

	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrors))
	assert.Equal(t, "TriggerType", validationErrors[0].Field())

	stepWithoutType := validWorkflow()
	stepWithoutType.Steps[0].Type = ""
	assert.Error(t, validate.Struct(stepWithoutType))
}

func TestWorkflowDefinition_StepByID(t *testing.T) {
	workflow := validWorkflow()

	step, ok := workflow.StepByID("generate")
	require.True(t, ok)
	assert.Equal(t, "Gerar documento", step.Name)

	_, ok = workflow.StepByID("missing")
	assert.False(t, ok)

	assert.Equal(t, "generate", workflow.FirstStepID())
	assert.Empty(t, (&WorkflowDefinition{}).FirstStepID())
}

func TestWorkflowDefinition_CloneIsolatesParameters(t *testing.T) {
	workflow := validWorkflow()
	clone := workflow.Clone()

	clone.Steps[0].Parameters["templateId"] = "tpl-2"
	clone.Name = "Outro"

	assert.Equal(t, "tpl-1", workflow.Steps[0].Parameters["templateId"])
	assert.Equal(t, "Petição inicial", workflow.Name)
}

func TestWorkflowPatch_Apply(t *testing.T) {
	workflow := validWorkflow()
	name := "Contestação"
	enabled := false

	merged := WorkflowPatch{Name: &name, Enabled: &enabled}.Apply(workflow)

	assert.Equal(t, "Contestação", merged.Name)
	assert.False(t, merged.Enabled)
	assert.Equal(t, workflow.Description, merged.Description)
	assert.Equal(t, "Petição inicial", workflow.Name)
}

func TestWorkflowDefinition_NextRunAt(t *testing.T) {
	workflow := validWorkflow()
	workflow.TriggerType = TriggerTypeScheduled
	workflow.Trigger = &TriggerConfig{Cron: "0 9 * * 1"}

	reference := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) // Wednesday
	next, err := workflow.NextRunAt(reference)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC), next)

	workflow.Trigger.Cron = "not a cron"
	_, err = workflow.NextRunAt(reference)
	assert.Error(t, err)

	workflow.Trigger = nil
	_, err = workflow.NextRunAt(reference)
	assert.ErrorIs(t, err, ErrMissingCron)
}
