package services

import (
	"errors"
	"fmt"

	"github.com/dukex/juris/pkg/models"
	"github.com/go-playground/validator/v10"
)

// validateWorkflow collects every problem of a definition before any state is touched.
func (w *Workflow) validateWorkflow(workflow *models.WorkflowDefinition) error {
	problems := structProblems(w.validate.Struct(workflow))

	ids := make(map[string]struct{}, len(workflow.Steps))

	for i := range workflow.Steps {
		step := &workflow.Steps[i]

		if step.ID != "" {
			if _, dup := ids[step.ID]; dup {
				problems = append(problems, fmt.Sprintf("step id %q is used more than once", step.ID))
			}

			ids[step.ID] = struct{}{}
		}

		if step.Type == models.StepTypeDocumentGeneration && step.StringParam("templateId") == "" {
			problems = append(problems, fmt.Sprintf("step %q: document_generation requires templateId", step.ID))
		}

		if step.Condition != nil && !step.Condition.Operator.IsValid() {
			problems = append(problems, fmt.Sprintf("step %q: unsupported condition operator %q", step.ID, step.Condition.Operator))
		}

		if step.Type != "" && w.registry != nil {
			if err := w.registry.ValidateStep(step); err != nil {
				problems = append(problems, err.Error())
			}
		}
	}

	for _, step := range workflow.Steps {
		for _, target := range []string{step.NextStepOnSuccess, step.NextStepOnFailure} {
			if target == "" {
				continue
			}

			if _, ok := ids[target]; !ok {
				problems = append(problems, fmt.Sprintf("step %q links to unknown step %q", step.ID, target))
			}
		}
	}

	switch workflow.TriggerType {
	case models.TriggerTypeScheduled:
		cron := ""
		if workflow.Trigger != nil {
			cron = workflow.Trigger.Cron
		}

		if _, err := models.ParseCron(cron); err != nil {
			problems = append(problems, fmt.Sprintf("invalid cron expression %q: %v", cron, err))
		}
	case models.TriggerTypeEvent:
		if workflow.Trigger == nil || workflow.Trigger.Event == "" {
			problems = append(problems, "event workflows require trigger.event")
		}
	}

	if len(problems) > 0 {
		return NewValidationError("validate_workflow", "invalid_workflow", problems)
	}

	return nil
}

func structProblems(err error) []string {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	problems := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		problems = append(problems, fmt.Sprintf("%s failed on %s", fieldErr.Namespace(), fieldErr.Tag()))
	}

	return problems
}
