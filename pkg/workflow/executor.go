// Package workflow runs workflow definitions step by step and suspends them at approval gates.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/dukex/juris/pkg/eventbus"
	"github.com/dukex/juris/pkg/events"
	"github.com/dukex/juris/pkg/metrics"
	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/notification"
	"github.com/dukex/juris/pkg/otelhelper"
	"github.com/dukex/juris/pkg/persistence"
	"github.com/dukex/juris/pkg/registry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxSteps bounds the steps a single run may visit when Config.MaxSteps is unset.
const DefaultMaxSteps = 100

// WorkflowSource resolves workflow definitions for the executor.
type WorkflowSource interface {
	Get(ctx context.Context, id string) (*models.WorkflowDefinition, error)
	MarkRun(ctx context.Context, id string, at time.Time) error
}

// ExecutionStore is the execution log the executor writes after every state change.
type ExecutionStore interface {
	SaveExecution(ctx context.Context, execution *models.WorkflowExecution) error
	Execution(ctx context.Context, id string) (*models.WorkflowExecution, error)
}

type Config struct {
	Logger     *slog.Logger
	Workflows  WorkflowSource
	Executions ExecutionStore
	Registry   *registry.Registry
	Tasks      persistence.TaskRepository
	Notifier   notification.Notifier
	Publisher  eventbus.EventPublisher
	Tracer     trace.Tracer
	MaxSteps   int
}

type Executor struct {
	logger     *slog.Logger
	workflows  WorkflowSource
	executions ExecutionStore
	registry   *registry.Registry
	notifier   notification.Notifier
	publisher  eventbus.EventPublisher
	tracer     trace.Tracer
	maxSteps   int
	gate       *ApprovalGate
	now        func() time.Time

	mu     sync.Mutex
	active map[string]*activeRun
}

type activeRun struct {
	cancel      context.CancelCauseFunc
	cancelledBy string
}

func NewExecutor(cfg Config) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Executor{
		logger:     logger.With("module", "workflow_executor"),
		workflows:  cfg.Workflows,
		executions: cfg.Executions,
		registry:   cfg.Registry,
		notifier:   cfg.Notifier,
		publisher:  cfg.Publisher,
		tracer:     cfg.Tracer,
		maxSteps:   cfg.MaxSteps,
		now:        func() time.Time { return time.Now().UTC() },
		active:     make(map[string]*activeRun),
	}

	if e.notifier == nil {
		e.notifier = notification.Noop{}
	}

	if e.tracer == nil {
		e.tracer = otelhelper.NoopTracer()
	}

	if e.maxSteps <= 0 {
		e.maxSteps = DefaultMaxSteps
	}

	e.gate = newApprovalGate(e, NewTaskStore(logger, cfg.Tasks))

	return e
}

// Approvals returns the approval gate bound to this executor.
func (e *Executor) Approvals() *ApprovalGate {
	return e.gate
}

// Execute starts a new execution of the workflow and runs it until it completes, fails or
// suspends at an approval step. The execution is returned together with the run error when
// a step failure was not recovered.
func (e *Executor) Execute(
	ctx context.Context,
	workflowID string,
	wctx map[string]any,
	initiatorID string,
) (*models.WorkflowExecution, error) {
	if workflowID == "" {
		return nil, fmt.Errorf("%w: workflow id is required", ErrInvalidArgument)
	}

	if initiatorID == "" {
		return nil, fmt.Errorf("%w: initiator id is required", ErrInvalidArgument)
	}

	workflow, err := e.workflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if !workflow.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowDisabled, workflowID)
	}

	execution := &models.WorkflowExecution{
		ID:          uuid.NewString(),
		WorkflowID:  workflow.ID,
		Status:      models.ExecutionStatusRunning,
		StartedAt:   e.now(),
		Results:     []models.StepResult{},
		Context:     make(map[string]any, len(wctx)),
		InitiatedBy: initiatorID,
	}
	maps.Copy(execution.Context, wctx)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.WorkflowNameKey, workflow.Name),
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
		attribute.String(otelhelper.InitiatorKey, initiatorID),
	)
	defer span.End()

	logger := e.logger.With("workflow_id", workflow.ID, "execution_id", execution.ID)
	logger.InfoContext(ctx, "Starting workflow execution", "initiated_by", initiatorID)

	e.save(ctx, execution)
	metrics.IncExecutionStatus(models.ExecutionStatusRunning)

	started := events.WorkflowExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.WorkflowExecutionStartedEvent, workflow.ID),
		ExecutionID: execution.ID,
		InitiatedBy: initiatorID,
		Context:     wctx,
	}
	e.publish(ctx, execution.ID, started)

	e.notify(ctx, models.Notification{
		Title:      "Workflow iniciado",
		Message:    fmt.Sprintf("O workflow %q foi iniciado.", workflow.Name),
		Type:       models.NotificationInfo,
		Recipients: []string{initiatorID},
		Data:       map[string]any{"workflowId": workflow.ID, "executionId": execution.ID},
	})

	if err := e.workflows.MarkRun(ctx, workflow.ID, execution.StartedAt); err != nil {
		logger.WarnContext(ctx, "Failed to record workflow run", "error", err)
	}

	err = e.drive(ctx, execution, workflow, workflow.FirstStepID())
	if err != nil {
		otelhelper.SetError(span, err)
	}

	return execution, err
}

// Execution returns the current state of an execution.
func (e *Executor) Execution(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: execution id is required", ErrInvalidArgument)
	}

	execution, err := e.executions.Execution(ctx, id)
	if err != nil {
		if !errors.Is(err, persistence.ErrExecutionNotFound) {
			e.logger.WarnContext(ctx, "Failed to load execution", "execution_id", id, "error", err)
		}

		return nil, fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
	}

	return execution, nil
}

// CancelExecution stops a running execution before its next step, or cancels a suspended
// one and voids its pending approval tasks.
func (e *Executor) CancelExecution(ctx context.Context, id, userID string) error {
	if id == "" || userID == "" {
		return fmt.Errorf("%w: execution id and user id are required", ErrInvalidArgument)
	}

	e.mu.Lock()
	run, ok := e.active[id]
	if ok && run.cancelledBy == "" {
		run.cancelledBy = userID
	}
	e.mu.Unlock()

	if ok {
		run.cancel(errCancelled)
		e.logger.InfoContext(ctx, "Cancellation requested for running execution",
			"execution_id", id, "user_id", userID)

		return nil
	}

	execution, err := e.Execution(ctx, id)
	if err != nil {
		return err
	}

	switch execution.Status {
	case models.ExecutionStatusWaitingApproval:
		return e.gate.cancel(ctx, id, userID)
	case models.ExecutionStatusRunning:
		// Nothing is running it in this process, so the record is finalized directly.
		e.finish(ctx, execution, e.workflowName(ctx, execution.WorkflowID), nil, userID, 0)

		return nil
	default:
		return fmt.Errorf("%w: %s is %s", ErrExecutionNotRunning, id, execution.Status)
	}
}

func (e *Executor) workflow(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	workflow, err := e.workflows.Get(ctx, id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) || errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
		}

		return nil, fmt.Errorf("failed to load workflow %s: %w", id, err)
	}

	return workflow, nil
}

func (e *Executor) workflowName(ctx context.Context, id string) string {
	workflow, err := e.workflows.Get(ctx, id)
	if err != nil {
		return id
	}

	return workflow.Name
}

// drive runs the execution from stepID and finalizes it.
func (e *Executor) drive(
	ctx context.Context,
	execution *models.WorkflowExecution,
	workflow *models.WorkflowDefinition,
	stepID string,
) error {
	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	run := &activeRun{cancel: cancel}

	e.mu.Lock()
	e.active[execution.ID] = run
	e.mu.Unlock()

	runErr := e.runSteps(runCtx, execution, workflow, stepID)

	e.mu.Lock()
	delete(e.active, execution.ID)
	// A cancel request that lands after the last step leaves the finished run as it is.
	cancelledBy := ""
	if runErr != nil && errors.Is(context.Cause(runCtx), errCancelled) {
		cancelledBy = run.cancelledBy
	}
	e.mu.Unlock()

	return e.finish(ctx, execution, workflow.Name, runErr, cancelledBy, 0)
}

// runSteps walks the step links starting at stepID. It returns nil when the run reaches
// the end of a branch or suspends at an approval step.
func (e *Executor) runSteps(
	ctx context.Context,
	execution *models.WorkflowExecution,
	workflow *models.WorkflowDefinition,
	stepID string,
) error {
	visited := 0

	for stepID != "" {
		if errors.Is(context.Cause(ctx), errCancelled) {
			return errCancelled
		}

		visited++
		if visited > e.maxSteps {
			return fmt.Errorf("%w: more than %d steps visited, last was %s", ErrStepLimitExceeded, e.maxSteps, stepID)
		}

		step, ok := workflow.StepByID(stepID)
		if !ok {
			return fmt.Errorf("%w: %s in workflow %s", ErrStepNotFound, stepID, workflow.ID)
		}

		execution.CurrentStepID = step.ID
		logger := e.logger.With("workflow_id", workflow.ID, "execution_id", execution.ID, "step_id", step.ID)

		if !models.EvaluateCondition(step.Condition, execution.Context) {
			now := e.now()
			execution.AddResult(models.StepResult{
				StepID:      step.ID,
				Status:      models.StepResultSkipped,
				StartedAt:   now,
				CompletedAt: now,
			})
			metrics.ObserveStep(step.Type, models.StepResultSkipped, 0)
			e.save(ctx, execution)

			logger.InfoContext(ctx, "Step condition not met, skipping", "next_step", step.NextStepOnFailure)
			stepID = step.NextStepOnFailure

			continue
		}

		if step.Type == models.StepTypeApproval {
			return e.suspend(ctx, execution, step)
		}

		next, err := e.runStep(ctx, execution, workflow, step)
		if err != nil {
			if step.NextStepOnFailure == "" {
				return &StepError{StepID: step.ID, StepType: step.Type, Err: err}
			}

			logger.WarnContext(ctx, "Step failed, continuing on failure branch",
				"error", err, "next_step", step.NextStepOnFailure)
			stepID = step.NextStepOnFailure

			continue
		}

		stepID = next
	}

	return nil
}

// runStep dispatches one step to its handler and records the result. It returns the id of
// the step to run next on success.
func (e *Executor) runStep(
	ctx context.Context,
	execution *models.WorkflowExecution,
	workflow *models.WorkflowDefinition,
	step *models.WorkflowStep,
) (string, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.step",
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
		attribute.String(otelhelper.StepIDKey, step.ID),
		attribute.String(otelhelper.StepTypeKey, string(step.Type)),
	)
	defer span.End()

	startedAt := e.now()

	var (
		output any
		err    error
	)

	handler, ok := e.registry.Handler(step.Type)
	if ok {
		output, err = handler.Execute(ctx, step, execution.Context)
	} else {
		err = fmt.Errorf("%w: %s", registry.ErrUnknownStepType, step.Type)
	}

	completedAt := e.now()
	duration := completedAt.Sub(startedAt)

	if err != nil {
		otelhelper.SetError(span, err)

		execution.AddResult(models.StepResult{
			StepID:      step.ID,
			Status:      models.StepResultFailure,
			Error:       err.Error(),
			StartedAt:   startedAt,
			CompletedAt: completedAt,
		})
		metrics.ObserveStep(step.Type, models.StepResultFailure, duration)
		e.save(ctx, execution)

		e.publish(ctx, execution.ID, events.WorkflowStepFailed{
			BaseEvent:   events.NewBaseEvent(events.WorkflowStepFailedEvent, workflow.ID),
			ExecutionID: execution.ID,
			StepID:      step.ID,
			StepType:    step.Type,
			Error:       err.Error(),
			Recovered:   step.NextStepOnFailure != "",
			Duration:    duration,
		})

		return "", err
	}

	if step.OutputVariable != "" {
		execution.Context[step.OutputVariable] = output
	}

	execution.AddResult(models.StepResult{
		StepID:      step.ID,
		Status:      models.StepResultSuccess,
		Output:      output,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
	})
	metrics.ObserveStep(step.Type, models.StepResultSuccess, duration)
	e.save(ctx, execution)

	e.publish(ctx, execution.ID, events.WorkflowStepFinished{
		BaseEvent:   events.NewBaseEvent(events.WorkflowStepFinishedEvent, workflow.ID),
		ExecutionID: execution.ID,
		StepID:      step.ID,
		StepType:    step.Type,
		Status:      models.StepResultSuccess,
		Duration:    duration,
	})

	next := step.NextStepOnSuccess
	if decision, ok := output.(models.BranchDecision); ok && decision.NextStepID != "" {
		next = decision.NextStepID
	}

	return next, nil
}

// suspend opens the approval gate for step. Gate setup errors fail the execution even when
// the step has a failure branch.
func (e *Executor) suspend(ctx context.Context, execution *models.WorkflowExecution, step *models.WorkflowStep) error {
	startedAt := e.now()

	suspended, err := e.gate.CreateApprovalStep(ctx, execution, step)
	if err != nil {
		execution.AddResult(models.StepResult{
			StepID:      step.ID,
			Status:      models.StepResultFailure,
			Error:       err.Error(),
			StartedAt:   startedAt,
			CompletedAt: e.now(),
		})
		metrics.ObserveStep(step.Type, models.StepResultFailure, e.now().Sub(startedAt))

		return &StepError{StepID: step.ID, StepType: step.Type, Err: err}
	}

	if suspended {
		e.save(ctx, execution)
	}

	return nil
}

// resume records the approval outcome of step and continues the run on the branch it selects.
func (e *Executor) resume(
	ctx context.Context,
	execution *models.WorkflowExecution,
	workflow *models.WorkflowDefinition,
	step *models.WorkflowStep,
	outcome models.ApprovalOutcome,
	waitingSince time.Time,
) error {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.resume",
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
		attribute.String(otelhelper.StepIDKey, step.ID),
	)
	defer span.End()

	now := e.now()

	if execution.Context == nil {
		execution.Context = make(map[string]any)
	}

	execution.Status = models.ExecutionStatusRunning
	execution.Context[approvalResultKey(step.ID)] = outcome.AsMap()

	result := models.StepResult{
		StepID:      step.ID,
		Status:      models.StepResultSuccess,
		Output:      outcome,
		StartedAt:   waitingSince,
		CompletedAt: now,
	}
	next := step.NextStepOnSuccess

	if outcome.AllApproved {
		if step.OutputVariable != "" {
			execution.Context[step.OutputVariable] = outcome.AsMap()
		}
	} else {
		result.Status = models.StepResultFailure
		result.Error = fmt.Sprintf("rejected by %v", outcome.Rejected)
		next = step.NextStepOnFailure
	}

	execution.AddResult(result)
	metrics.ObserveStep(step.Type, result.Status, now.Sub(waitingSince))

	e.publish(ctx, execution.ID, events.WorkflowExecutionResumed{
		BaseEvent:   events.NewBaseEvent(events.WorkflowExecutionResumedEvent, workflow.ID),
		ExecutionID: execution.ID,
		StepID:      step.ID,
		AllApproved: outcome.AllApproved,
		NextStepID:  next,
	})

	e.logger.InfoContext(ctx, "Resuming execution after approval",
		"execution_id", execution.ID, "step_id", step.ID, "all_approved", outcome.AllApproved, "next_step", next)

	if next == "" {
		return e.finish(ctx, execution, workflow.Name, nil, "", 0)
	}

	return e.drive(ctx, execution, workflow, next)
}

// finish moves the execution to its terminal state, unless it is waiting for approval, and
// reports the outcome. A non-empty cancelledBy marks the execution cancelled.
func (e *Executor) finish(
	ctx context.Context,
	execution *models.WorkflowExecution,
	workflowName string,
	runErr error,
	cancelledBy string,
	voidedTasks int,
) error {
	now := e.now()
	duration := now.Sub(execution.StartedAt)
	recipients := []string{execution.InitiatedBy}
	data := map[string]any{"workflowId": execution.WorkflowID, "executionId": execution.ID}
	logger := e.logger.With("workflow_id", execution.WorkflowID, "execution_id", execution.ID)

	switch {
	case cancelledBy != "":
		runErr = nil
		execution.Finish(models.ExecutionStatusCancelled, now)

		logger.InfoContext(ctx, "Workflow execution cancelled", "cancelled_by", cancelledBy)
		e.publish(ctx, execution.ID, events.WorkflowExecutionCancelled{
			BaseEvent:   events.NewBaseEvent(events.WorkflowExecutionCancelledEvent, execution.WorkflowID),
			ExecutionID: execution.ID,
			CancelledBy: cancelledBy,
			VoidedTasks: voidedTasks,
		})
		e.notify(ctx, models.Notification{
			Title:      "Workflow cancelado",
			Message:    fmt.Sprintf("O workflow %q foi cancelado por %s.", workflowName, cancelledBy),
			Type:       models.NotificationWarning,
			Recipients: recipients,
			Data:       data,
		})

	case runErr == nil && execution.Status == models.ExecutionStatusWaitingApproval:
		e.save(ctx, execution)

		return nil

	case runErr != nil:
		execution.Error = runErr.Error()
		execution.Finish(models.ExecutionStatusFailed, now)

		stepID := execution.CurrentStepID

		var stepErr *StepError
		if errors.As(runErr, &stepErr) {
			stepID = stepErr.StepID
		}

		logger.ErrorContext(ctx, "Workflow execution failed", "step_id", stepID, "error", runErr)
		e.publish(ctx, execution.ID, events.WorkflowExecutionFailed{
			BaseEvent:   events.NewBaseEvent(events.WorkflowExecutionFailedEvent, execution.WorkflowID),
			ExecutionID: execution.ID,
			StepID:      stepID,
			Error:       runErr.Error(),
			Duration:    duration,
		})
		e.notify(ctx, models.Notification{
			Title:      "Falha no workflow",
			Message:    fmt.Sprintf("O workflow %q falhou: %v", workflowName, runErr),
			Type:       models.NotificationError,
			Recipients: recipients,
			Priority:   "high",
			Data:       data,
		})

	default:
		execution.Finish(models.ExecutionStatusCompleted, now)

		logger.InfoContext(ctx, "Workflow execution completed", "steps", len(execution.Results))
		e.publish(ctx, execution.ID, events.WorkflowExecutionCompleted{
			BaseEvent:   events.NewBaseEvent(events.WorkflowExecutionCompletedEvent, execution.WorkflowID),
			ExecutionID: execution.ID,
			Steps:       len(execution.Results),
			Duration:    duration,
		})
		e.notify(ctx, models.Notification{
			Title:      "Workflow concluído",
			Message:    fmt.Sprintf("O workflow %q foi concluído.", workflowName),
			Type:       models.NotificationSuccess,
			Recipients: recipients,
			Data:       data,
		})
	}

	metrics.IncExecutionStatus(execution.Status)
	e.save(ctx, execution)

	return runErr
}

func (e *Executor) save(ctx context.Context, execution *models.WorkflowExecution) {
	if err := e.executions.SaveExecution(ctx, execution); err != nil {
		e.logger.WarnContext(ctx, "Failed to save execution", "execution_id", execution.ID, "error", err)
	}
}

func (e *Executor) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, key, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func (e *Executor) notify(ctx context.Context, n models.Notification) {
	if err := e.notifier.Notify(ctx, n); err != nil {
		e.logger.WarnContext(ctx, "Failed to send notification", "title", n.Title, "error", err)
	}
}
