package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dukex/juris/pkg/events"
	"github.com/dukex/juris/pkg/metrics"
	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/otelhelper"
	"github.com/dukex/juris/pkg/template"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const defaultTaskPriority = "medium"

// ApprovalGate suspends executions at approval steps and resumes them once every approver
// has decided. A single rejection selects the failure branch.
type ApprovalGate struct {
	executor *Executor
	tasks    *TaskStore
	logger   *slog.Logger

	// locks serialises decisions, resumes and cancellations of the same execution.
	locks executionLocks
}

type executionLocks struct {
	mu    sync.Mutex
	locks map[string]*executionLock
}

type executionLock struct {
	sync.Mutex
	refs int
}

// lock acquires the lock of one execution and returns its release function.
func (l *executionLocks) lock(executionID string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*executionLock)
	}

	entry, ok := l.locks[executionID]
	if !ok {
		entry = &executionLock{}
		l.locks[executionID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.Lock()

	return func() {
		entry.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, executionID)
		}
		l.mu.Unlock()
	}
}

func newApprovalGate(executor *Executor, tasks *TaskStore) *ApprovalGate {
	return &ApprovalGate{
		executor: executor,
		tasks:    tasks,
		logger:   executor.logger.With("module", "approval_gate"),
	}
}

// approvalTasksKey is the context key holding the task ids created for a step.
func approvalTasksKey(stepID string) string {
	return "approval_" + stepID
}

// approvalResultKey is the context key holding the aggregate decision of a step.
func approvalResultKey(stepID string) string {
	return "approval_" + stepID + "_result"
}

// CreateApprovalStep creates one task per resolved approver, notifies each assignee and
// moves the execution to waiting_approval. It reports whether the execution is suspended.
func (g *ApprovalGate) CreateApprovalStep(
	ctx context.Context,
	execution *models.WorkflowExecution,
	step *models.WorkflowStep,
) (bool, error) {
	approvers := uniqueStrings(template.ResolveList(step.Parameters["approvers"], execution.Context))
	if len(approvers) == 0 {
		return false, fmt.Errorf("%w: approval step %s resolved no approvers", ErrValidation, step.ID)
	}

	now := g.executor.now()

	title := template.Interpolate(step.StringParam("title"), execution.Context)
	if title == "" {
		title = "Aprovação: " + step.Name
	}

	priority := step.StringParam("priority")
	if priority == "" {
		priority = defaultTaskPriority
	}

	var dueDate *time.Time
	if days, ok := intValue(step.Parameters["dueInDays"]); ok {
		due := now.AddDate(0, 0, days)
		dueDate = &due
	}

	taskIDs := make([]string, 0, len(approvers))

	for _, approver := range approvers {
		task := &models.ApprovalTask{
			ID:          uuid.NewString(),
			WorkflowID:  execution.WorkflowID,
			ExecutionID: execution.ID,
			StepID:      step.ID,
			Title:       title,
			Description: template.Interpolate(step.StringParam("description"), execution.Context),
			AssigneeID:  approver,
			Status:      models.TaskStatusPending,
			Priority:    priority,
			DueDate:     dueDate,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		g.tasks.Save(ctx, task)
		taskIDs = append(taskIDs, task.ID)

		g.executor.publish(ctx, execution.ID, events.ApprovalTaskCreated{
			BaseEvent:   events.NewBaseEvent(events.ApprovalTaskCreatedEvent, execution.WorkflowID),
			ExecutionID: execution.ID,
			TaskID:      task.ID,
			StepID:      step.ID,
			AssigneeID:  approver,
		})

		g.executor.notify(ctx, models.Notification{
			Title:      "Aprovação pendente",
			Message:    title,
			Type:       models.NotificationApproval,
			Recipients: []string{approver},
			Priority:   priority,
			Data: map[string]any{
				"workflowId":  execution.WorkflowID,
				"executionId": execution.ID,
				"stepId":      step.ID,
				"taskId":      task.ID,
			},
		})
	}

	if execution.Context == nil {
		execution.Context = make(map[string]any)
	}

	execution.Status = models.ExecutionStatusWaitingApproval
	execution.Context[approvalTasksKey(step.ID)] = taskIDs
	metrics.IncExecutionStatus(models.ExecutionStatusWaitingApproval)

	g.executor.publish(ctx, execution.ID, events.WorkflowExecutionWaitingApproval{
		BaseEvent:   events.NewBaseEvent(events.WorkflowExecutionWaitingApprovalEvent, execution.WorkflowID),
		ExecutionID: execution.ID,
		StepID:      step.ID,
		TaskIDs:     taskIDs,
	})

	g.logger.InfoContext(ctx, "Execution waiting for approval",
		"execution_id", execution.ID, "step_id", step.ID, "approvers", approvers)

	return true, nil
}

// ProcessApprovalResponse records a decision on a pending task. When it is the last pending
// task of its approval round, the execution resumes on the branch selected by the unanimity rule.
// Failures of the resumed run are reported on the execution, not returned.
func (g *ApprovalGate) ProcessApprovalResponse(
	ctx context.Context,
	taskID string,
	approved bool,
	comments string,
	userID string,
) error {
	if taskID == "" || userID == "" {
		return fmt.Errorf("%w: task id and user id are required", ErrInvalidArgument)
	}

	ctx, span := otelhelper.StartSpan(ctx, g.executor.tracer, "approval.respond",
		attribute.String(otelhelper.TaskIDKey, taskID))
	defer span.End()

	task, err := g.tasks.Get(ctx, taskID)
	if err != nil {
		return fmt.Errorf("%w: %s", err, taskID)
	}

	unlock := g.locks.lock(task.ExecutionID)
	defer unlock()

	task, err = g.tasks.Get(ctx, taskID)
	if err != nil {
		return fmt.Errorf("%w: %s", err, taskID)
	}

	if task.Status != models.TaskStatusPending {
		return fmt.Errorf("%w: %s is %s", ErrTaskAlreadyDecided, taskID, task.Status)
	}

	status := models.TaskStatusRejected
	if approved {
		status = models.TaskStatusApproved
	}

	g.decide(ctx, task, status, comments, userID)

	logger := g.logger.With("execution_id", task.ExecutionID, "step_id", task.StepID, "task_id", task.ID)
	logger.InfoContext(ctx, "Approval task decided", "status", status, "decided_by", userID)

	execution, err := g.executor.Execution(ctx, task.ExecutionID)
	if err != nil {
		return err
	}

	outcome, waitingSince, decided := g.roundOutcome(ctx, execution, task)
	if !decided {
		logger.DebugContext(ctx, "Approval step still waiting for decisions")

		return nil
	}

	if execution.Status != models.ExecutionStatusWaitingApproval {
		logger.WarnContext(ctx, "Execution is no longer waiting for approval", "status", execution.Status)

		return nil
	}

	workflow, err := g.executor.workflow(ctx, execution.WorkflowID)
	if err != nil {
		return err
	}

	step, ok := workflow.StepByID(task.StepID)
	if !ok {
		return fmt.Errorf("%w: %s in workflow %s", ErrStepNotFound, task.StepID, workflow.ID)
	}

	if err := g.executor.resume(ctx, execution, workflow, step, outcome, waitingSince); err != nil {
		otelhelper.SetError(span, err)
		logger.WarnContext(ctx, "Resumed execution failed", "error", err)
	}

	return nil
}

// roundOutcome aggregates the tasks of the approval round that task belongs to. The round
// is the task id list stored in the execution context when the step opened, so decisions
// from earlier visits of the same step are not counted. It reports false while any task of
// the round is pending or when task is not part of the current round.
func (g *ApprovalGate) roundOutcome(
	ctx context.Context,
	execution *models.WorkflowExecution,
	task *models.ApprovalTask,
) (models.ApprovalOutcome, time.Time, bool) {
	outcome := models.ApprovalOutcome{AllApproved: true}
	waitingSince := task.CreatedAt

	round := stringList(execution.Context[approvalTasksKey(task.StepID)])
	if !slices.Contains(round, task.ID) {
		g.logger.WarnContext(ctx, "Decided task is not part of the current approval round",
			"execution_id", execution.ID, "task_id", task.ID)

		return outcome, waitingSince, false
	}

	for _, id := range round {
		sibling := task
		if id != task.ID {
			stored, err := g.tasks.Get(ctx, id)
			if err != nil {
				g.logger.WarnContext(ctx, "Approval task of the round is missing", "task_id", id, "error", err)

				return outcome, waitingSince, false
			}

			sibling = stored
		}

		switch sibling.Status {
		case models.TaskStatusPending:
			return outcome, waitingSince, false
		case models.TaskStatusApproved:
			outcome.Approved = append(outcome.Approved, sibling.AssigneeID)
		default:
			outcome.AllApproved = false
			outcome.Rejected = append(outcome.Rejected, sibling.AssigneeID)
		}

		outcome.TaskIDs = append(outcome.TaskIDs, sibling.ID)

		if sibling.CreatedAt.Before(waitingSince) {
			waitingSince = sibling.CreatedAt
		}
	}

	return outcome, waitingSince, true
}

// Task returns one approval task.
func (g *ApprovalGate) Task(ctx context.Context, id string) (*models.ApprovalTask, error) {
	return g.tasks.Get(ctx, id)
}

// Tasks returns every approval task created for an execution.
func (g *ApprovalGate) Tasks(ctx context.Context, executionID string) ([]*models.ApprovalTask, error) {
	if executionID == "" {
		return nil, fmt.Errorf("%w: execution id is required", ErrInvalidArgument)
	}

	return g.tasks.ByExecution(ctx, executionID), nil
}

// PendingTasks returns the tasks still waiting for a decision from assigneeID.
func (g *ApprovalGate) PendingTasks(ctx context.Context, assigneeID string) ([]*models.ApprovalTask, error) {
	if assigneeID == "" {
		return nil, fmt.Errorf("%w: assignee id is required", ErrInvalidArgument)
	}

	pending := make([]*models.ApprovalTask, 0)

	for _, task := range g.tasks.ByAssignee(ctx, assigneeID) {
		if task.Status == models.TaskStatusPending {
			pending = append(pending, task)
		}
	}

	return pending, nil
}

// cancel voids the pending tasks of a waiting execution and marks it cancelled.
func (g *ApprovalGate) cancel(ctx context.Context, executionID, userID string) error {
	unlock := g.locks.lock(executionID)
	defer unlock()

	execution, err := g.executor.Execution(ctx, executionID)
	if err != nil {
		return err
	}

	if execution.Status != models.ExecutionStatusWaitingApproval {
		return fmt.Errorf("%w: %s is %s", ErrExecutionNotRunning, executionID, execution.Status)
	}

	voided := 0

	for _, task := range g.tasks.ByExecution(ctx, executionID) {
		if task.Status != models.TaskStatusPending {
			continue
		}

		g.decide(ctx, task, models.TaskStatusRejected, "cancelled", userID)
		voided++
	}

	g.executor.finish(ctx, execution, g.executor.workflowName(ctx, execution.WorkflowID), nil, userID, voided)

	return nil
}

func (g *ApprovalGate) decide(ctx context.Context, task *models.ApprovalTask, status models.TaskStatus, comments, userID string) {
	now := g.executor.now()

	task.Status = status
	task.Comments = comments
	task.DecidedBy = userID
	task.DecidedAt = &now
	task.UpdatedAt = now

	g.tasks.Save(ctx, task)
	metrics.IncApprovalDecision(status)

	g.executor.publish(ctx, task.ExecutionID, events.ApprovalTaskDecided{
		BaseEvent:   events.NewBaseEvent(events.ApprovalTaskDecidedEvent, task.WorkflowID),
		ExecutionID: task.ExecutionID,
		TaskID:      task.ID,
		StepID:      task.StepID,
		Status:      status,
		DecidedBy:   userID,
	})
}

// stringList reads a task id list from the execution context. Lists decoded from JSON
// arrive as []any.
func stringList(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		list := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				list = append(list, s)
			}
		}

		return list
	default:
		return nil
	}
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	unique := make([]string, 0, len(values))

	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}

		seen[value] = struct{}{}
		unique = append(unique, value)
	}

	return unique
}

func intValue(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
