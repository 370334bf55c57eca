// Package trigger starts scheduled and event-driven workflows.
package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/juris/pkg/models"
	"github.com/robfig/cron/v3"
)

const (
	// SchedulerInitiator is recorded as the initiator of cron-started executions.
	SchedulerInitiator = "system:scheduler"

	// EventInitiator is recorded as the initiator of event-started executions.
	EventInitiator = "system:event"
)

// WorkflowLister returns the enabled workflows for a trigger type.
type WorkflowLister interface {
	ListByTrigger(ctx context.Context, triggerType models.TriggerType) ([]*models.WorkflowDefinition, error)
}

// Executor starts a workflow execution.
type Executor interface {
	Execute(ctx context.Context, workflowID string, wctx map[string]any, initiatorID string) (*models.WorkflowExecution, error)
}

type scheduledEntry struct {
	id   cron.EntryID
	expr string
}

// Scheduler runs scheduled workflows on their cron expressions.
type Scheduler struct {
	logger    *slog.Logger
	workflows WorkflowLister
	executor  Executor
	cron      *cron.Cron

	mu      sync.Mutex
	ctx     context.Context
	entries map[string]scheduledEntry
}

func NewScheduler(logger *slog.Logger, workflows WorkflowLister, executor Executor) *Scheduler {
	logger = logger.With("module", "scheduler")
	cronLogger := cronLogger{logger: logger}

	return &Scheduler{
		logger:    logger,
		workflows: workflows,
		executor:  executor,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cronLogger),
			cron.Recover(cronLogger),
		)),
		ctx:     context.Background(),
		entries: make(map[string]scheduledEntry),
	}
}

// Start loads the scheduled workflows and starts the cron runner. Jobs run with ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	if err := s.Reload(ctx); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Scheduler started", "workflows", len(s.Scheduled()))

	return nil
}

// Reload syncs the cron entries with the stored scheduled workflows. New workflows are added,
// removed or disabled ones are dropped and a changed cron expression is rescheduled.
func (s *Scheduler) Reload(ctx context.Context) error {
	workflows, err := s.workflows.ListByTrigger(ctx, models.TriggerTypeScheduled)
	if err != nil {
		return fmt.Errorf("failed to list scheduled workflows: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(workflows))

	for _, workflow := range workflows {
		if workflow.Trigger == nil {
			continue
		}

		seen[workflow.ID] = true

		current, ok := s.entries[workflow.ID]
		if ok && current.expr == workflow.Trigger.Cron {
			continue
		}

		if ok {
			s.cron.Remove(current.id)
			delete(s.entries, workflow.ID)
		}

		schedule, err := models.ParseCron(workflow.Trigger.Cron)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping workflow with invalid cron expression",
				"workflow_id", workflow.ID, "cron", workflow.Trigger.Cron, "error", err)

			continue
		}

		id := s.cron.Schedule(schedule, s.job(workflow.ID))
		s.entries[workflow.ID] = scheduledEntry{id: id, expr: workflow.Trigger.Cron}

		s.logger.InfoContext(ctx, "Scheduled workflow", "workflow_id", workflow.ID, "cron", workflow.Trigger.Cron)
	}

	for workflowID, entry := range s.entries {
		if !seen[workflowID] {
			s.cron.Remove(entry.id)
			delete(s.entries, workflowID)
			s.logger.InfoContext(ctx, "Unscheduled workflow", "workflow_id", workflowID)
		}
	}

	return nil
}

// Stop stops the cron runner and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// Scheduled returns the ids of the workflows with a cron entry.
func (s *Scheduler) Scheduled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}

	return ids
}

// Next returns the next activation of a scheduled workflow.
func (s *Scheduler) Next(workflowID string) (time.Time, bool) {
	s.mu.Lock()
	entry, ok := s.entries[workflowID]
	s.mu.Unlock()

	if !ok {
		return time.Time{}, false
	}

	return s.cron.Entry(entry.id).Next, true
}

func (s *Scheduler) job(workflowID string) cron.FuncJob {
	return func() {
		s.run(workflowID)
	}
}

func (s *Scheduler) run(workflowID string) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	wctx := map[string]any{
		"scheduled_at": time.Now().UTC().Format(time.RFC3339),
	}

	execution, err := s.executor.Execute(ctx, workflowID, wctx, SchedulerInitiator)
	if err != nil {
		s.logger.ErrorContext(ctx, "Scheduled execution failed", "workflow_id", workflowID, "error", err)

		return
	}

	s.logger.InfoContext(ctx, "Scheduled execution finished",
		"workflow_id", workflowID, "execution_id", execution.ID, "status", execution.Status)
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
