package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/persistence"
)

// SaveExecution records the execution state. Store errors are logged, never returned.
func (w *Workflow) SaveExecution(ctx context.Context, execution *models.WorkflowExecution) error {
	if execution == nil || execution.ID == "" {
		return fmt.Errorf("%w: execution id is required", ErrInvalidRequest)
	}

	w.execMu.Lock()
	w.executions[execution.ID] = execution.Clone()
	w.execMu.Unlock()

	if err := w.persistence.ExecutionRepository().Save(ctx, execution.Clone()); err != nil {
		w.logger.WarnContext(ctx, "Failed to persist execution, keeping it in cache",
			"execution_id", execution.ID, "error", err)
	}

	return nil
}

// Execution returns the latest state of an execution. The cache wins over the store because
// it is written first.
func (w *Workflow) Execution(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	w.execMu.RLock()
	cached, ok := w.executions[id]
	w.execMu.RUnlock()

	if ok {
		return cached.Clone(), nil
	}

	stored, err := w.persistence.ExecutionRepository().GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, persistence.ErrExecutionNotFound) {
			w.logger.WarnContext(ctx, "Failed to load execution", "execution_id", id, "error", err)
		}

		return nil, fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
	}

	return stored, nil
}

// Executions returns the executions of a workflow, newest first.
func (w *Workflow) Executions(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	if workflowID == "" {
		return nil, fmt.Errorf("%w: workflow id is required", ErrInvalidRequest)
	}

	stored, err := w.persistence.ExecutionRepository().GetByWorkflow(ctx, workflowID)
	if err != nil {
		w.logger.WarnContext(ctx, "Failed to list executions, serving cache", "workflow_id", workflowID, "error", err)
	}

	byID := make(map[string]*models.WorkflowExecution, len(stored))
	for _, execution := range stored {
		byID[execution.ID] = execution
	}

	w.execMu.RLock()
	for id, execution := range w.executions {
		if execution.WorkflowID == workflowID {
			byID[id] = execution.Clone()
		}
	}
	w.execMu.RUnlock()

	executions := make([]*models.WorkflowExecution, 0, len(byID))
	for _, execution := range byID {
		executions = append(executions, execution)
	}

	sort.SliceStable(executions, func(i, j int) bool {
		return executions[i].StartedAt.After(executions[j].StartedAt)
	})

	return executions, nil
}
