package file

import (
	"context"
	"sort"

	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/persistence"
)

// ExecutionRepository handles workflow execution file operations.
type ExecutionRepository struct {
	records *recordDir[models.WorkflowExecution]
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{
		records: newRecordDir[models.WorkflowExecution](root, "executions", persistence.ErrExecutionNotFound),
	}
}

// GetByID retrieves an execution by its ID.
func (er *ExecutionRepository) GetByID(_ context.Context, id string) (*models.WorkflowExecution, error) {
	return er.records.get(id)
}

// GetByWorkflow returns the executions of a workflow, newest first.
func (er *ExecutionRepository) GetByWorkflow(_ context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	executions, err := er.records.all()
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.WorkflowExecution, 0, len(executions))

	for _, execution := range executions {
		if execution.WorkflowID == workflowID {
			filtered = append(filtered, execution)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].StartedAt.After(filtered[j].StartedAt)
	})

	return filtered, nil
}

// Save writes the execution to disk.
func (er *ExecutionRepository) Save(_ context.Context, execution *models.WorkflowExecution) error {
	return er.records.save(execution.ID, execution)
}
