package file

import (
	"context"
	"sort"

	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/persistence"
)

// TaskRepository handles approval task file operations.
type TaskRepository struct {
	records *recordDir[models.ApprovalTask]
}

// NewTaskRepository creates a new approval task repository.
func NewTaskRepository(root string) *TaskRepository {
	return &TaskRepository{
		records: newRecordDir[models.ApprovalTask](root, "workflow_tasks", persistence.ErrTaskNotFound),
	}
}

// GetByID retrieves an approval task by its ID.
func (tr *TaskRepository) GetByID(_ context.Context, id string) (*models.ApprovalTask, error) {
	return tr.records.get(id)
}

// GetByExecution returns the tasks created for an execution, oldest first.
func (tr *TaskRepository) GetByExecution(_ context.Context, executionID string) ([]*models.ApprovalTask, error) {
	return tr.filter(func(task *models.ApprovalTask) bool {
		return task.ExecutionID == executionID
	})
}

// GetByAssignee returns the tasks assigned to a user, oldest first.
func (tr *TaskRepository) GetByAssignee(_ context.Context, assigneeID string) ([]*models.ApprovalTask, error) {
	return tr.filter(func(task *models.ApprovalTask) bool {
		return task.AssigneeID == assigneeID
	})
}

// Save writes the task to disk.
func (tr *TaskRepository) Save(_ context.Context, task *models.ApprovalTask) error {
	return tr.records.save(task.ID, task)
}

func (tr *TaskRepository) filter(keep func(*models.ApprovalTask) bool) ([]*models.ApprovalTask, error) {
	tasks, err := tr.records.all()
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.ApprovalTask, 0, len(tasks))

	for _, task := range tasks {
		if keep(task) {
			filtered = append(filtered, task)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	return filtered, nil
}
