package file

import (
	"context"
	"sort"
	"time"

	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/persistence"
)

// WorkflowRepository handles workflow-related file operations.
type WorkflowRepository struct {
	records *recordDir[models.WorkflowDefinition]
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{
		records: newRecordDir[models.WorkflowDefinition](root, "workflows", persistence.ErrWorkflowNotFound),
	}
}

// GetAll returns every stored workflow ordered by creation time.
func (wr *WorkflowRepository) GetAll(_ context.Context) ([]*models.WorkflowDefinition, error) {
	workflows, err := wr.records.all()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

// GetByID retrieves a workflow by its ID from the file system.
func (wr *WorkflowRepository) GetByID(_ context.Context, workflowID string) (*models.WorkflowDefinition, error) {
	return wr.records.get(workflowID)
}

// Save saves a workflow to the file system.
func (wr *WorkflowRepository) Save(_ context.Context, workflow *models.WorkflowDefinition) error {
	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	if workflow.UpdatedAt.IsZero() {
		workflow.UpdatedAt = now
	}

	return wr.records.save(workflow.ID, workflow)
}

// Delete removes a workflow by its ID.
func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	return wr.records.delete(id)
}
