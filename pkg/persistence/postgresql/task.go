package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/persistence"
)

// TaskRepository handles approval task database operations.
type TaskRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTaskRepository creates a new approval task repository.
func NewTaskRepository(db *sql.DB, logger *slog.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.ApprovalTask, error) {
	return queryOne[models.ApprovalTask](ctx, r.db, persistence.ErrTaskNotFound,
		"SELECT data FROM workflow_tasks WHERE id = $1", id)
}

func (r *TaskRepository) GetByExecution(ctx context.Context, executionID string) ([]*models.ApprovalTask, error) {
	return queryMany[models.ApprovalTask](ctx, r.db, r.logger,
		"SELECT data FROM workflow_tasks WHERE execution_id = $1 ORDER BY created_at ASC", executionID)
}

func (r *TaskRepository) GetByAssignee(ctx context.Context, assigneeID string) ([]*models.ApprovalTask, error) {
	return queryMany[models.ApprovalTask](ctx, r.db, r.logger,
		"SELECT data FROM workflow_tasks WHERE assignee_id = $1 ORDER BY created_at ASC", assigneeID)
}

func (r *TaskRepository) Save(ctx context.Context, task *models.ApprovalTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	query := `
		INSERT INTO workflow_tasks (id, execution_id, step_id, assignee_id, status, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		task.ID,
		task.ExecutionID,
		task.StepID,
		task.AssigneeID,
		string(task.Status),
		data,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	return nil
}
