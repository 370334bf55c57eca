package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/persistence"
)

// TaskStore keeps approval tasks in the task repository and falls back to memory
// while the repository is failing.
type TaskStore struct {
	repo   persistence.TaskRepository
	logger *slog.Logger

	mu       sync.RWMutex
	fallback map[string]*models.ApprovalTask
}

// NewTaskStore creates a task store. A nil repo keeps every task in memory.
func NewTaskStore(logger *slog.Logger, repo persistence.TaskRepository) *TaskStore {
	return &TaskStore{
		repo:     repo,
		logger:   logger.With("module", "approval_task_store"),
		fallback: make(map[string]*models.ApprovalTask),
	}
}

// Save writes the task to the repository, keeping it in memory if the write fails.
func (s *TaskStore) Save(ctx context.Context, task *models.ApprovalTask) {
	if s.repo != nil {
		err := s.repo.Save(ctx, task)
		if err == nil {
			s.mu.Lock()
			delete(s.fallback, task.ID)
			s.mu.Unlock()

			return
		}

		s.logger.WarnContext(ctx, "Failed to persist approval task, keeping it in memory",
			"task_id", task.ID, "error", err)
	}

	s.mu.Lock()
	s.fallback[task.ID] = task.Clone()
	s.mu.Unlock()
}

// Get returns a copy of the task.
func (s *TaskStore) Get(ctx context.Context, id string) (*models.ApprovalTask, error) {
	s.mu.RLock()
	task, ok := s.fallback[id]
	s.mu.RUnlock()

	if ok {
		return task.Clone(), nil
	}

	if s.repo == nil {
		return nil, ErrTaskNotFound
	}

	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, persistence.ErrTaskNotFound) {
			s.logger.WarnContext(ctx, "Failed to load approval task", "task_id", id, "error", err)
		}

		return nil, ErrTaskNotFound
	}

	return task, nil
}

// ByExecution returns every task of an execution, oldest first.
func (s *TaskStore) ByExecution(ctx context.Context, executionID string) []*models.ApprovalTask {
	return s.query(ctx, "execution_id", executionID, s.repoByExecution, func(task *models.ApprovalTask) bool {
		return task.ExecutionID == executionID
	})
}

// ByAssignee returns every task assigned to a user, oldest first.
func (s *TaskStore) ByAssignee(ctx context.Context, assigneeID string) []*models.ApprovalTask {
	return s.query(ctx, "assignee_id", assigneeID, s.repoByAssignee, func(task *models.ApprovalTask) bool {
		return task.AssigneeID == assigneeID
	})
}

func (s *TaskStore) repoByExecution(ctx context.Context, id string) ([]*models.ApprovalTask, error) {
	return s.repo.GetByExecution(ctx, id)
}

func (s *TaskStore) repoByAssignee(ctx context.Context, id string) ([]*models.ApprovalTask, error) {
	return s.repo.GetByAssignee(ctx, id)
}

func (s *TaskStore) query(
	ctx context.Context,
	field, value string,
	load func(context.Context, string) ([]*models.ApprovalTask, error),
	keep func(*models.ApprovalTask) bool,
) []*models.ApprovalTask {
	byID := make(map[string]*models.ApprovalTask)

	if s.repo != nil {
		stored, err := load(ctx, value)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to query approval tasks", field, value, "error", err)
		}

		for _, task := range stored {
			byID[task.ID] = task
		}
	}

	s.mu.RLock()
	for id, task := range s.fallback {
		if keep(task) {
			byID[id] = task.Clone()
		}
	}
	s.mu.RUnlock()

	tasks := make([]*models.ApprovalTask, 0, len(byID))
	for _, task := range byID {
		tasks = append(tasks, task)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}

		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})

	return tasks
}
