package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/persistence"
	"github.com/dukex/juris/pkg/registry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

	// ErrExecutionNotFound is returned when an execution is not found.
	ErrExecutionNotFound = persistence.ErrExecutionNotFound
)

// Workflow is the workflow registry and execution log. Writes go to an in-process cache
// first and to persistence second; persistence errors are logged and the cache keeps serving.
type Workflow struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	validate    *validator.Validate
	now         func() time.Time

	mu        sync.RWMutex
	workflows map[string]*models.WorkflowDefinition

	execMu     sync.RWMutex
	executions map[string]*models.WorkflowExecution
}

// NewWorkflow creates a new workflow service. Steps are validated against reg.
func NewWorkflow(logger *slog.Logger, persistence persistence.Persistence, reg *registry.Registry) *Workflow {
	return &Workflow{
		logger:      logger.With("module", "workflow_registry"),
		persistence: persistence,
		registry:    reg,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		now:         func() time.Time { return time.Now().UTC() },
		workflows:   make(map[string]*models.WorkflowDefinition),
		executions:  make(map[string]*models.WorkflowExecution),
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns every workflow ordered by creation time. When the store cannot be read the
// cached definitions are returned.
func (w *Workflow) List(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	stored, err := w.persistence.WorkflowRepository().GetAll(ctx)
	if err != nil {
		w.logger.WarnContext(ctx, "Failed to list workflows, serving cache", "error", err)
	}

	w.mu.Lock()
	for _, workflow := range stored {
		w.workflows[workflow.ID] = workflow.Clone()
	}

	workflows := make([]*models.WorkflowDefinition, 0, len(w.workflows))
	for _, workflow := range w.workflows {
		workflows = append(workflows, workflow.Clone())
	}
	w.mu.Unlock()

	sort.SliceStable(workflows, func(i, j int) bool {
		if workflows[i].CreatedAt.Equal(workflows[j].CreatedAt) {
			return workflows[i].ID < workflows[j].ID
		}

		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

// Get returns a workflow by id, refreshing the cache from the store when it is reachable.
func (w *Workflow) Get(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: workflow id is required", ErrInvalidRequest)
	}

	stored, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err == nil {
		w.mu.Lock()
		w.workflows[id] = stored.Clone()
		w.mu.Unlock()

		return stored, nil
	}

	if !errors.Is(err, persistence.ErrWorkflowNotFound) {
		w.logger.WarnContext(ctx, "Failed to load workflow, serving cache", "workflow_id", id, "error", err)
	}

	w.mu.RLock()
	cached, ok := w.workflows[id]
	w.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}

	return cached.Clone(), nil
}

// Create validates and stores a new workflow. An empty id is generated.
func (w *Workflow) Create(ctx context.Context, workflow *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	if workflow == nil {
		return nil, fmt.Errorf("%w: workflow cannot be nil", ErrInvalidRequest)
	}

	created := workflow.Clone()
	if created.ID == "" {
		created.ID = uuid.NewString()
	}

	if err := w.validateWorkflow(created); err != nil {
		return nil, err
	}

	if _, err := w.Get(ctx, created.ID); err == nil {
		return nil, &ServiceError{Op: "create_workflow", Code: "workflow_exists", Message: "workflow " + created.ID + " already exists", Err: ErrConflict}
	}

	now := w.now()
	created.CreatedAt = now
	created.UpdatedAt = now
	created.LastRunAt = nil

	w.store(ctx, created)

	return created.Clone(), nil
}

// Update merges the patch into the stored workflow and validates the result before saving.
func (w *Workflow) Update(ctx context.Context, id string, patch models.WorkflowPatch) (*models.WorkflowDefinition, error) {
	existing, err := w.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := patch.Apply(existing)
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt

	if err := w.validateWorkflow(updated); err != nil {
		return nil, err
	}

	updated.UpdatedAt = w.now()

	w.store(ctx, updated)

	return updated.Clone(), nil
}

// Delete removes a workflow.
func (w *Workflow) Delete(ctx context.Context, id string) error {
	if _, err := w.Get(ctx, id); err != nil {
		return err
	}

	w.mu.Lock()
	delete(w.workflows, id)
	w.mu.Unlock()

	if err := w.persistence.WorkflowRepository().Delete(ctx, id); err != nil {
		w.logger.WarnContext(ctx, "Failed to delete workflow from store", "workflow_id", id, "error", err)
	}

	return nil
}

// MarkRun records the start time of the latest execution.
func (w *Workflow) MarkRun(ctx context.Context, id string, at time.Time) error {
	workflow, err := w.Get(ctx, id)
	if err != nil {
		return err
	}

	workflow.LastRunAt = &at

	w.store(ctx, workflow)

	return nil
}

// ListByTrigger returns the enabled workflows started by the given trigger type.
func (w *Workflow) ListByTrigger(ctx context.Context, triggerType models.TriggerType) ([]*models.WorkflowDefinition, error) {
	workflows, err := w.List(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.WorkflowDefinition, 0, len(workflows))

	for _, workflow := range workflows {
		if workflow.Enabled && workflow.TriggerType == triggerType {
			filtered = append(filtered, workflow)
		}
	}

	return filtered, nil
}

func (w *Workflow) store(ctx context.Context, workflow *models.WorkflowDefinition) {
	w.mu.Lock()
	w.workflows[workflow.ID] = workflow.Clone()
	w.mu.Unlock()

	if err := w.persistence.WorkflowRepository().Save(ctx, workflow.Clone()); err != nil {
		w.logger.WarnContext(ctx, "Failed to persist workflow, keeping it in cache", "workflow_id", workflow.ID, "error", err)
	}
}
