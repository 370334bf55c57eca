package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dukex/juris/pkg/models"
	"github.com/redis/go-redis/v9"
)

// WorkflowRepository stores workflow definitions.
type WorkflowRepository struct {
	records *hashStore[workflowRecord]
}

func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	workflows, err := r.records.all(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	return r.records.get(ctx, id)
}

func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.WorkflowDefinition) error {
	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	if workflow.UpdatedAt.IsZero() {
		workflow.UpdatedAt = now
	}

	return r.records.save(ctx, workflow.ID, workflow)
}

func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	return r.records.delete(ctx, id)
}

// ExecutionRepository stores executions and indexes them by workflow.
type ExecutionRepository struct {
	client  redis.UniversalClient
	records *hashStore[executionRecord]
}

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	return r.records.get(ctx, id)
}

// GetByWorkflow returns the executions of a workflow, newest first.
func (r *ExecutionRepository) GetByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	ids, err := r.client.SMembers(ctx, indexKey("executions", "workflow", workflowID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read execution index: %w", err)
	}

	executions, err := r.records.many(ctx, ids)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(executions, func(i, j int) bool {
		return executions[i].StartedAt.After(executions[j].StartedAt)
	})

	return executions, nil
}

func (r *ExecutionRepository) Save(ctx context.Context, execution *models.WorkflowExecution) error {
	body, err := r.records.encode(execution.ID, execution)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.records.key, execution.ID, body)
		pipe.SAdd(ctx, indexKey("executions", "workflow", execution.WorkflowID), execution.ID)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save execution %s: %w", execution.ID, err)
	}

	return nil
}

// TaskRepository stores approval tasks indexed by execution and assignee.
type TaskRepository struct {
	client  redis.UniversalClient
	records *hashStore[taskRecord]
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.ApprovalTask, error) {
	return r.records.get(ctx, id)
}

func (r *TaskRepository) GetByExecution(ctx context.Context, executionID string) ([]*models.ApprovalTask, error) {
	return r.byIndex(ctx, indexKey("workflow_tasks", "execution", executionID))
}

func (r *TaskRepository) GetByAssignee(ctx context.Context, assigneeID string) ([]*models.ApprovalTask, error) {
	return r.byIndex(ctx, indexKey("workflow_tasks", "assignee", assigneeID))
}

func (r *TaskRepository) Save(ctx context.Context, task *models.ApprovalTask) error {
	body, err := r.records.encode(task.ID, task)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.records.key, task.ID, body)
		pipe.SAdd(ctx, indexKey("workflow_tasks", "execution", task.ExecutionID), task.ID)
		pipe.SAdd(ctx, indexKey("workflow_tasks", "assignee", task.AssigneeID), task.ID)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}

	return nil
}

func (r *TaskRepository) byIndex(ctx context.Context, key string) ([]*models.ApprovalTask, error) {
	ids, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read task index: %w", err)
	}

	tasks, err := r.records.many(ctx, ids)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})

	return tasks, nil
}

// RuleRepository stores document processing rules.
type RuleRepository struct {
	records *hashStore[ruleRecord]
}

func (r *RuleRepository) GetAll(ctx context.Context) ([]*models.DocumentProcessingRule, error) {
	return r.records.all(ctx)
}

func (r *RuleRepository) GetByID(ctx context.Context, id string) (*models.DocumentProcessingRule, error) {
	return r.records.get(ctx, id)
}

func (r *RuleRepository) Save(ctx context.Context, rule *models.DocumentProcessingRule) error {
	return r.records.save(ctx, rule.ID, rule)
}

func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	return r.records.delete(ctx, id)
}

// TemplateRepository stores document templates.
type TemplateRepository struct {
	records *hashStore[templateRecord]
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*models.DocumentTemplate, error) {
	return r.records.get(ctx, id)
}

func (r *TemplateRepository) Save(ctx context.Context, template *models.DocumentTemplate) error {
	return r.records.save(ctx, template.ID, template)
}
