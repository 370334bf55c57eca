// Package persistence provides the storage abstraction for workflows, executions,
// approval tasks, document rules and document templates.
package persistence

import (
	"context"

	"github.com/dukex/juris/pkg/models"
)

// Persistence groups the repositories of one storage backend.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionRepository() ExecutionRepository
	TaskRepository() TaskRepository
	RuleRepository() RuleRepository
	TemplateRepository() TemplateRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow definitions (the workflows table).
type WorkflowRepository interface {
	GetAll(ctx context.Context) ([]*models.WorkflowDefinition, error)
	GetByID(ctx context.Context, id string) (*models.WorkflowDefinition, error)
	Save(ctx context.Context, workflow *models.WorkflowDefinition) error
	Delete(ctx context.Context, id string) error
}

// ExecutionRepository stores workflow executions.
type ExecutionRepository interface {
	GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error)
	GetByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error)
	Save(ctx context.Context, execution *models.WorkflowExecution) error
}

// TaskRepository stores approval tasks (the workflow_tasks table).
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*models.ApprovalTask, error)
	GetByExecution(ctx context.Context, executionID string) ([]*models.ApprovalTask, error)
	GetByAssignee(ctx context.Context, assigneeID string) ([]*models.ApprovalTask, error)
	Save(ctx context.Context, task *models.ApprovalTask) error
}

// RuleRepository stores document processing rules.
type RuleRepository interface {
	GetAll(ctx context.Context) ([]*models.DocumentProcessingRule, error)
	GetByID(ctx context.Context, id string) (*models.DocumentProcessingRule, error)
	Save(ctx context.Context, rule *models.DocumentProcessingRule) error
	Delete(ctx context.Context, id string) error
}

// TemplateRepository stores document templates.
type TemplateRepository interface {
	GetByID(ctx context.Context, id string) (*models.DocumentTemplate, error)
	Save(ctx context.Context, template *models.DocumentTemplate) error
}
