// Package redis provides a Redis persistence backend. Records are JSON values in one
// hash per record kind, with secondary sets indexing executions and approval tasks.
package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/juris/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "juris:"

// Persistence implements persistence.Persistence on top of a Redis client.
type Persistence struct {
	client        redis.UniversalClient
	logger        *slog.Logger
	workflowRepo  *WorkflowRepository
	executionRepo *ExecutionRepository
	taskRepo      *TaskRepository
	ruleRepo      *RuleRepository
	templateRepo  *TemplateRepository
}

// NewPersistence connects to the Redis server addressed by a redis:// URL.
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)

	err = client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewPersistenceFromClient(logger, client), nil
}

// NewPersistenceFromClient wraps an existing client.
func NewPersistenceFromClient(logger *slog.Logger, client redis.UniversalClient) *Persistence {
	return &Persistence{
		client:        client,
		logger:        logger,
		workflowRepo:  &WorkflowRepository{records: newHashStore[workflowRecord](client, "workflows", persistence.ErrWorkflowNotFound)},
		executionRepo: &ExecutionRepository{client: client, records: newHashStore[executionRecord](client, "executions", persistence.ErrExecutionNotFound)},
		taskRepo:      &TaskRepository{client: client, records: newHashStore[taskRecord](client, "workflow_tasks", persistence.ErrTaskNotFound)},
		ruleRepo:      &RuleRepository{records: newHashStore[ruleRecord](client, "document_rules", persistence.ErrRuleNotFound)},
		templateRepo:  &TemplateRepository{records: newHashStore[templateRecord](client, "document_templates", persistence.ErrTemplateNotFound)},
	}
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	err := p.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return p.executionRepo
}

func (p *Persistence) TaskRepository() persistence.TaskRepository {
	return p.taskRepo
}

func (p *Persistence) RuleRepository() persistence.RuleRepository {
	return p.ruleRepo
}

func (p *Persistence) TemplateRepository() persistence.TemplateRepository {
	return p.templateRepo
}
