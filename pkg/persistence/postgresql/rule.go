package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/persistence"
)

// RuleRepository handles document rule database operations.
type RuleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRuleRepository creates a new document rule repository.
func NewRuleRepository(db *sql.DB, logger *slog.Logger) *RuleRepository {
	return &RuleRepository{db: db, logger: logger}
}

// GetAll returns every rule, highest priority first.
func (r *RuleRepository) GetAll(ctx context.Context) ([]*models.DocumentProcessingRule, error) {
	return queryMany[models.DocumentProcessingRule](ctx, r.db, r.logger,
		"SELECT data FROM document_rules ORDER BY priority DESC, created_at ASC")
}

func (r *RuleRepository) GetByID(ctx context.Context, id string) (*models.DocumentProcessingRule, error) {
	return queryOne[models.DocumentProcessingRule](ctx, r.db, persistence.ErrRuleNotFound,
		"SELECT data FROM document_rules WHERE id = $1", id)
}

func (r *RuleRepository) Save(ctx context.Context, rule *models.DocumentProcessingRule) error {
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}

	if rule.UpdatedAt.IsZero() {
		rule.UpdatedAt = now
	}

	data, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("failed to marshal rule: %w", err)
	}

	query := `
		INSERT INTO document_rules (id, name, priority, enabled, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			priority = EXCLUDED.priority,
			enabled = EXCLUDED.enabled,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		rule.ID, rule.Name, rule.Priority, rule.Enabled, data, rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}

	return nil
}

func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM document_rules WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	return nil
}
