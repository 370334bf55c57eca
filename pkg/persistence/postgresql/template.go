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

// TemplateRepository handles document template database operations.
type TemplateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTemplateRepository creates a new document template repository.
func NewTemplateRepository(db *sql.DB, logger *slog.Logger) *TemplateRepository {
	return &TemplateRepository{db: db, logger: logger}
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*models.DocumentTemplate, error) {
	return queryOne[models.DocumentTemplate](ctx, r.db, persistence.ErrTemplateNotFound,
		"SELECT data FROM document_templates WHERE id = $1", id)
}

func (r *TemplateRepository) Save(ctx context.Context, template *models.DocumentTemplate) error {
	now := time.Now().UTC()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}

	template.UpdatedAt = now

	data, err := json.Marshal(template)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}

	query := `
		INSERT INTO document_templates (id, name, category, usage_count, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			usage_count = EXCLUDED.usage_count,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		template.ID, template.Name, template.Category, template.UsageCount, data, template.CreatedAt, template.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}

	return nil
}
