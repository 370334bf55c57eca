package file

import (
	"context"

	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/persistence"
)

// TemplateRepository handles document template file operations.
type TemplateRepository struct {
	records *recordDir[models.DocumentTemplate]
}

// NewTemplateRepository creates a new document template repository.
func NewTemplateRepository(root string) *TemplateRepository {
	return &TemplateRepository{
		records: newRecordDir[models.DocumentTemplate](root, "document_templates", persistence.ErrTemplateNotFound),
	}
}

func (tr *TemplateRepository) GetByID(_ context.Context, id string) (*models.DocumentTemplate, error) {
	return tr.records.get(id)
}

func (tr *TemplateRepository) Save(_ context.Context, template *models.DocumentTemplate) error {
	return tr.records.save(template.ID, template)
}
