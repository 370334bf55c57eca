package file

import (
	"context"

	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/persistence"
)

// RuleRepository handles document rule file operations.
type RuleRepository struct {
	records *recordDir[models.DocumentProcessingRule]
}

// NewRuleRepository creates a new document rule repository.
func NewRuleRepository(root string) *RuleRepository {
	return &RuleRepository{
		records: newRecordDir[models.DocumentProcessingRule](root, "document_rules", persistence.ErrRuleNotFound),
	}
}

func (rr *RuleRepository) GetAll(_ context.Context) ([]*models.DocumentProcessingRule, error) {
	return rr.records.all()
}

func (rr *RuleRepository) GetByID(_ context.Context, id string) (*models.DocumentProcessingRule, error) {
	return rr.records.get(id)
}

func (rr *RuleRepository) Save(_ context.Context, rule *models.DocumentProcessingRule) error {
	return rr.records.save(rule.ID, rule)
}

func (rr *RuleRepository) Delete(_ context.Context, id string) error {
	return rr.records.delete(id)
}
