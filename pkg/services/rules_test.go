package services

import (
	"testing"
	"time"

	"github.com/dukex/juris/pkg/mocks"
	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func contractRule(priority int) *models.DocumentProcessingRule {
	return &models.DocumentProcessingRule{
		Name:          "Contratos recebidos",
		DocumentTypes: []string{"pdf", "docx"},
		Conditions: []models.RuleCondition{
			{Field: models.ContentField, Operator: models.OperatorContains, Value: "contrato"},
		},
		Actions: []models.RuleAction{
			{Type: models.RuleActionCategorize, Parameters: map[string]any{"category": "contratos"}},
		},
		Priority: priority,
		Enabled:  true,
	}
}

func TestRules_CRUDAndPriorityOrder(t *testing.T) {
	rules := NewRules(testLogger(), file.NewPersistence(t.TempDir()).RuleRepository())

	low, err := rules.Create(t.Context(), contractRule(10))
	require.NoError(t, err)

	high, err := rules.Create(t.Context(), contractRule(20))
	require.NoError(t, err)

	list, err := rules.List(t.Context())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, high.ID, list[0].ID)
	assert.Equal(t, low.ID, list[1].ID)

	replacement := contractRule(30)
	replacement.Name = "Contratos prioritários"

	updated, err := rules.Update(t.Context(), low.ID, replacement)
	require.NoError(t, err)
	assert.Equal(t, low.ID, updated.ID)
	assert.Equal(t, 30, updated.Priority)
	assert.Equal(t, low.CreatedAt, updated.CreatedAt)

	at := time.Now().UTC()
	require.NoError(t, rules.MarkRun(t.Context(), low.ID, at))

	fetched, err := rules.Get(t.Context(), low.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.LastRunAt)
	assert.Equal(t, "Contratos prioritários", fetched.Name)

	require.NoError(t, rules.Delete(t.Context(), high.ID))
	_, err = rules.Get(t.Context(), high.ID)
	require.ErrorIs(t, err, ErrRuleNotFound)
}

func TestRules_Validation(t *testing.T) {
	rules := NewRules(testLogger(), file.NewPersistence(t.TempDir()).RuleRepository())

	noActions := contractRule(1)
	noActions.Actions = nil

	_, err := rules.Create(t.Context(), noActions)
	require.ErrorIs(t, err, ErrValidation)

	badPattern := contractRule(1)
	badPattern.Actions = []models.RuleAction{{
		Type:       models.RuleActionExtractData,
		Parameters: map[string]any{"patterns": map[string]any{"cnpj": "[0-9"}},
	}}

	_, err = rules.Create(t.Context(), badPattern)
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "cnpj")

	badOperator := contractRule(1)
	badOperator.Conditions[0].Operator = "matches"

	_, err = rules.Create(t.Context(), badOperator)
	require.ErrorIs(t, err, ErrValidation)

	_, err = rules.Create(t.Context(), nil)
	require.ErrorIs(t, err, ErrInvalidRequest)

	list, err := rules.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRules_StoreOutage(t *testing.T) {
	repo := &mocks.MockRuleRepository{}
	repo.On("Save", mock.Anything, mock.Anything).Return(errUnavailable)
	repo.On("GetAll", mock.Anything).Return(nil, errUnavailable)
	repo.On("GetByID", mock.Anything, mock.Anything).Return(nil, errUnavailable)

	rules := NewRules(testLogger(), repo)

	created, err := rules.Create(t.Context(), contractRule(5))
	require.NoError(t, err)

	list, err := rules.List(t.Context())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	fetched, err := rules.Get(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, fetched.Priority)

	repo.AssertExpectations(t)
}
