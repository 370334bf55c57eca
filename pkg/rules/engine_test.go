package rules

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukex/juris/pkg/eventbus"
	"github.com/dukex/juris/pkg/events"
	"github.com/dukex/juris/pkg/mocks"
	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type staticRules struct {
	mu    sync.Mutex
	rules []*models.DocumentProcessingRule
	runs  map[string]time.Time
	err   error
}

func (s *staticRules) List(context.Context) ([]*models.DocumentProcessingRule, error) {
	return s.rules, s.err
}

func (s *staticRules) MarkRun(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runs == nil {
		s.runs = make(map[string]time.Time)
	}

	s.runs[id] = at

	return nil
}

type capturePublisher struct {
	events []eventbus.Event
}

func (c *capturePublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	c.events = append(c.events, event)

	return nil
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, models.Notification) error {
	return errors.New("smtp down")
}

func rule(id string, priority int, actions ...models.RuleAction) *models.DocumentProcessingRule {
	return &models.DocumentProcessingRule{
		ID:            id,
		Name:          "Regra " + id,
		DocumentTypes: []string{"pdf"},
		Actions:       actions,
		Priority:      priority,
		Enabled:       true,
	}
}

func action(t models.RuleActionType, params map[string]any) models.RuleAction {
	return models.RuleAction{Type: t, Parameters: params}
}

func newEngine(source RuleSource, notifier notification.Notifier, publisher eventbus.EventPublisher) *Engine {
	return NewEngine(slog.New(slog.DiscardHandler), source, notifier, publisher)
}

func TestProcess_PriorityOrdering(t *testing.T) {
	low := rule("low", 10, action(models.RuleActionCategorize, map[string]any{"category": "contratos"}))
	high := rule("high", 20, action(models.RuleActionTag, map[string]any{"tags": []any{"urgente"}}))
	source := &staticRules{rules: []*models.DocumentProcessingRule{low, high}}
	publisher := &capturePublisher{}

	result, err := newEngine(source, nil, publisher).Process(t.Context(), "Contrato de locação", "pdf", map[string]any{"tags": []any{"cliente"}})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, []string{"high", "low"}, result.AppliedRules)
	require.Len(t, result.Actions, 2)
	assert.Equal(t, "high", result.Actions[0].RuleID)
	assert.Equal(t, models.RuleActionTag, result.Actions[0].Type)
	assert.Equal(t, "low", result.Actions[1].RuleID)

	assert.Equal(t, []string{"cliente", "urgente"}, result.Metadata["tags"])
	assert.Equal(t, "contratos", result.Metadata["category"])
	assert.Contains(t, source.runs, "high")
	assert.Contains(t, source.runs, "low")

	require.Len(t, publisher.events, 1)
	processed, ok := publisher.events[0].(events.DocumentProcessed)
	require.True(t, ok)
	assert.Equal(t, "pdf", processed.DocumentType)
	assert.Equal(t, 2, processed.Actions)
}

func TestProcess_FiltersDisabledAndOtherTypes(t *testing.T) {
	disabled := rule("off", 50, action(models.RuleActionCategorize, map[string]any{"category": "x"}))
	disabled.Enabled = false

	docx := rule("docx", 40, action(models.RuleActionCategorize, map[string]any{"category": "y"}))
	docx.DocumentTypes = []string{"docx"}

	source := &staticRules{rules: []*models.DocumentProcessingRule{disabled, docx}}

	result, err := newEngine(source, nil, nil).Process(t.Context(), "texto", "pdf", nil)
	require.NoError(t, err)
	assert.Empty(t, result.AppliedRules)
	assert.Empty(t, result.Actions)
	assert.NotContains(t, result.Metadata, "category")
}

func TestProcess_ConditionsAreConjunctive(t *testing.T) {
	r := rule("contrato-sp", 1, action(models.RuleActionCategorize, map[string]any{"category": "contratos-sp"}))
	r.Conditions = []models.RuleCondition{
		{Field: models.ContentField, Operator: models.OperatorContains, Value: "CONTRATO"},
		{Field: "client.state", Operator: models.OperatorEquals, Value: "SP"},
	}

	source := &staticRules{rules: []*models.DocumentProcessingRule{r}}
	engine := newEngine(source, nil, nil)

	result, err := engine.Process(t.Context(), "Este contrato é firmado...", "pdf", map[string]any{
		"client": map[string]any{"state": "SP"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"contrato-sp"}, result.AppliedRules)

	result, err = engine.Process(t.Context(), "Este contrato é firmado...", "pdf", map[string]any{
		"client": map[string]any{"state": "RJ"},
	})
	require.NoError(t, err)
	assert.Empty(t, result.AppliedRules)

	result, err = engine.Process(t.Context(), "Petição inicial", "pdf", map[string]any{
		"client": map[string]any{"state": "SP"},
	})
	require.NoError(t, err)
	assert.Empty(t, result.AppliedRules)
}

func TestProcess_MetadataContainsIgnoresCase(t *testing.T) {
	r := rule("r", 1, action(models.RuleActionRoute, map[string]any{"destination": "contencioso"}))
	r.Conditions = []models.RuleCondition{{Field: "subject", Operator: models.OperatorContains, Value: "recurso"}}

	result, err := newEngine(&staticRules{rules: []*models.DocumentProcessingRule{r}}, nil, nil).
		Process(t.Context(), "", "pdf", map[string]any{"subject": "RECURSO de apelação", "pages": 12})
	require.NoError(t, err)

	require.Len(t, result.Actions, 1)
	assert.True(t, result.Actions[0].Success)
	assert.Equal(t, "contencioso", result.Actions[0].Data)
}

func TestProcess_ExtractDataAndNotify(t *testing.T) {
	recorder := &notification.Recorder{}

	r := rule("extract", 5,
		action(models.RuleActionExtractData, map[string]any{
			"patterns": []any{
				map[string]any{"name": "processo", "pattern": `(\d{7}-\d{2}\.\d{4}\.\d\.\d{2}\.\d{4})`},
				map[string]any{"name": "valor", "pattern": `R\$\s?\d[\d.]*,\d{2}`},
				map[string]any{"name": "cpf", "pattern": `\d{3}\.\d{3}\.\d{3}-\d{2}`},
			},
		}),
		action(models.RuleActionNotify, map[string]any{
			"recipients":           []any{"ana", "{{owner}}"},
			"title":                "Novo documento de {{owner}}",
			"includeExtractedData": true,
		}),
	)

	text := "Processo nº 0001234-56.2024.8.26.0100, valor da causa R$ 15.000,00."

	result, err := newEngine(&staticRules{rules: []*models.DocumentProcessingRule{r}}, recorder, nil).
		Process(t.Context(), text, "pdf", map[string]any{"owner": "bruno"})
	require.NoError(t, err)

	extracted, ok := result.Metadata["extracted_data"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "0001234-56.2024.8.26.0100", extracted["processo"])
	assert.Equal(t, "R$ 15.000,00", extracted["valor"])
	assert.NotContains(t, extracted, "cpf")

	notes := recorder.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, "Novo documento de bruno", notes[0].Title)
	assert.Equal(t, []string{"ana", "bruno"}, notes[0].Recipients)
	assert.Equal(t, "0001234-56.2024.8.26.0100", notes[0].Data["extractedData"].(map[string]string)["processo"])
}

func TestProcess_SoftActionFailuresDoNotAbort(t *testing.T) {
	broken := rule("broken", 20,
		action(models.RuleActionTag, nil),
		action(models.RuleActionExtractData, map[string]any{"patterns": map[string]any{"bad": "("}}),
		action(models.RuleActionNotify, map[string]any{"recipients": "ana"}),
		action(models.RuleActionCustom, map[string]any{}),
		action("teleport", nil),
	)
	fine := rule("fine", 10, action(models.RuleActionCustom, map[string]any{"action": "archive"}))

	result, err := newEngine(&staticRules{rules: []*models.DocumentProcessingRule{broken, fine}}, failingNotifier{}, nil).
		Process(t.Context(), "texto", "pdf", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"broken", "fine"}, result.AppliedRules)
	require.Len(t, result.Actions, 6)

	for _, outcome := range result.Actions[:5] {
		assert.False(t, outcome.Success, outcome.Type)
		assert.NotEmpty(t, outcome.Message)
	}

	assert.True(t, result.Actions[5].Success)
	assert.True(t, result.Success)
}

func TestProcess_Errors(t *testing.T) {
	_, err := newEngine(&staticRules{}, nil, nil).Process(t.Context(), "x", "", nil)
	require.ErrorIs(t, err, ErrMissingDocumentType)

	storeErr := errors.New("unreachable")
	_, err = newEngine(&staticRules{err: storeErr}, nil, nil).Process(t.Context(), "x", "pdf", nil)
	require.ErrorIs(t, err, storeErr)
}

func TestProcess_DoesNotMutateCallerMetadata(t *testing.T) {
	r := rule("r", 1, action(models.RuleActionCategorize, map[string]any{"category": "peticoes"}))
	metadata := map[string]any{"origin": "email"}

	result, err := newEngine(&staticRules{rules: []*models.DocumentProcessingRule{r}}, nil, nil).
		Process(t.Context(), "", "pdf", metadata)
	require.NoError(t, err)

	assert.Equal(t, "peticoes", result.Metadata["category"])
	assert.Equal(t, "email", result.Metadata["origin"])
	assert.NotContains(t, metadata, "category")
}

func TestProcess_NotifiesAndPublishesThroughCollaborators(t *testing.T) {
	notifier := &mocks.MockNotifier{}
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.Title == "Documento processado: Regra notify" && len(n.Recipients) == 1 && n.Recipients[0] == "ana"
	})).Return(nil).Once()

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "pdf", mock.AnythingOfType("events.DocumentProcessed")).
		Return(errors.New("broker offline")).Once()

	r := rule("notify", 1, action(models.RuleActionNotify, map[string]any{"recipients": []any{"ana"}}))

	result, err := newEngine(&staticRules{rules: []*models.DocumentProcessingRule{r}}, notifier, bus).
		Process(t.Context(), "Procuração", "pdf", nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.Actions, 1)
	assert.True(t, result.Actions[0].Success)

	notifier.AssertExpectations(t)
	bus.AssertExpectations(t)
}
