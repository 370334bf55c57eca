// Package rules applies document processing rules to incoming documents.
package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"time"

	"github.com/dukex/juris/pkg/eventbus"
	"github.com/dukex/juris/pkg/events"
	"github.com/dukex/juris/pkg/metrics"
	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/notification"
)

var ErrMissingDocumentType = errors.New("document type is required")

// RuleSource lists the configured rules and records when they were applied.
type RuleSource interface {
	List(ctx context.Context) ([]*models.DocumentProcessingRule, error)
	MarkRun(ctx context.Context, id string, at time.Time) error
}

// Engine evaluates every enabled rule for a document type, highest priority first, and runs
// the actions of each rule whose conditions all hold.
type Engine struct {
	logger    *slog.Logger
	rules     RuleSource
	notifier  notification.Notifier
	publisher eventbus.EventPublisher
	now       func() time.Time
}

func NewEngine(
	logger *slog.Logger,
	rules RuleSource,
	notifier notification.Notifier,
	publisher eventbus.EventPublisher,
) *Engine {
	if notifier == nil {
		notifier = notification.Noop{}
	}

	return &Engine{
		logger:    logger.With("module", "rule_engine"),
		rules:     rules,
		notifier:  notifier,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Process runs the matching rules against the document. Action failures are reported in the
// result and never stop the batch. The returned metadata is a copy enriched by the actions.
func (e *Engine) Process(
	ctx context.Context,
	text string,
	documentType string,
	metadata map[string]any,
) (*models.RuleProcessingResult, error) {
	if documentType == "" {
		return nil, ErrMissingDocumentType
	}

	candidates, err := e.rules.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load document rules: %w", err)
	}

	applicable := make([]*models.DocumentProcessingRule, 0, len(candidates))

	for _, rule := range candidates {
		if rule.Enabled && rule.AppliesTo(documentType) {
			applicable = append(applicable, rule)
		}
	}

	sort.SliceStable(applicable, func(i, j int) bool {
		return applicable[i].Priority > applicable[j].Priority
	})

	doc := &document{
		text:      text,
		metadata:  make(map[string]any, len(metadata)),
		extracted: make(map[string]string),
	}
	maps.Copy(doc.metadata, metadata)

	result := &models.RuleProcessingResult{
		AppliedRules: []string{},
		Actions:      []models.ActionResult{},
		Success:      true,
	}

	for _, rule := range applicable {
		if !matches(rule, doc) {
			continue
		}

		logger := e.logger.With("rule_id", rule.ID, "document_type", documentType)
		logger.DebugContext(ctx, "Applying document rule", "priority", rule.Priority)

		for _, action := range rule.Actions {
			outcome := e.apply(ctx, rule, action, doc)
			outcome.RuleID = rule.ID
			outcome.Type = action.Type

			if !outcome.Success {
				logger.WarnContext(ctx, "Rule action failed", "action", action.Type, "message", outcome.Message)
			}

			result.Actions = append(result.Actions, outcome)
		}

		result.AppliedRules = append(result.AppliedRules, rule.ID)

		if err := e.rules.MarkRun(ctx, rule.ID, e.now()); err != nil {
			logger.WarnContext(ctx, "Failed to record rule run", "error", err)
		}
	}

	if len(doc.extracted) > 0 {
		doc.metadata["extracted_data"] = doc.extracted
	}

	result.Metadata = doc.metadata

	metrics.ObserveDocument(documentType, len(result.AppliedRules))
	e.publish(ctx, documentType, result)

	return result, nil
}

func (e *Engine) publish(ctx context.Context, documentType string, result *models.RuleProcessingResult) {
	if e.publisher == nil {
		return
	}

	event := events.DocumentProcessed{
		BaseEvent:    events.NewBaseEvent(events.DocumentProcessedEvent, ""),
		DocumentType: documentType,
		AppliedRules: result.AppliedRules,
		Actions:      len(result.Actions),
		Metadata:     result.Metadata,
	}

	if err := e.publisher.Publish(ctx, documentType, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish document event", "error", err)
	}
}

// matches reports whether every condition of the rule holds. Conditions on the content
// field test the document text, the others test the metadata. String containment ignores case.
func matches(rule *models.DocumentProcessingRule, doc *document) bool {
	for _, condition := range rule.Conditions {
		var (
			value any
			found bool
		)

		if condition.Field == models.ContentField {
			value, found = doc.text, true
		} else {
			value, found = models.ResolvePath(doc.metadata, condition.Field)
		}

		if !models.Compare(condition.Operator, value, found, condition.Value, true) {
			return false
		}
	}

	return true
}
