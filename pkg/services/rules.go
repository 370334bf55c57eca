package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/dukex/juris/pkg/models"
	"github.com/dukex/juris/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrRuleNotFound is returned when a document rule is not found.
var ErrRuleNotFound = persistence.ErrRuleNotFound

// Rules is the document rule registry, cached the same way as the workflow registry.
type Rules struct {
	logger   *slog.Logger
	repo     persistence.RuleRepository
	validate *validator.Validate
	now      func() time.Time

	mu    sync.RWMutex
	cache map[string]*models.DocumentProcessingRule
}

func NewRules(logger *slog.Logger, repo persistence.RuleRepository) *Rules {
	return &Rules{
		logger:   logger.With("module", "rule_registry"),
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      func() time.Time { return time.Now().UTC() },
		cache:    make(map[string]*models.DocumentProcessingRule),
	}
}

// List returns every rule, highest priority first.
func (r *Rules) List(ctx context.Context) ([]*models.DocumentProcessingRule, error) {
	stored, err := r.repo.GetAll(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to list rules, serving cache", "error", err)
	}

	r.mu.Lock()
	for _, rule := range stored {
		r.cache[rule.ID] = cloneRule(rule)
	}

	rules := make([]*models.DocumentProcessingRule, 0, len(r.cache))
	for _, rule := range r.cache {
		rules = append(rules, cloneRule(rule))
	}
	r.mu.Unlock()

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority == rules[j].Priority {
			return rules[i].ID < rules[j].ID
		}

		return rules[i].Priority > rules[j].Priority
	})

	return rules, nil
}

func (r *Rules) Get(ctx context.Context, id string) (*models.DocumentProcessingRule, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: rule id is required", ErrInvalidRequest)
	}

	stored, err := r.repo.GetByID(ctx, id)
	if err == nil {
		r.mu.Lock()
		r.cache[id] = cloneRule(stored)
		r.mu.Unlock()

		return stored, nil
	}

	if !errors.Is(err, persistence.ErrRuleNotFound) {
		r.logger.WarnContext(ctx, "Failed to load rule, serving cache", "rule_id", id, "error", err)
	}

	r.mu.RLock()
	cached, ok := r.cache[id]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}

	return cloneRule(cached), nil
}

func (r *Rules) Create(ctx context.Context, rule *models.DocumentProcessingRule) (*models.DocumentProcessingRule, error) {
	if rule == nil {
		return nil, fmt.Errorf("%w: rule cannot be nil", ErrInvalidRequest)
	}

	created := cloneRule(rule)
	if created.ID == "" {
		created.ID = uuid.NewString()
	}

	if err := r.validateRule(created); err != nil {
		return nil, err
	}

	now := r.now()
	created.CreatedAt = now
	created.UpdatedAt = now
	created.LastRunAt = nil

	r.store(ctx, created)

	return cloneRule(created), nil
}

// Update replaces the rule definition, keeping its id, creation time and last run.
func (r *Rules) Update(ctx context.Context, id string, rule *models.DocumentProcessingRule) (*models.DocumentProcessingRule, error) {
	if rule == nil {
		return nil, fmt.Errorf("%w: rule cannot be nil", ErrInvalidRequest)
	}

	existing, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := cloneRule(rule)
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.LastRunAt = existing.LastRunAt

	if err := r.validateRule(updated); err != nil {
		return nil, err
	}

	updated.UpdatedAt = r.now()

	r.store(ctx, updated)

	return cloneRule(updated), nil
}

func (r *Rules) Delete(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.cache, id)
	r.mu.Unlock()

	if err := r.repo.Delete(ctx, id); err != nil {
		r.logger.WarnContext(ctx, "Failed to delete rule from store", "rule_id", id, "error", err)
	}

	return nil
}

// MarkRun stamps the last time the rule was applied.
func (r *Rules) MarkRun(ctx context.Context, id string, at time.Time) error {
	rule, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	rule.LastRunAt = &at

	r.store(ctx, rule)

	return nil
}

func (r *Rules) store(ctx context.Context, rule *models.DocumentProcessingRule) {
	r.mu.Lock()
	r.cache[rule.ID] = cloneRule(rule)
	r.mu.Unlock()

	if err := r.repo.Save(ctx, cloneRule(rule)); err != nil {
		r.logger.WarnContext(ctx, "Failed to persist rule, keeping it in cache", "rule_id", rule.ID, "error", err)
	}
}

func (r *Rules) validateRule(rule *models.DocumentProcessingRule) error {
	problems := structProblems(r.validate.Struct(rule))

	for i, condition := range rule.Conditions {
		if condition.Operator != "" && !condition.Operator.IsValid() {
			problems = append(problems, fmt.Sprintf("condition %d: unsupported operator %q", i, condition.Operator))
		}
	}

	for i, action := range rule.Actions {
		if action.Type != models.RuleActionExtractData {
			continue
		}

		patterns, ok := action.Parameters["patterns"].(map[string]any)
		if !ok {
			continue
		}

		for name, expr := range patterns {
			source, _ := expr.(string)
			if _, err := regexp.Compile(source); err != nil {
				problems = append(problems, fmt.Sprintf("action %d: pattern %s does not compile: %v", i, name, err))
			}
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)

		return NewValidationError("validate_rule", "invalid_rule", problems)
	}

	return nil
}

func cloneRule(rule *models.DocumentProcessingRule) *models.DocumentProcessingRule {
	clone := *rule

	clone.DocumentTypes = append([]string(nil), rule.DocumentTypes...)
	clone.Conditions = append([]models.RuleCondition(nil), rule.Conditions...)
	clone.Actions = append([]models.RuleAction(nil), rule.Actions...)

	if rule.LastRunAt != nil {
		lastRun := *rule.LastRunAt
		clone.LastRunAt = &lastRun
	}

	return &clone
}
