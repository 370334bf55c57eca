package models

import "time"

// RuleActionType selects what a matching document rule does.
type RuleActionType string

const (
	RuleActionTag         RuleActionType = "tag"
	RuleActionCategorize  RuleActionType = "categorize"
	RuleActionRoute       RuleActionType = "route"
	RuleActionExtractData RuleActionType = "extract_data"
	RuleActionNotify      RuleActionType = "notify"
	RuleActionCustom      RuleActionType = "custom"
)

// ContentField is the rule condition field that targets the raw document text.
const ContentField = "content"

// RuleCondition tests the document text or a metadata field.
type RuleCondition struct {
	Field    string            `json:"field"    validate:"required"`
	Operator ConditionOperator `json:"operator" validate:"required"`
	Value    any               `json:"value"`
}

// RuleAction is applied when every condition of its rule matches.
type RuleAction struct {
	Type       RuleActionType `json:"type"                 validate:"required,oneof=tag categorize route extract_data notify custom"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// DocumentProcessingRule is a prioritized condition/action rule for incoming documents.
type DocumentProcessingRule struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"                  validate:"required"`
	Description   string          `json:"description,omitempty"`
	DocumentTypes []string        `json:"document_types"        validate:"required,min=1"`
	Conditions    []RuleCondition `json:"conditions"            validate:"dive"`
	Actions       []RuleAction    `json:"actions"               validate:"required,min=1,dive"`
	Priority      int             `json:"priority"`
	Enabled       bool            `json:"enabled"`
	CreatedBy     string          `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	LastRunAt     *time.Time      `json:"last_run_at,omitempty"`
}

// AppliesTo reports whether the rule targets the given document type.
func (r *DocumentProcessingRule) AppliesTo(documentType string) bool {
	for _, t := range r.DocumentTypes {
		if t == documentType {
			return true
		}
	}

	return false
}

// ActionResult is the outcome of one rule action.
type ActionResult struct {
	RuleID  string         `json:"rule_id"`
	Type    RuleActionType `json:"type"`
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    any            `json:"data,omitempty"`
}

// RuleProcessingResult summarises one document pass through the rule engine.
type RuleProcessingResult struct {
	AppliedRules []string       `json:"applied_rules"`
	Actions      []ActionResult `json:"actions"`
	Metadata     map[string]any `json:"metadata"`
	Success      bool           `json:"success"`
}
