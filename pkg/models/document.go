package models

import "time"

// DocumentTemplate is a stored template whose text carries {PARAM} or [PARAM] placeholders.
type DocumentTemplate struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"        validate:"required"`
	Category   string    `json:"category,omitempty"`
	Content    string    `json:"content"     validate:"required"`
	UsageCount int       `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Correction is a suggested textual fix.
type Correction struct {
	Original   string `json:"original"`
	Suggestion string `json:"suggestion"`
	Reason     string `json:"reason"`
}

// ClauseSuggestion proposes a clause for the reviewed document.
type ClauseSuggestion struct {
	Clause string `json:"clause"`
	Text   string `json:"text"`
}

// RiskArea flags a passage that deserves attention.
type RiskArea struct {
	Keyword  string `json:"keyword"`
	Severity string `json:"severity"`
	Note     string `json:"note"`
}

// AnalysisResult is returned by the document analysis routine.
type AnalysisResult struct {
	ReviewType        string             `json:"review_type"`
	Corrections       []Correction       `json:"corrections"`
	ClauseSuggestions []ClauseSuggestion `json:"clause_suggestions"`
	CompletenessScore int                `json:"completeness_score"`
	RiskAreas         []RiskArea         `json:"risk_areas"`
	MissingClauses    []string           `json:"missing_clauses"`
	AnalyzedAt        time.Time          `json:"analyzed_at"`
}

// DocumentClassification is the output of the keyword classifier.
type DocumentClassification struct {
	DocumentType string   `json:"document_type"`
	Category     string   `json:"category"`
	Confidence   float64  `json:"confidence"`
	Keywords     []string `json:"keywords"`
}
