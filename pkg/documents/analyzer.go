// Package documents holds the document analysis routine, the keyword classifier and the
// filing path convention used by the review and custom workflow steps.
package documents

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/dukex/juris/pkg/models"
)

var ErrEmptyDocument = errors.New("document text is empty")

const (
	ReviewTypeGeneral  = "general"
	ReviewTypeContract = "contract"
	ReviewTypePetition = "petition"
)

type clause struct {
	name       string
	markers    []string
	suggestion string
}

var requiredClauses = map[string][]clause{
	ReviewTypeContract: {
		{"objeto", []string{"objeto"}, "CLÁUSULA PRIMEIRA - DO OBJETO: O presente contrato tem por objeto ..."},
		{"prazo", []string{"prazo", "vigencia"}, "CLÁUSULA - DO PRAZO: O presente contrato vigorará por ..."},
		{"pagamento", []string{"pagamento", "honorarios", "valor"}, "CLÁUSULA - DO PAGAMENTO: Pelos serviços prestados, o CONTRATANTE pagará ..."},
		{"rescisao", []string{"rescisao", "resilicao"}, "CLÁUSULA - DA RESCISÃO: O presente contrato poderá ser rescindido ..."},
		{"foro", []string{"foro"}, "CLÁUSULA - DO FORO: Fica eleito o foro da comarca de ..."},
	},
	ReviewTypePetition: {
		{"fatos", []string{"dos fatos"}, "DOS FATOS: ..."},
		{"direito", []string{"do direito", "dos fundamentos"}, "DO DIREITO: ..."},
		{"pedidos", []string{"dos pedidos", "requer"}, "DOS PEDIDOS: Diante do exposto, requer ..."},
		{"valor da causa", []string{"valor da causa"}, "Dá-se à causa o valor de R$ ..."},
	},
}

var riskTerms = []models.RiskArea{
	{Keyword: "irrevogavel", Severity: "high", Note: "obrigação irrevogável limita a saída do cliente"},
	{Keyword: "renuncia", Severity: "high", Note: "renúncia de direitos deve ser revisada"},
	{Keyword: "responsabilidade ilimitada", Severity: "high", Note: "responsabilidade sem teto"},
	{Keyword: "multa", Severity: "medium", Note: "verificar proporcionalidade da multa"},
	{Keyword: "exclusividade", Severity: "medium", Note: "cláusula de exclusividade"},
	{Keyword: "indenizacao", Severity: "medium", Note: "conferir limites de indenização"},
	{Keyword: "renovacao automatica", Severity: "low", Note: "renovação automática exige aviso prévio"},
}

var corrections = []struct {
	pattern    *regexp.Regexp
	suggestion string
	reason     string
}{
	{regexp.MustCompile(`(?i)\bapartir\b`), "a partir", "locução separada"},
	{regexp.MustCompile(`(?i)\bconcerteza\b`), "com certeza", "locução separada"},
	{regexp.MustCompile(`(?i)\bderrepente\b`), "de repente", "locução separada"},
	{regexp.MustCompile(`(?i)\bmal entendido\b`), "mal-entendido", "substantivo composto com hífen"},
	{regexp.MustCompile(`(?i)\ba nível de\b`), "em nível de", "construção não recomendada"},
	{regexp.MustCompile(`(?i)\bem anexo segue\b`), "segue anexo", "redundância"},
}

// Analyzer is a rule-based reviewer for Brazilian legal documents.
type Analyzer struct {
	now func() time.Time
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{now: time.Now}
}

// AnalyzeDocument reviews text for the given review type. Unknown review types get the
// general review, which checks wording and risks but no required clauses.
func (a *Analyzer) AnalyzeDocument(_ context.Context, text string, reviewType string) (*models.AnalysisResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	if reviewType == "" {
		reviewType = ReviewTypeGeneral
	}

	folded := Fold(text)
	result := &models.AnalysisResult{
		ReviewType:        reviewType,
		Corrections:       []models.Correction{},
		ClauseSuggestions: []models.ClauseSuggestion{},
		RiskAreas:         []models.RiskArea{},
		MissingClauses:    []string{},
		CompletenessScore: 100,
		AnalyzedAt:        a.now().UTC(),
	}

	for _, correction := range corrections {
		for _, match := range correction.pattern.FindAllString(text, -1) {
			result.Corrections = append(result.Corrections, models.Correction{
				Original:   match,
				Suggestion: correction.suggestion,
				Reason:     correction.reason,
			})
		}
	}

	for _, risk := range riskTerms {
		if strings.Contains(folded, risk.Keyword) {
			result.RiskAreas = append(result.RiskAreas, risk)
		}
	}

	clauses := requiredClauses[reviewType]
	if len(clauses) == 0 {
		return result, nil
	}

	present := 0

	for _, c := range clauses {
		if containsAny(folded, c.markers) {
			present++

			continue
		}

		result.MissingClauses = append(result.MissingClauses, c.name)
		result.ClauseSuggestions = append(result.ClauseSuggestions, models.ClauseSuggestion{
			Clause: c.name,
			Text:   c.suggestion,
		})
	}

	result.CompletenessScore = present * 100 / len(clauses)

	return result, nil
}

func containsAny(text string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}

	return false
}
