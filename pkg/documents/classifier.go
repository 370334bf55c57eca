package documents

import (
	"strings"

	"github.com/dukex/juris/pkg/models"
)

const (
	DocumentTypeOther = "other"
	CategoryGeneral   = "geral"
)

type documentKind struct {
	documentType string
	category     string
	keywords     []string
}

// kinds are checked in order; the first kind wins a tie.
var kinds = []documentKind{
	{"contract", "contratos", []string{"contrato", "contratante", "contratada", "clausula", "vigencia"}},
	{"petition", "processual", []string{"excelentissimo", "peticao", "requer", "autos", "juizo"}},
	{"power_of_attorney", "procuracoes", []string{"procuracao", "outorgante", "outorgado", "poderes"}},
	{"judgment", "decisoes", []string{"sentenca", "julgo", "condeno", "dispositivo"}},
	{"legal_opinion", "consultivo", []string{"parecer", "consulta", "opinamos"}},
}

// Classify guesses the document type from keyword counts. Confidence is the share of the
// winning kind's keywords found in the text.
func Classify(text string) models.DocumentClassification {
	folded := Fold(text)

	best := models.DocumentClassification{
		DocumentType: DocumentTypeOther,
		Category:     CategoryGeneral,
		Keywords:     []string{},
	}

	for _, kind := range kinds {
		found := make([]string, 0, len(kind.keywords))

		for _, keyword := range kind.keywords {
			if strings.Contains(folded, keyword) {
				found = append(found, keyword)
			}
		}

		if len(found) > len(best.Keywords) {
			best = models.DocumentClassification{
				DocumentType: kind.documentType,
				Category:     kind.category,
				Confidence:   float64(len(found)) / float64(len(kind.keywords)),
				Keywords:     found,
			}
		}
	}

	return best
}
