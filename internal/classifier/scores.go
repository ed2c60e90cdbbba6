package classifier

import (
	"strings"

	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

var (
	legalRiskKeywords = []string{
		"non-compliance", "penalty", "violate", "risk", "litigation", "lawsuit", "legal", "regulation", "fine",
	}
	complianceKeywords = []string{
		"complex", "difficult", "burden", "cost", "ambiguous", "unclear", "confusing", "challenging",
	}
	businessGrowthKeywords = []string{
		"growth", "innovation", "revenue", "invest", "expand", "opportunity", "competitive", "market",
	}
)

const (
	pointsPerMention = 20
	maxScore         = 100
)

// PredictiveScores scores legal risk, compliance difficulty and business growth
// from keyword occurrence counts.
func PredictiveScores(text string) models.PredictiveScores {
	lower := strings.ToLower(text)

	return models.PredictiveScores{
		LegalRisk:            keywordScore(lower, legalRiskKeywords),
		ComplianceDifficulty: keywordScore(lower, complianceKeywords),
		BusinessGrowth:       keywordScore(lower, businessGrowthKeywords),
	}
}

func keywordScore(lower string, keywords []string) int {
	occurrences := 0
	for _, k := range keywords {
		occurrences += strings.Count(lower, k)
	}

	return min(maxScore, occurrences*pointsPerMention)
}
