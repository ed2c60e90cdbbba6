package classifier

import (
	"math"
	"strings"

	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

// ConcernCategory is a named group of keywords seen in past consultations.
type ConcernCategory struct {
	Name     string
	Keywords []string
}

// ConcernCategories are checked in this order.
var ConcernCategories = []ConcernCategory{
	{Name: "compliance_cost", Keywords: []string{"expensive", "costly", "burden", "overhead", "financial"}},
	{Name: "implementation_difficulty", Keywords: []string{"complex", "difficult", "unclear", "ambiguous", "confusing"}},
	{Name: "business_impact", Keywords: []string{"revenue", "growth", "competitiveness", "innovation", "market"}},
	{Name: "privacy_concerns", Keywords: []string{"privacy", "data protection", "surveillance", "tracking", "personal data"}},
}

// ConcernPatterns counts, per category, the texts mentioning any of its keywords.
func ConcernPatterns(texts []string) map[string]models.ConcernPattern {
	counts := make([]int, len(ConcernCategories))

	for _, text := range texts {
		lower := strings.ToLower(text)
		for i, c := range ConcernCategories {
			if containsAny(lower, c.Keywords) {
				counts[i]++
			}
		}
	}

	out := make(map[string]models.ConcernPattern, len(ConcernCategories))

	for i, c := range ConcernCategories {
		pct := 0.0
		if len(texts) > 0 {
			pct = Round(100*float64(counts[i])/float64(len(texts)), 1)
		}

		out[c.Name] = models.ConcernPattern{
			Count:      counts[i],
			Percentage: pct,
			Keywords:   c.Keywords,
		}
	}

	return out
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))

	return math.Round(x*scale) / scale
}
