package classifier

import (
	"strings"

	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

// Nuance tags.
const (
	NuanceSarcasm            = "Sarcasm"
	NuanceMixedSentiment     = "Mixed Sentiment"
	NuancePoliteDisagreement = "Polite Disagreement"
	NuanceShortAmbiguous     = "Short/Ambiguous"
)

var (
	sarcasmEnglish = []string{
		"yeah right", "sure", "as if", "great, another", "just what we needed",
		"oh wonderful", "obviously", "thanks a lot", "what a relief",
	}
	sarcasmHindi = []string{"बिल्कुल सही", "वाह", "बहुत बढ़िया", "क्या बात है", "मज़ाक", "क्या फायदा"}
	politeHedges = []string{"respectfully", "with due respect", "may not", "might not", "सादर", "आदरपूर्वक"}
)

const shortTextWords = 5

// DetectNuance returns every nuance tag that applies to text, in a fixed order.
// Hindi text is checked against the Hindi sarcasm markers only.
func DetectNuance(text string, language models.Language) []string {
	lower := strings.ToLower(text)
	tags := make([]string, 0, 4)

	sarcastic := containsAny(lower, sarcasmEnglish)
	if language == models.LanguageHindi {
		sarcastic = containsAny(text, sarcasmHindi)
	}

	if sarcastic {
		tags = append(tags, NuanceSarcasm)
	}

	if (strings.Contains(lower, "but") && (strings.Contains(lower, "good") || strings.Contains(lower, "improve"))) ||
		(strings.Contains(text, "लेकिन") && strings.Contains(text, "अच्छा")) {
		tags = append(tags, NuanceMixedSentiment)
	}

	if containsAny(lower, politeHedges) {
		tags = append(tags, NuancePoliteDisagreement)
	}

	if len(strings.Fields(text)) < shortTextWords {
		tags = append(tags, NuanceShortAmbiguous)
	}

	return tags
}
