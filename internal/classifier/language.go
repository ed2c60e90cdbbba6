// Package classifier holds the text classifiers applied to every feedback item:
// language, sentiment, spam, nuance tags, predictive scores and edge-case flags.
// All functions accept any string, including empty and very long ones, and never fail.
package classifier

import (
	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

const (
	devanagariStart = 'ऀ'
	devanagariEnd   = 'ॿ'
)

// DetectLanguage reports Hindi when any rune falls in the Devanagari block.
func DetectLanguage(text string) models.Language {
	for _, r := range text {
		if r >= devanagariStart && r <= devanagariEnd {
			return models.LanguageHindi
		}
	}

	return models.LanguageEnglish
}
