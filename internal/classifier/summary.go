package classifier

import (
	"strings"
	"unicode/utf8"
)

var summaryIndicators = []string{
	"should", "must", "concern", "recommend", "support", "oppose", "suggest", "propose",
}

const (
	summaryPassThroughLength = 40
	summaryMinSentenceLength = 10
	summaryFallbackLength    = 120
	summaryMaxLength         = 160
	summaryScanSentences     = 3
)

// SimpleSummary extracts the most telling sentence of a comment: the first of the
// opening three sentences that states a position, else the first sentence.
func SimpleSummary(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < summaryPassThroughLength {
		return text
	}

	var sentences []string

	for _, s := range strings.FieldsFunc(text, isSentenceEnd) {
		if s = strings.TrimSpace(s); utf8.RuneCountInString(s) > summaryMinSentenceLength {
			sentences = append(sentences, s)
		}
	}

	if len(sentences) == 0 {
		return TruncateWithEllipsis(text, summaryFallbackLength)
	}

	for _, s := range sentences[:min(summaryScanSentences, len(sentences))] {
		if containsAny(strings.ToLower(s), summaryIndicators) {
			return TruncateWithEllipsis(s, summaryMaxLength)
		}
	}

	return TruncateWithEllipsis(sentences[0], summaryMaxLength)
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}

	if utf8.RuneCountInString(s) <= n {
		return s
	}

	return string([]rune(s)[:n])
}

// TruncateWithEllipsis cuts s to n runes and appends "..." when anything was removed.
func TruncateWithEllipsis(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	return Truncate(s, n) + "..."
}
