package classifier

import "strings"

// Edge-case flags attached to stored feedback for reviewers.
const (
	FlagPotentialSarcasm   = "Potential sarcasm"
	FlagMixedSentiment     = "Mixed sentiment"
	FlagPoliteDisagreement = "Polite disagreement"
	FlagShortAmbiguous     = "Short / ambiguous"
)

var (
	flagPraise     = []string{"great", "wonderful", "amazing"}
	flagRepetition = []string{"another", "again", "more"}
	flagContrast   = []string{"but", "however"}
	flagPoliteness = []string{"with respect", "due respect", "may not", "might not"}
)

const flagShortWords = 3

// EdgeCaseFlags marks texts that are easy to misclassify.
func EdgeCaseFlags(text string) []string {
	lower := strings.ToLower(text)
	flags := make([]string, 0, 4)

	if containsAny(lower, flagPraise) && containsAny(lower, flagRepetition) {
		flags = append(flags, FlagPotentialSarcasm)
	}

	if containsAny(lower, flagContrast) {
		flags = append(flags, FlagMixedSentiment)
	}

	if containsAny(lower, flagPoliteness) {
		flags = append(flags, FlagPoliteDisagreement)
	}

	if len(strings.Fields(text)) <= flagShortWords {
		flags = append(flags, FlagShortAmbiguous)
	}

	return flags
}
