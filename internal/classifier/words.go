package classifier

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

// StopWords are common English words dropped before counting or vectorizing terms.
var StopWords = toSet(
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an", "and", "any", "are",
	"as", "at", "be", "because", "been", "before", "being", "below", "between", "both", "but", "by",
	"can", "cannot", "could", "did", "do", "does", "doing", "done", "down", "during", "each", "either",
	"else", "enough", "etc", "even", "ever", "every", "few", "for", "from", "further", "get", "had",
	"has", "have", "having", "he", "her", "here", "hers", "herself", "him", "himself", "his", "how",
	"however", "i", "if", "in", "into", "is", "it", "its", "itself", "just", "last", "least", "less",
	"made", "many", "may", "me", "might", "more", "most", "much", "must", "my", "myself", "neither",
	"no", "nor", "not", "now", "of", "off", "often", "on", "once", "one", "only", "or", "other",
	"others", "otherwise", "our", "ours", "ourselves", "out", "over", "own", "per", "perhaps",
	"please", "put", "rather", "re", "same", "see", "seem", "seems", "several", "she", "should",
	"since", "so", "some", "still", "such", "than", "that", "the", "their", "theirs", "them",
	"themselves", "then", "there", "therefore", "these", "they", "this", "those", "though",
	"through", "thus", "to", "too", "under", "until", "up", "upon", "us", "very", "via", "was", "we",
	"well", "were", "what", "whatever", "when", "where", "whether", "which", "while", "who", "whom",
	"whose", "why", "will", "with", "within", "without", "would", "yet", "you", "your", "yours",
	"yourself", "yourselves",
)

var summaryExcludedTerms = toSet("stakeholder", "should", "comment", "therefore")

const (
	summaryTermMinLength = 6
	summaryTopTerms      = 6
	frequencyMinLength   = 3
)

func toSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}

	return out
}

// Tokenize lowercases text and splits it into runs of letters and digits.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r) && !unicode.Is(unicode.Mc, r)
	})
}

// alphaWords returns lowercase runs of ASCII letters.
func alphaWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r < 'a' || r > 'z'
	})
}

// TopTerms counts words accepted by keep and returns the n most frequent.
// Equal counts keep first-seen order.
func TopTerms(texts []string, n int, split func(string) []string, keep func(string) bool) []models.WordFrequency {
	counts := make(map[string]int)

	var order []string

	for _, text := range texts {
		for _, w := range split(text) {
			if !keep(w) {
				continue
			}

			if _, seen := counts[w]; !seen {
				order = append(order, w)
			}

			counts[w]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > n {
		order = order[:n]
	}

	out := make([]models.WordFrequency, len(order))
	for i, w := range order {
		out[i] = models.WordFrequency{Word: w, Count: counts[w]}
	}

	return out
}

// WordFrequencies returns the most frequent non-stop-words of at least three letters.
func WordFrequencies(texts []string, n int) []models.WordFrequency {
	return TopTerms(texts, n, alphaWords, func(w string) bool {
		if utf8.RuneCountInString(w) < frequencyMinLength {
			return false
		}

		_, stop := StopWords[w]

		return !stop
	})
}

// HeuristicSummary is the digest used when no language model can summarise feedback.
func HeuristicSummary(texts []string) string {
	terms := TopTerms(texts, summaryTopTerms, alphaWords, func(w string) bool {
		if len(w) < summaryTermMinLength {
			return false
		}

		_, excluded := summaryExcludedTerms[w]

		return !excluded
	})

	joined := "N/A"

	if len(terms) > 0 {
		words := make([]string, len(terms))
		for i, t := range terms {
			words[i] = t.Word
		}

		joined = strings.Join(words, ", ")
	}

	return fmt.Sprintf("Heuristic Summary: %d comments analyzed. Frequent terms: %s.", len(texts), joined)
}
