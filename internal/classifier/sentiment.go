package classifier

import (
	"context"
	"log/slog"
	"strings"

	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

var (
	positiveKeywords = []string{"good", "great", "excellent", "love", "helpful", "fast", "improve", "support"}
	negativeKeywords = []string{"bad", "slow", "error", "issue", "problem", "worst", "hate", "concern"}
)

// StarRater predicts a 1-5 star rating for a text and returns it as a zero-based
// class index (0 = one star).
type StarRater interface {
	Rate(ctx context.Context, text string) (int, error)
}

// SentimentAnalyzer uses a StarRater when one is loaded and the keyword heuristic otherwise.
type SentimentAnalyzer struct {
	rater StarRater
}

// NewSentimentAnalyzer creates an analyzer. rater may be nil.
func NewSentimentAnalyzer(rater StarRater) *SentimentAnalyzer {
	return &SentimentAnalyzer{rater: rater}
}

// ModelLoaded reports whether a rating model is in use.
func (a *SentimentAnalyzer) ModelLoaded() bool {
	return a != nil && a.rater != nil
}

// Analyze returns the sentiment of text. Model failures fall back to the heuristic.
func (a *SentimentAnalyzer) Analyze(ctx context.Context, text string, _ models.Language) models.Sentiment {
	if strings.TrimSpace(text) == "" {
		return models.SentimentNeutral
	}

	if a.ModelLoaded() {
		class, err := a.rater.Rate(ctx, text)
		if err == nil {
			return sentimentFromStars(class)
		}

		slog.WarnContext(ctx, "sentiment model inference failed, using keyword heuristic", "error", err)
	}

	return HeuristicSentiment(text)
}

// sentimentFromStars maps a zero-based star class: 1-2 stars negative, 3 neutral, 4-5 positive.
func sentimentFromStars(class int) models.Sentiment {
	switch {
	case class <= 1:
		return models.SentimentNegative
	case class == 2:
		return models.SentimentNeutral
	default:
		return models.SentimentPositive
	}
}

// HeuristicSentiment counts positive and negative keywords present in text.
// The larger count wins; a tie is Neutral.
func HeuristicSentiment(text string) models.Sentiment {
	lower := strings.ToLower(text)
	pos := countPresent(lower, positiveKeywords)
	neg := countPresent(lower, negativeKeywords)

	switch {
	case pos > neg:
		return models.SentimentPositive
	case neg > pos:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// countPresent counts how many of keywords appear at least once in lower.
func countPresent(lower string, keywords []string) int {
	n := 0

	for _, k := range keywords {
		if strings.Contains(lower, k) {
			n++
		}
	}

	return n
}

// containsAny reports whether lower contains any of the phrases.
func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}

	return false
}
