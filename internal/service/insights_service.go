package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/RonitKhanna333/sih-final-2/internal/apperrors"
	"github.com/RonitKhanna333/sih-final-2/internal/classifier"
	"github.com/RonitKhanna333/sih-final-2/internal/llm"
	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

const (
	analyticsTextLimit     = 10000
	wordFrequencyTextLimit = 5000
	defaultWordLimit       = 50
	maxWordLimit           = 200
	summaryFeedbackLimit   = 60
	filteredSummaryLimit   = 100
	summaryCommentMaxLen   = 280
	summaryMaxTokens       = 420
	noFeedbackSummary      = "No feedback available to summarize."
	summaryPromptPreamble  = "You are an expert policy analyst. Summarize recurring thematic clusters (bullet list), " +
		"approximate sentiment distribution (percentages), and provide exactly three concise " +
		"actionable recommendations prefixed with 'RECOMMENDATION:'. Use neutral tone.\n"
)

// InsightsRepository defines the aggregate reads behind the analytics endpoints.
type InsightsRepository interface {
	Stats(ctx context.Context) (*models.FeedbackStats, error)
	KPIs(ctx context.Context) (*models.KPIStats, error)
	Texts(ctx context.Context, q models.TextQuery) ([]string, error)
	FindRecent(ctx context.Context, limit int) ([]models.Feedback, error)
	Find(ctx context.Context, q models.FeedbackQuery) ([]models.Feedback, error)
}

// InsightsService computes analytics, KPIs, word frequencies and summaries.
type InsightsService struct {
	repo      InsightsRepository
	completer llm.Completer
	now       func() time.Time
}

// NewInsightsService creates an InsightsService. completer may be nil, in which
// case summaries are always heuristic.
func NewInsightsService(repo InsightsRepository, completer llm.Completer) *InsightsService {
	return &InsightsService{repo: repo, completer: completer, now: time.Now}
}

// Analytics returns the sentiment distribution, concern patterns and score averages.
func (s *InsightsService) Analytics(ctx context.Context) (*models.Analytics, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("feedback stats: %w", err)
	}

	texts, err := s.repo.Texts(ctx, models.TextQuery{Limit: analyticsTextLimit})
	if err != nil {
		return nil, fmt.Errorf("feedback texts: %w", err)
	}

	out := &models.Analytics{FeedbackStats: *stats, ConcernPatterns: classifier.ConcernPatterns(texts)}
	out.AverageLegalRisk = classifier.Round(stats.AverageLegalRisk, 2)
	out.AverageComplianceDifficulty = classifier.Round(stats.AverageComplianceDifficulty, 2)
	out.AverageBusinessGrowth = classifier.Round(stats.AverageBusinessGrowth, 2)

	if out.SentimentDistribution == nil {
		out.SentimentDistribution = make(map[models.Sentiment]int64, len(models.Sentiments))
	}

	for _, sentiment := range models.Sentiments {
		if _, ok := out.SentimentDistribution[sentiment]; !ok {
			out.SentimentDistribution[sentiment] = 0
		}
	}

	return out, nil
}

// KPIs returns headline counters. The daily average spans from the first
// submission to today inclusive.
func (s *InsightsService) KPIs(ctx context.Context) (*models.KPIs, error) {
	raw, err := s.repo.KPIs(ctx)
	if err != nil {
		return nil, fmt.Errorf("feedback kpis: %w", err)
	}

	avg := 0.0

	if raw.Total > 0 && raw.FirstSubmission != nil {
		days := int(s.now().Sub(*raw.FirstSubmission).Hours() / 24)
		days = max(days, 0)
		avg = classifier.Round(float64(raw.Total)/float64(days+1), 2)
	}

	return &models.KPIs{
		TotalSubmissions:         raw.Total,
		AverageSubmissionsPerDay: avg,
		PositiveCount:            raw.Positive,
		NegativeCount:            raw.Negative,
		NeutralCount:             raw.Neutral,
		TotalLanguages:           raw.Languages,
		TotalStakeholderTypes:    raw.StakeholderTypes,
	}, nil
}

// WordFrequencies returns the top terms of English, non-spam feedback.
func (s *InsightsService) WordFrequencies(ctx context.Context, limit int) ([]models.WordFrequency, error) {
	if limit <= 0 {
		limit = defaultWordLimit
	}

	limit = min(limit, maxWordLimit)
	english := models.LanguageEnglish

	texts, err := s.repo.Texts(ctx, models.TextQuery{Language: &english, ExcludeSpam: true, Limit: wordFrequencyTextLimit})
	if err != nil {
		return nil, fmt.Errorf("feedback texts: %w", err)
	}

	out := classifier.WordFrequencies(texts, limit)
	if out == nil {
		out = []models.WordFrequency{}
	}

	return out, nil
}

// Summarize digests the most recent feedback. Without a usable completion it
// returns the heuristic summary marked degraded.
func (s *InsightsService) Summarize(ctx context.Context) (*models.FeedbackSummary, error) {
	recent, err := s.repo.FindRecent(ctx, summaryFeedbackLimit)
	if err != nil {
		return nil, fmt.Errorf("recent feedback: %w", err)
	}

	if len(recent) == 0 {
		return &models.FeedbackSummary{Summary: noFeedbackSummary}, nil
	}

	return s.summarize(ctx, recent), nil
}

// SummarizeFiltered digests the newest feedback matching the request filters
// (100 items unless a limit is given). No match is a not-found error.
func (s *InsightsService) SummarizeFiltered(ctx context.Context, req *models.FilteredSummaryRequest) (*models.FilteredSummary, error) {
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, apperrors.NewValidationError("end_date", "end_date must not be before start_date")
	}

	q := models.FeedbackQuery{
		Language: req.Language,
		Since:    req.StartDate,
		Until:    req.EndDate,
		Limit:    req.Limit,
	}

	if q.Limit <= 0 {
		q.Limit = filteredSummaryLimit
	}

	if req.Sentiment != nil {
		q.Sentiments = []models.Sentiment{*req.Sentiment}
	}

	items, err := s.repo.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("filtered feedback: %w", err)
	}

	if len(items) == 0 {
		return nil, apperrors.NewNotFoundError("feedback", "No feedback found matching the filters")
	}

	return &models.FilteredSummary{
		FeedbackSummary: *s.summarize(ctx, items),
		Filters: models.SummaryFilters{
			Sentiment: req.Sentiment,
			Language:  req.Language,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
		},
		GeneratedAt: s.now().UTC(),
	}, nil
}

// summarize asks the completer for a digest of items and falls back to the
// heuristic summary, marked degraded.
func (s *InsightsService) summarize(ctx context.Context, items []models.Feedback) *models.FeedbackSummary {
	texts := make([]string, len(items))
	for i := range items {
		texts[i] = items[i].Text
	}

	if s.completer != nil {
		out, err := s.completer.Complete(ctx, summaryPrompt(texts), summaryMaxTokens)
		if err == nil {
			return &models.FeedbackSummary{Summary: out.Text, FeedbackCount: len(items), Model: out.Model}
		}

		slog.WarnContext(ctx, "AI summary unavailable, using heuristic summary", "error", err)
	}

	return &models.FeedbackSummary{
		Summary:       classifier.HeuristicSummary(texts),
		FeedbackCount: len(items),
		Degraded:      true,
	}
}

func summaryPrompt(texts []string) string {
	var b strings.Builder

	b.WriteString(summaryPromptPreamble)

	for _, t := range texts {
		line := strings.ReplaceAll(strings.TrimSpace(t), "\n", " ")
		if len([]rune(line)) > summaryCommentMaxLen {
			line = classifier.Truncate(line, summaryCommentMaxLen-3) + "..."
		}

		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}
