package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RonitKhanna333/sih-final-2/internal/classifier"
	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// FeedbackRepository defines the feedback data access needed for ingestion and listing.
type FeedbackRepository interface {
	Create(ctx context.Context, fb *models.Feedback) (*models.Feedback, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error)
	List(ctx context.Context, filters *models.ListFeedbackFilters) ([]models.Feedback, error)
	Count(ctx context.Context, filters *models.ListFeedbackFilters) (int64, error)
}

// SentimentScorer assigns a sentiment to a text.
type SentimentScorer interface {
	Analyze(ctx context.Context, text string, lang models.Language) models.Sentiment
}

// EdgeCaseMatcher finds the closest known edge case for a text.
type EdgeCaseMatcher interface {
	Match(ctx context.Context, text string) (string, bool)
}

// DebateMapRefresher schedules a debate map rebuild.
type DebateMapRefresher interface {
	EnqueueDebateMapRefresh(ctx context.Context) error
}

// FeedbackService scores and stores feedback.
type FeedbackService struct {
	repo      FeedbackRepository
	sentiment SentimentScorer
	edgeCases EdgeCaseMatcher
	refresher DebateMapRefresher
	now       func() time.Time
}

// FeedbackServiceParams configures FeedbackService. EdgeCases and Refresher may be nil.
type FeedbackServiceParams struct {
	Repo      FeedbackRepository
	Sentiment SentimentScorer
	EdgeCases EdgeCaseMatcher
	Refresher DebateMapRefresher
}

// NewFeedbackService creates a FeedbackService.
func NewFeedbackService(p FeedbackServiceParams) *FeedbackService {
	sentiment := p.Sentiment
	if sentiment == nil {
		sentiment = classifier.NewSentimentAnalyzer(nil)
	}

	return &FeedbackService{
		repo:      p.Repo,
		sentiment: sentiment,
		edgeCases: p.EdgeCases,
		refresher: p.Refresher,
		now:       time.Now,
	}
}

// AnalyzeText runs every classifier on text. A nil language is detected.
// Spam skips the edge-case lookup.
func (s *FeedbackService) AnalyzeText(ctx context.Context, text string, lang *models.Language) *models.TextAnalysis {
	language := classifier.DetectLanguage(text)
	if lang != nil && lang.IsValid() {
		language = *lang
	}

	analysis := &models.TextAnalysis{
		Sentiment:     s.sentiment.Analyze(ctx, text, language),
		Language:      language,
		Nuances:       classifier.DetectNuance(text, language),
		IsSpam:        classifier.DetectSpam(text),
		Scores:        classifier.PredictiveScores(text),
		EdgeCaseFlags: classifier.EdgeCaseFlags(text),
		Summary:       classifier.SimpleSummary(text),
	}

	if !analysis.IsSpam && s.edgeCases != nil {
		if match, ok := s.edgeCases.Match(ctx, text); ok {
			analysis.EdgeCaseMatch = &match
		}
	}

	return analysis
}

// CreateFeedback scores and stores a new feedback item.
func (s *FeedbackService) CreateFeedback(ctx context.Context, req *models.CreateFeedbackRequest) (*models.Feedback, error) {
	text := strings.TrimSpace(req.Text)
	analysis := s.AnalyzeText(ctx, text, req.Language)

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate feedback id: %w", err)
	}

	now := s.now().UTC()
	summary := analysis.Summary

	fb := &models.Feedback{
		ID:                        id,
		Text:                      text,
		Sentiment:                 analysis.Sentiment,
		Language:                  analysis.Language,
		Nuances:                   analysis.Nuances,
		IsSpam:                    analysis.IsSpam,
		LegalRiskScore:            analysis.Scores.LegalRisk,
		ComplianceDifficultyScore: analysis.Scores.ComplianceDifficulty,
		BusinessGrowthScore:       analysis.Scores.BusinessGrowth,
		StakeholderType:           trimmedOrNil(req.StakeholderType),
		Sector:                    trimmedOrNil(req.Sector),
		Summary:                   &summary,
		EdgeCaseMatch:             analysis.EdgeCaseMatch,
		EdgeCaseFlags:             analysis.EdgeCaseFlags,
		PolicyID:                  req.PolicyID,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}

	created, err := s.repo.Create(ctx, fb)
	if err != nil {
		return nil, err
	}

	if s.refresher != nil {
		if err := s.refresher.EnqueueDebateMapRefresh(ctx); err != nil {
			slog.WarnContext(ctx, "Failed to enqueue debate map refresh", "feedback_id", created.ID, "error", err)
		}
	}

	return created, nil
}

// GetFeedback retrieves a single feedback item by ID.
func (s *FeedbackService) GetFeedback(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	return s.repo.GetByID(ctx, id)
}

// ListFeedback returns a page of feedback. Page, when set, overrides Offset.
func (s *FeedbackService) ListFeedback(ctx context.Context, filters *models.ListFeedbackFilters) (*models.ListFeedbackResponse, error) {
	if filters.Limit <= 0 {
		filters.Limit = defaultListLimit
	}

	if filters.Limit > maxListLimit {
		filters.Limit = maxListLimit
	}

	if filters.Page > 0 {
		filters.Offset = (filters.Page - 1) * filters.Limit
	}

	items, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Count(ctx, filters)
	if err != nil {
		return nil, err
	}

	return &models.ListFeedbackResponse{
		Data:       items,
		Pagination: models.NewPagination(total, filters.Limit, filters.Offset),
	}, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}

	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}

	return &v
}
