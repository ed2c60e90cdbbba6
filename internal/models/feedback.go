package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sentiment is the three-way polarity assigned to each feedback item.
type Sentiment string

// Sentiment labels.
const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// Sentiments lists all labels in display order.
var Sentiments = []Sentiment{SentimentPositive, SentimentNegative, SentimentNeutral}

// IsValid reports whether s is a known label.
func (s Sentiment) IsValid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	default:
		return false
	}
}

// ParseSentiment converts a string to a Sentiment.
func ParseSentiment(s string) (Sentiment, error) {
	sentiment := Sentiment(s)
	if !sentiment.IsValid() {
		return "", fmt.Errorf("invalid sentiment: %s", s)
	}

	return sentiment, nil
}

// Language is the detected or declared language of a feedback text.
type Language string

// Supported languages.
const (
	LanguageEnglish Language = "English"
	LanguageHindi   Language = "Hindi"
)

// IsValid reports whether l is a supported language.
func (l Language) IsValid() bool {
	return l == LanguageEnglish || l == LanguageHindi
}

// Feedback is a scored citizen comment.
type Feedback struct {
	ID                        uuid.UUID  `json:"id"`
	Text                      string     `json:"text"`
	Sentiment                 Sentiment  `json:"sentiment"`
	Language                  Language   `json:"language"`
	Nuances                   []string   `json:"nuances"`
	IsSpam                    bool       `json:"is_spam"`
	LegalRiskScore            int        `json:"legal_risk_score"`
	ComplianceDifficultyScore int        `json:"compliance_difficulty_score"`
	BusinessGrowthScore       int        `json:"business_growth_score"`
	StakeholderType           *string    `json:"stakeholder_type,omitempty"`
	Sector                    *string    `json:"sector,omitempty"`
	Summary                   *string    `json:"summary,omitempty"`
	EdgeCaseMatch             *string    `json:"edge_case_match,omitempty"`
	EdgeCaseFlags             []string   `json:"edge_case_flags"`
	PolicyID                  *uuid.UUID `json:"policy_id,omitempty"`
	CreatedAt                 time.Time  `json:"created_at"`
	UpdatedAt                 time.Time  `json:"updated_at"`
}

// StakeholderOr returns the stakeholder type or fallback when it is unset or blank.
func (f *Feedback) StakeholderOr(fallback string) string {
	if f.StakeholderType == nil || *f.StakeholderType == "" {
		return fallback
	}

	return *f.StakeholderType
}

// CreateFeedbackRequest is the payload for submitting feedback.
type CreateFeedbackRequest struct {
	Text            string     `json:"text" validate:"required,min=1,max=10000,no_null_bytes"`
	Language        *Language  `json:"language,omitempty" validate:"omitempty,language"`
	StakeholderType *string    `json:"stakeholder_type,omitempty" validate:"omitempty,max=255,no_null_bytes"`
	Sector          *string    `json:"sector,omitempty" validate:"omitempty,max=255,no_null_bytes"`
	PolicyID        *uuid.UUID `json:"policy_id,omitempty"`
}

// ListFeedbackFilters holds query filters for listing feedback.
type ListFeedbackFilters struct {
	Sentiment       *Sentiment `form:"sentiment" validate:"omitempty,sentiment"`
	Language        *Language  `form:"language" validate:"omitempty,language"`
	IsSpam          *bool      `form:"is_spam"`
	StakeholderType *string    `form:"stakeholder_type" validate:"omitempty,no_null_bytes"`
	PolicyID        *uuid.UUID `form:"policy_id"`
	Search          *string    `form:"search" validate:"omitempty,max=500,no_null_bytes"`
	Since           *time.Time `form:"since"`
	Until           *time.Time `form:"until"`
	Limit           int        `form:"limit" validate:"omitempty,min=1,max=1000"`
	Offset          int        `form:"offset" validate:"omitempty,min=0,max=2147483647"`
	Page            int        `form:"page" validate:"omitempty,min=1"`
}

// Pagination describes the window returned by a list call.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPagination derives page numbers from an offset window.
func NewPagination(total int64, limit, offset int) Pagination {
	if limit <= 0 {
		limit = 1
	}

	page := offset/limit + 1
	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// ListFeedbackResponse is a page of feedback.
type ListFeedbackResponse struct {
	Data       []Feedback `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// FeedbackQuery selects feedback for documents and filtered summaries, newest first. Empty
// slices and nil bounds do not filter.
type FeedbackQuery struct {
	Sentiments       []Sentiment
	Language         *Language
	StakeholderTypes []string
	Since            *time.Time
	Until            *time.Time
	PolicyID         *uuid.UUID
	Limit            int
}

// TextQuery selects raw texts for corpus statistics, newest first.
type TextQuery struct {
	Language    *Language
	ExcludeSpam bool
	Limit       int
}
