package models

import "time"

// ConcernPattern counts feedback mentioning any keyword of one concern category.
type ConcernPattern struct {
	Count      int      `json:"count"`
	Percentage float64  `json:"percentage"`
	Keywords   []string `json:"keywords"`
}

// FeedbackStats are aggregate counters computed in the store.
type FeedbackStats struct {
	Total                       int64               `json:"total"`
	SpamCount                   int64               `json:"spam_count"`
	SentimentDistribution       map[Sentiment]int64 `json:"sentiment_distribution"`
	AverageLegalRisk            float64             `json:"average_legal_risk"`
	AverageComplianceDifficulty float64             `json:"average_compliance_difficulty"`
	AverageBusinessGrowth       float64             `json:"average_business_growth"`
}

// Analytics is the response of the analytics endpoint.
type Analytics struct {
	FeedbackStats
	ConcernPatterns map[string]ConcernPattern `json:"concern_patterns"`
}

// KPIStats are the raw counters the KPI block is derived from.
type KPIStats struct {
	Total            int64
	Positive         int64
	Negative         int64
	Neutral          int64
	Languages        int64
	StakeholderTypes int64
	FirstSubmission  *time.Time
}

// KPIs is the response of the KPI endpoint.
type KPIs struct {
	TotalSubmissions         int64   `json:"total_submissions"`
	AverageSubmissionsPerDay float64 `json:"average_submissions_per_day"`
	PositiveCount            int64   `json:"positive_count"`
	NegativeCount            int64   `json:"negative_count"`
	NeutralCount             int64   `json:"neutral_count"`
	TotalLanguages           int64   `json:"total_languages"`
	TotalStakeholderTypes    int64   `json:"total_stakeholder_types"`
}

// WordFrequency is one term and how often it occurs.
type WordFrequency struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// WordFrequencyQuery holds the query parameters of the word frequency endpoint.
type WordFrequencyQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=200"`
}

// FeedbackSummary is the AI (or heuristic) digest of recent feedback.
type FeedbackSummary struct {
	Summary       string `json:"summary"`
	FeedbackCount int    `json:"feedback_count"`
	Model         string `json:"model,omitempty"`
	Degraded      bool   `json:"degraded"`
}

// FilteredSummaryRequest is the body of POST /v1/feedback/summarize-filtered.
// Nil filters do not restrict the selection.
type FilteredSummaryRequest struct {
	Sentiment *Sentiment `json:"sentiment,omitempty" validate:"omitempty,sentiment"`
	Language  *Language  `json:"language,omitempty" validate:"omitempty,language"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Limit     int        `json:"limit,omitempty" validate:"omitempty,min=1,max=1000"`
}

// SummaryFilters echoes the filters a summary was computed over.
type SummaryFilters struct {
	Sentiment *Sentiment `json:"sentiment"`
	Language  *Language  `json:"language"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// FilteredSummary is the digest of the feedback matching a FilteredSummaryRequest.
type FilteredSummary struct {
	FeedbackSummary

	Filters     SummaryFilters `json:"filters"`
	GeneratedAt time.Time      `json:"generated_at"`
}
