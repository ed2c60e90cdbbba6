package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AI readiness states.
const (
	AIStatusReady     = "ready"
	AIStatusReadyMock = "ready-mock"
	AIStatusDegraded  = "degraded"
	AIStatusOffline   = "offline"
)

// AIHealth reports which AI features can run right now.
type AIHealth struct {
	Status                  string    `json:"status"`
	LLMAvailable            bool      `json:"llm_available"`
	LLMModel                string    `json:"llm_model,omitempty"`
	EmbeddingModelLoaded    bool      `json:"embedding_model_loaded"`
	EmbeddingBackend        string    `json:"embedding_backend,omitempty"`
	SentimentModelLoaded    bool      `json:"sentiment_model_loaded"`
	FeedbackCount           int64     `json:"feedback_count"`
	PolicyCount             int64     `json:"policy_count"`
	CanSimulate             bool      `json:"can_simulate"`
	CanDebateMapFull        bool      `json:"can_debate_map_full"`
	DebateMapMode           string    `json:"debate_map_mode"`
	DocumentGenerationReady bool      `json:"document_generation_ready"`
	DegradedReasons         []string  `json:"degraded_reasons"`
	MockMode                bool      `json:"mock_mode"`
	Timestamp               time.Time `json:"timestamp"`
}

// SimulationRequest compares an original clause with a proposed change.
type SimulationRequest struct {
	OriginalClause string     `json:"original_clause" validate:"required,min=1,max=20000,no_null_bytes"`
	ModifiedClause string     `json:"modified_clause" validate:"required,min=1,max=20000,no_null_bytes"`
	PolicyID       *uuid.UUID `json:"policy_id,omitempty"`
}

// StakeholderImpact is the predicted reaction of one stakeholder group.
type StakeholderImpact struct {
	StakeholderType    string    `json:"stakeholder_type"`
	CurrentSentiment   Sentiment `json:"current_sentiment"`
	PredictedSentiment Sentiment `json:"predicted_sentiment"`
	ShiftPercentage    int       `json:"shift_percentage"`
	KeyDrivers         []string  `json:"key_drivers"`
	RiskLevel          string    `json:"risk_level"`
	SampleSize         int       `json:"sample_size"`
}

// SimulationResult is the outcome of a policy change simulation.
type SimulationResult struct {
	Summary             string              `json:"summary"`
	IdentifiedChange    string              `json:"identified_change"`
	StakeholderImpacts  []StakeholderImpact `json:"stakeholder_impacts"`
	OverallRisk         string              `json:"overall_risk"`
	EmergingConcerns    []string            `json:"emerging_concerns"`
	ConsensusImpact     string              `json:"consensus_impact"`
	Recommendations     []string            `json:"recommendations"`
	ConfidenceScore     float64             `json:"confidence_score"`
	HistoricalDataCount int                 `json:"historical_data_count"`
	Degraded            bool                `json:"degraded"`
}

// DocumentType is the canonical kind of generated document.
type DocumentType string

// Supported document types.
const (
	DocumentTypeBriefing       DocumentType = "briefing"
	DocumentTypeResponse       DocumentType = "response"
	DocumentTypeRiskAssessment DocumentType = "risk_assessment"
)

// IsValid reports whether t is a supported document type.
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeBriefing, DocumentTypeResponse, DocumentTypeRiskAssessment:
		return true
	default:
		return false
	}
}

// DateRange bounds feedback by creation time. Either end may be open.
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// GenerateDocumentRequest is the raw payload. Older clients send report_type
// instead of document_type; Normalize folds both into Type.
type GenerateDocumentRequest struct {
	Topic             string       `json:"topic" validate:"required,min=1,max=500,no_null_bytes"`
	DocumentType      string       `json:"document_type,omitempty" validate:"omitempty,max=64"`
	ReportType        string       `json:"report_type,omitempty" validate:"omitempty,max=64"`
	SentimentFilter   []Sentiment  `json:"sentiment_filter,omitempty" validate:"omitempty,dive,sentiment"`
	StakeholderFilter []string     `json:"stakeholder_filter,omitempty" validate:"omitempty,dive,max=255"`
	DateRange         *DateRange   `json:"date_range,omitempty"`
	PolicyID          *uuid.UUID   `json:"policy_id,omitempty"`
	Type              DocumentType `json:"-"`
}

// Normalize resolves the document type once: document_type wins over
// report_type, and both empty means a briefing.
func (r *GenerateDocumentRequest) Normalize() {
	raw := strings.TrimSpace(r.DocumentType)
	if raw == "" {
		raw = strings.TrimSpace(r.ReportType)
	}

	if raw == "" {
		raw = string(DocumentTypeBriefing)
	}

	r.Type = DocumentType(strings.ToLower(raw))
	r.Topic = strings.TrimSpace(r.Topic)
}

// DocumentSection is one titled block of a generated document.
type DocumentSection struct {
	Heading   string      `json:"heading"`
	Content   string      `json:"content"`
	Citations []uuid.UUID `json:"citations,omitempty"`
}

// DocumentMetadata describes the feedback a document was built from.
type DocumentMetadata struct {
	TotalFeedbackAnalyzed int                 `json:"total_feedback_analyzed"`
	SentimentDistribution map[Sentiment]int   `json:"sentiment_distribution"`
	StakeholderTypes      []string            `json:"stakeholder_types"`
	DateRange             *DateRange          `json:"date_range,omitempty"`
	Filters               map[string][]string `json:"filters,omitempty"`
	DateGenerated         time.Time           `json:"date_generated"`
}

// Document is a generated briefing, response or risk assessment.
type Document struct {
	Title            string            `json:"title"`
	Type             DocumentType      `json:"type"`
	ExecutiveSummary string            `json:"executive_summary"`
	Sections         []DocumentSection `json:"sections"`
	Metadata         DocumentMetadata  `json:"metadata"`
	GeneratedAt      time.Time         `json:"generated_at"`
	Degraded         bool              `json:"degraded"`
}

// ChatMessage is one turn of an assistant conversation.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required,max=8000,no_null_bytes"`
}

// ChatRequest sends a conversation to the assistant.
type ChatRequest struct {
	Messages       []ChatMessage `json:"messages" validate:"required,min=1,max=50,dive"`
	IncludeContext *bool         `json:"include_context,omitempty"`
	SentimentFocus *Sentiment    `json:"sentiment_focus,omitempty" validate:"omitempty,sentiment"`
	MaxHistory     int           `json:"max_history" validate:"omitempty,min=1,max=50"`
}

// ChatResponse is the assistant's reply.
type ChatResponse struct {
	Reply       string `json:"reply"`
	UsedContext int    `json:"used_context"`
	Model       string `json:"model,omitempty"`
	Degraded    bool   `json:"degraded"`
}
