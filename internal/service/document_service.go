package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RonitKhanna333/sih-final-2/internal/apperrors"
	"github.com/RonitKhanna333/sih-final-2/internal/classifier"
	"github.com/RonitKhanna333/sih-final-2/internal/llm"
	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

const (
	documentCandidateLimit = 200
	documentRelevantLimit  = 50
	documentMinRelevance   = 0.3
	documentDigestItems    = 20
	documentDigestTextLen  = 150
	documentCitationCount  = 10
	documentDefaultGroup   = "General"
	sectionPlaceholder     = "Content unavailable at this time."
)

// FeedbackFinder selects feedback by filter, newest first.
type FeedbackFinder interface {
	Find(ctx context.Context, q models.FeedbackQuery) ([]models.Feedback, error)
}

// RelevanceEmbedder embeds texts and reports whether a real model backs it.
type RelevanceEmbedder interface {
	Embedder
	PrimaryAvailable() bool
}

// DocumentService drafts briefings, public responses and risk assessments from feedback.
type DocumentService struct {
	repo      FeedbackFinder
	embedder  RelevanceEmbedder
	completer llm.Completer
	now       func() time.Time
}

// DocumentServiceParams configures DocumentService. Embedder may be nil, in
// which case the newest items are used without relevance ranking.
type DocumentServiceParams struct {
	Repo      FeedbackFinder
	Embedder  RelevanceEmbedder
	Completer llm.Completer
}

// NewDocumentService creates a DocumentService.
func NewDocumentService(p DocumentServiceParams) *DocumentService {
	return &DocumentService{repo: p.Repo, embedder: p.Embedder, completer: p.Completer, now: time.Now}
}

// sectionPrompt is one section of a document template.
type sectionPrompt struct {
	heading   string
	prompt    string
	maxTokens int
	withCites bool
}

type documentTemplate struct {
	title        string
	summary      string
	summaryLLM   bool
	summaryToken int
	sections     []sectionPrompt
}

func templateFor(t models.DocumentType, topic string, n int, digest string) (documentTemplate, bool) {
	switch t {
	case models.DocumentTypeBriefing:
		return documentTemplate{
			title:        "Policy Briefing: " + topic,
			summary:      fmt.Sprintf("3 sentence executive summary for briefing on %s with %d feedback items.", topic, n),
			summaryLLM:   true,
			summaryToken: 160,
			sections: []sectionPrompt{
				{heading: "Stakeholder Positions", prompt: fmt.Sprintf("3 supporting and 3 opposing arguments (bullets) for %s:\n%s", topic, digest), maxTokens: 260, withCites: true},
				{heading: "Key Concerns Raised", prompt: fmt.Sprintf("Top 5 numbered concerns about %s:\n%s", topic, digest), maxTokens: 220},
				{heading: "Recommendations", prompt: fmt.Sprintf("4 numbered actionable recommendations for %s addressing concerns.", topic), maxTokens: 220},
			},
		}, true
	case models.DocumentTypeResponse:
		return documentTemplate{
			title:   "Public Response: " + topic,
			summary: fmt.Sprintf("Draft response addressing %d public comments on %s.", n, topic),
			sections: []sectionPrompt{
				{heading: "Acknowledgment", prompt: fmt.Sprintf("Opening acknowledgment paragraph for public response on %s.", topic), maxTokens: 120},
				{heading: "Key Themes", prompt: fmt.Sprintf("Key themes (3-4 short paragraphs) for public response about %s:\n%s", topic, digest), maxTokens: 360},
				{heading: "Our Response", prompt: fmt.Sprintf("Paragraph on government response strategy for %s concerns.", topic), maxTokens: 180},
			},
		}, true
	case models.DocumentTypeRiskAssessment:
		return documentTemplate{
			title:   "Risk Assessment: " + topic,
			summary: fmt.Sprintf("Risk assessment based on %d stakeholder inputs regarding %s.", n, topic),
			sections: []sectionPrompt{
				{heading: "Political Risk Analysis", prompt: fmt.Sprintf("Political risks (3-4) with severity for %s:\n%s", topic, digest), maxTokens: 260},
				{heading: "Operational Risk Analysis", prompt: fmt.Sprintf("Operational implementation risks (3-4) & mitigation for %s:\n%s", topic, digest), maxTokens: 260},
				{heading: "Reputational Risk Analysis", prompt: fmt.Sprintf("Reputational risks (3-4) & communication strategies for %s:\n%s", topic, digest), maxTokens: 260},
			},
		}, true
	default:
		return documentTemplate{}, false
	}
}

// Generate drafts a document of the requested type. Unknown types are a
// validation error; no matching or no relevant feedback is not found.
func (s *DocumentService) Generate(ctx context.Context, req *models.GenerateDocumentRequest) (*models.Document, error) {
	req.Normalize()

	if !req.Type.IsValid() {
		return nil, apperrors.NewValidationError("document_type",
			fmt.Sprintf("unsupported document type: %s", req.Type))
	}

	q := models.FeedbackQuery{
		Sentiments:       req.SentimentFilter,
		StakeholderTypes: req.StakeholderFilter,
		PolicyID:         req.PolicyID,
		Limit:            documentCandidateLimit,
	}
	if req.DateRange != nil {
		q.Since, q.Until = req.DateRange.Start, req.DateRange.End
	}

	candidates, err := s.repo.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find feedback: %w", err)
	}

	if len(candidates) == 0 {
		return nil, apperrors.NewNotFoundError("feedback", "no feedback found matching filters")
	}

	relevant, err := s.relevant(ctx, req.Topic, candidates)
	if err != nil {
		return nil, err
	}

	if len(relevant) == 0 {
		return nil, apperrors.NewNotFoundError("feedback", "no relevant feedback found for topic: "+req.Topic)
	}

	tmpl, _ := templateFor(req.Type, req.Topic, len(relevant), feedbackDigest(relevant))
	degraded := false

	complete := func(prompt string, maxTokens int) string {
		if s.completer != nil {
			out, err := s.completer.Complete(ctx, prompt, maxTokens)
			if err == nil {
				return out.Text
			}

			slog.WarnContext(ctx, "Document section completion failed", "type", req.Type, "error", err)
		}

		degraded = true

		return ""
	}

	summary := tmpl.summary
	if tmpl.summaryLLM {
		summary = complete(tmpl.summary, tmpl.summaryToken)
		if summary == "" {
			summary = fmt.Sprintf("Briefing on %s drawn from %d feedback items.", req.Topic, len(relevant))
		}
	}

	sections := make([]models.DocumentSection, 0, len(tmpl.sections))

	for _, sp := range tmpl.sections {
		content := complete(sp.prompt, sp.maxTokens)
		if content == "" {
			content = sectionPlaceholder
		}

		section := models.DocumentSection{Heading: sp.heading, Content: content}
		if sp.withCites {
			section.Citations = citations(relevant, documentCitationCount)
		}

		sections = append(sections, section)
	}

	generatedAt := s.now().UTC()

	return &models.Document{
		Title:            tmpl.title,
		Type:             req.Type,
		ExecutiveSummary: summary,
		Sections:         sections,
		Metadata:         documentMetadata(relevant, req, generatedAt),
		GeneratedAt:      generatedAt,
		Degraded:         degraded,
	}, nil
}

// relevant ranks candidates against the topic when a real embedding model is
// configured, keeping those above 0.3. Otherwise the newest 50 are used.
func (s *DocumentService) relevant(ctx context.Context, topic string, candidates []models.Feedback) ([]models.Feedback, error) {
	if s.embedder == nil || !s.embedder.PrimaryAvailable() {
		return candidates[:min(len(candidates), documentRelevantLimit)], nil
	}

	texts := make([]string, len(candidates))
	for i := range candidates {
		texts[i] = candidates[i].Text
	}

	idx, err := rankByRelevance(ctx, s.embedder, topic, texts, documentRelevantLimit, documentMinRelevance)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		slog.WarnContext(ctx, "Relevance ranking failed, using newest feedback", "error", err)

		return candidates[:min(len(candidates), documentRelevantLimit)], nil
	}

	out := make([]models.Feedback, len(idx))
	for i, j := range idx {
		out[i] = candidates[j]
	}

	return out, nil
}

func feedbackDigest(items []models.Feedback) string {
	lines := make([]string, 0, documentDigestItems)

	for i := 0; i < len(items) && i < documentDigestItems; i++ {
		f := &items[i]
		lines = append(lines, fmt.Sprintf("- [%s] %s: %s",
			f.Sentiment, f.StakeholderOr(documentDefaultGroup), classifier.Truncate(f.Text, documentDigestTextLen)))
	}

	return strings.Join(lines, "\n")
}

func citations(items []models.Feedback, n int) []uuid.UUID {
	out := make([]uuid.UUID, 0, min(n, len(items)))
	for i := 0; i < len(items) && i < n; i++ {
		out = append(out, items[i].ID)
	}

	return out
}

func documentMetadata(items []models.Feedback, req *models.GenerateDocumentRequest, generatedAt time.Time) models.DocumentMetadata {
	dist := make(map[models.Sentiment]int, len(models.Sentiments))
	for _, s := range models.Sentiments {
		dist[s] = 0
	}

	seen := make(map[string]bool)
	stakeholders := []string{}

	for i := range items {
		if items[i].Sentiment.IsValid() {
			dist[items[i].Sentiment]++
		}

		if st := items[i].StakeholderOr(""); st != "" && !seen[st] {
			seen[st] = true
			stakeholders = append(stakeholders, st)
		}
	}

	slices.Sort(stakeholders)

	filters := map[string][]string{}

	if len(req.SentimentFilter) > 0 {
		values := make([]string, len(req.SentimentFilter))
		for i, s := range req.SentimentFilter {
			values[i] = string(s)
		}

		filters["sentiment"] = values
	}

	if len(req.StakeholderFilter) > 0 {
		filters["stakeholders"] = req.StakeholderFilter
	}

	return models.DocumentMetadata{
		TotalFeedbackAnalyzed: len(items),
		SentimentDistribution: dist,
		StakeholderTypes:      stakeholders,
		DateRange:             req.DateRange,
		Filters:               filters,
		DateGenerated:         generatedAt,
	}
}
