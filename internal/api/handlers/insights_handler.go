package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/RonitKhanna333/sih-final-2/internal/api/response"
	"github.com/RonitKhanna333/sih-final-2/internal/api/validation"
	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

// InsightsService defines the corpus analytics logic.
type InsightsService interface {
	Analytics(ctx context.Context) (*models.Analytics, error)
	KPIs(ctx context.Context) (*models.KPIs, error)
	WordFrequencies(ctx context.Context, limit int) ([]models.WordFrequency, error)
	Summarize(ctx context.Context) (*models.FeedbackSummary, error)
	SummarizeFiltered(ctx context.Context, req *models.FilteredSummaryRequest) (*models.FilteredSummary, error)
}

// ClusteringService defines the clustering operation.
type ClusteringService interface {
	ClusterFeedback(ctx context.Context, req *models.ClusterRequest) (*models.ClusterResult, error)
}

// DebateMapService defines the debate map operation.
type DebateMapService interface {
	GetDebateMap(ctx context.Context, regenerate bool) (*models.DebateMap, error)
}

// InsightsHandler serves analytics, clustering and the debate map.
type InsightsHandler struct {
	insights   InsightsService
	clustering ClusteringService
	debateMap  DebateMapService
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(insights InsightsService, clustering ClusteringService, debateMap DebateMapService) *InsightsHandler {
	return &InsightsHandler{insights: insights, clustering: clustering, debateMap: debateMap}
}

// Analytics handles GET /v1/analytics.
func (h *InsightsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	result, err := h.insights.Analytics(r.Context())
	if err != nil {
		respondServiceError(w, r, "compute analytics", err)

		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// KPIs handles GET /v1/analytics/kpis.
func (h *InsightsHandler) KPIs(w http.ResponseWriter, r *http.Request) {
	result, err := h.insights.KPIs(r.Context())
	if err != nil {
		respondServiceError(w, r, "compute kpis", err)

		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// WordFrequencies handles GET /v1/analytics/word-frequencies.
func (h *InsightsHandler) WordFrequencies(w http.ResponseWriter, r *http.Request) {
	query := &models.WordFrequencyQuery{}

	if err := validation.ValidateAndDecodeQueryParams(r, query); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	words, err := h.insights.WordFrequencies(r.Context(), query.Limit)
	if err != nil {
		respondServiceError(w, r, "compute word frequencies", err)

		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]any{"words": words})
}

// Summary handles POST /v1/feedback/summary.
func (h *InsightsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	result, err := h.insights.Summarize(r.Context())
	if err != nil {
		respondServiceError(w, r, "summarize feedback", err)

		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// SummarizeFiltered handles POST /v1/feedback/summarize-filtered. An empty body
// summarizes the newest feedback without filters.
func (h *InsightsHandler) SummarizeFiltered(w http.ResponseWriter, r *http.Request) {
	var req models.FilteredSummaryRequest

	if r.ContentLength != 0 && !decodeJSONBody(w, r, &req) {
		return
	}

	result, err := h.insights.SummarizeFiltered(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, "summarize filtered feedback", err)

		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Cluster handles POST /v1/feedback/cluster. An empty body uses the defaults.
func (h *InsightsHandler) Cluster(w http.ResponseWriter, r *http.Request) {
	var req models.ClusterRequest

	if r.ContentLength != 0 && !decodeJSONBody(w, r, &req) {
		return
	}

	result, err := h.clustering.ClusterFeedback(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, "cluster feedback", err)

		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// DebateMap handles GET /v1/analytics/debate-map. ?regenerate=true bypasses the cache.
func (h *InsightsHandler) DebateMap(w http.ResponseWriter, r *http.Request) {
	regenerate := false

	if raw := r.URL.Query().Get("regenerate"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.RespondBadRequest(w, "Invalid regenerate parameter")

			return
		}

		regenerate = v
	}

	m, err := h.debateMap.GetDebateMap(r.Context(), regenerate)
	if err != nil {
		respondServiceError(w, r, "build debate map", err)

		return
	}

	response.RespondJSON(w, http.StatusOK, m)
}
