package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/RonitKhanna333/sih-final-2/internal/api/response"
	"github.com/RonitKhanna333/sih-final-2/internal/api/validation"
	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

// FeedbackService defines the feedback ingestion and listing logic.
type FeedbackService interface {
	CreateFeedback(ctx context.Context, req *models.CreateFeedbackRequest) (*models.Feedback, error)
	GetFeedback(ctx context.Context, id uuid.UUID) (*models.Feedback, error)
	ListFeedback(ctx context.Context, filters *models.ListFeedbackFilters) (*models.ListFeedbackResponse, error)
	AnalyzeText(ctx context.Context, text string, lang *models.Language) *models.TextAnalysis
}

// FeedbackHandler handles HTTP requests for feedback.
type FeedbackHandler struct {
	service FeedbackService
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(service FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

// Create handles POST /v1/feedback.
func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFeedbackRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	fb, err := h.service.CreateFeedback(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, "create feedback", err)

		return
	}

	response.RespondJSON(w, http.StatusCreated, fb)
}

// Get handles GET /v1/feedback/{id}.
func (h *FeedbackHandler) Get(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	if idStr == "" {
		response.RespondBadRequest(w, "Feedback ID is required")

		return
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		response.RespondBadRequest(w, "Invalid UUID format")

		return
	}

	fb, err := h.service.GetFeedback(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, "get feedback", err)

		return
	}

	response.RespondJSON(w, http.StatusOK, fb)
}

// List handles GET /v1/feedback.
func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := &models.ListFeedbackFilters{}

	if err := validation.ValidateAndDecodeQueryParams(r, filters); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	result, err := h.service.ListFeedback(r.Context(), filters)
	if err != nil {
		respondServiceError(w, r, "list feedback", err)

		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Analyze handles POST /v1/analysis. Nothing is stored.
func (h *FeedbackHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeTextRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	response.RespondJSON(w, http.StatusOK, h.service.AnalyzeText(r.Context(), req.Text, req.Language))
}
