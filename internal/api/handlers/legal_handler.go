package handlers

import (
	"context"
	"net/http"

	"github.com/RonitKhanna333/sih-final-2/internal/api/response"
	"github.com/RonitKhanna333/sih-final-2/internal/api/validation"
	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

// LegalService defines the legal precedent search.
type LegalService interface {
	Search(ctx context.Context, query string, topK int) ([]models.LegalSearchResult, error)
}

// LegalHandler serves legal precedent lookups.
type LegalHandler struct {
	service LegalService
}

// NewLegalHandler creates a new legal handler.
func NewLegalHandler(service LegalService) *LegalHandler {
	return &LegalHandler{service: service}
}

// Search handles GET /v1/legal/search?q=...&top_k=5.
func (h *LegalHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := &models.LegalSearchQuery{}

	if err := validation.ValidateAndDecodeQueryParams(r, query); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	topK := 0
	if query.TopK != nil {
		topK = *query.TopK
	}

	results, err := h.service.Search(r.Context(), query.Query, topK)
	if err != nil {
		respondServiceError(w, r, "search legal precedents", err)

		return
	}

	response.RespondJSON(w, http.StatusOK, results)
}
