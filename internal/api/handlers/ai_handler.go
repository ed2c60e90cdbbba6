package handlers

import (
	"context"
	"net/http"

	"github.com/RonitKhanna333/sih-final-2/internal/api/response"
	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

// AIHealthChecker reports AI readiness.
type AIHealthChecker interface {
	Check(ctx context.Context) *models.AIHealth
}

// Simulator predicts stakeholder reactions to a clause change.
type Simulator interface {
	Simulate(ctx context.Context, req *models.SimulationRequest) (*models.SimulationResult, error)
}

// DocumentGenerator drafts documents from stored feedback.
type DocumentGenerator interface {
	Generate(ctx context.Context, req *models.GenerateDocumentRequest) (*models.Document, error)
}

// Assistant answers chat conversations.
type Assistant interface {
	Chat(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error)
}

// AIHandler serves the /v1/ai routes.
type AIHandler struct {
	health    AIHealthChecker
	simulator Simulator
	documents DocumentGenerator
	assistant Assistant
}

// AIHandlerParams configures AIHandler.
type AIHandlerParams struct {
	Health    AIHealthChecker
	Simulator Simulator
	Documents DocumentGenerator
	Assistant Assistant
}

// NewAIHandler creates a new AI handler.
func NewAIHandler(p AIHandlerParams) *AIHandler {
	return &AIHandler{
		health:    p.Health,
		simulator: p.Simulator,
		documents: p.Documents,
		assistant: p.Assistant,
	}
}

// Health handles GET /v1/ai/health.
func (h *AIHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.RespondJSON(w, http.StatusOK, h.health.Check(r.Context()))
}

// Simulate handles POST /v1/ai/simulate.
func (h *AIHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req models.SimulationRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	result, err := h.simulator.Simulate(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, "simulate policy change", err)

		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Documents handles POST /v1/ai/documents.
func (h *AIHandler) Documents(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateDocumentRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	doc, err := h.documents.Generate(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, "generate document", err)

		return
	}

	response.RespondJSON(w, http.StatusOK, doc)
}

// Chat handles POST /v1/ai/chat.
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	reply, err := h.assistant.Chat(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, "answer chat", err)

		return
	}

	response.RespondJSON(w, http.StatusOK, reply)
}
