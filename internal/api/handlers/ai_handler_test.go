package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RonitKhanna333/sih-final-2/internal/apperrors"
	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

type mockAIHealth struct {
	health *models.AIHealth
}

func (m *mockAIHealth) Check(context.Context) *models.AIHealth { return m.health }

type mockSimulator struct {
	simulateFunc func(ctx context.Context, req *models.SimulationRequest) (*models.SimulationResult, error)
}

func (m *mockSimulator) Simulate(ctx context.Context, req *models.SimulationRequest) (*models.SimulationResult, error) {
	if m.simulateFunc != nil {
		return m.simulateFunc(ctx, req)
	}

	return &models.SimulationResult{OverallRisk: "LOW"}, nil
}

type mockDocuments struct {
	generateFunc func(ctx context.Context, req *models.GenerateDocumentRequest) (*models.Document, error)
}

func (m *mockDocuments) Generate(ctx context.Context, req *models.GenerateDocumentRequest) (*models.Document, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}

	return &models.Document{Title: req.Topic}, nil
}

type mockAssistant struct {
	chatFunc func(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error)
}

func (m *mockAssistant) Chat(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	if m.chatFunc != nil {
		return m.chatFunc(ctx, req)
	}

	return &models.ChatResponse{Reply: "hello"}, nil
}

func newAIHandler() *AIHandler {
	return NewAIHandler(AIHandlerParams{
		Health:    &mockAIHealth{health: &models.AIHealth{Status: models.AIStatusReadyMock, MockMode: true}},
		Simulator: &mockSimulator{},
		Documents: &mockDocuments{},
		Assistant: &mockAssistant{},
	})
}

func TestAIHandler_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newAIHandler().Health(rec, httptest.NewRequest(http.MethodGet, "/v1/ai/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	health := decodeBody[models.AIHealth](t, rec)
	assert.Equal(t, models.AIStatusReadyMock, health.Status)
	assert.True(t, health.MockMode)
}

func TestAIHandler_Simulate(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newAIHandler().Simulate(rec, jsonRequest(t, http.MethodPost, "/v1/ai/simulate",
			`{"original_clause":"Tax is 5%","modified_clause":"Tax is 7%"}`))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "LOW", decodeBody[models.SimulationResult](t, rec).OverallRisk)
	})

	t.Run("missing modified clause", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newAIHandler().Simulate(rec, jsonRequest(t, http.MethodPost, "/v1/ai/simulate", `{"original_clause":"Tax is 5%"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "modified_clause is required")
	})
}

func TestAIHandler_Documents(t *testing.T) {
	t.Run("accepts report_type alias", func(t *testing.T) {
		var got *models.GenerateDocumentRequest

		h := NewAIHandler(AIHandlerParams{Documents: &mockDocuments{
			generateFunc: func(_ context.Context, req *models.GenerateDocumentRequest) (*models.Document, error) {
				got = req

				return &models.Document{Title: "t"}, nil
			},
		}})

		rec := httptest.NewRecorder()
		h.Documents(rec, jsonRequest(t, http.MethodPost, "/v1/ai/documents", `{"topic":"Tax","report_type":"response"}`))

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, got)
		assert.Equal(t, "response", got.ReportType)
	})

	t.Run("unsupported type", func(t *testing.T) {
		h := NewAIHandler(AIHandlerParams{Documents: &mockDocuments{
			generateFunc: func(context.Context, *models.GenerateDocumentRequest) (*models.Document, error) {
				return nil, apperrors.NewValidationError("document_type", "unsupported document type: memo")
			},
		}})

		rec := httptest.NewRecorder()
		h.Documents(rec, jsonRequest(t, http.MethodPost, "/v1/ai/documents", `{"topic":"Tax","document_type":"memo"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no matching feedback", func(t *testing.T) {
		h := NewAIHandler(AIHandlerParams{Documents: &mockDocuments{
			generateFunc: func(context.Context, *models.GenerateDocumentRequest) (*models.Document, error) {
				return nil, apperrors.NewNotFoundError("feedback", "no feedback matches the filters")
			},
		}})

		rec := httptest.NewRecorder()
		h.Documents(rec, jsonRequest(t, http.MethodPost, "/v1/ai/documents", `{"topic":"Tax"}`))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid sentiment filter", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newAIHandler().Documents(rec, jsonRequest(t, http.MethodPost, "/v1/ai/documents", `{"topic":"Tax","sentiment_filter":["Angry"]}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAIHandler_Chat(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newAIHandler().Chat(rec, jsonRequest(t, http.MethodPost, "/v1/ai/chat", `{"messages":[{"role":"user","content":"Hi"}]}`))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "hello", decodeBody[models.ChatResponse](t, rec).Reply)
	})

	t.Run("empty conversation", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newAIHandler().Chat(rec, jsonRequest(t, http.MethodPost, "/v1/ai/chat", `{"messages":[]}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad role", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newAIHandler().Chat(rec, jsonRequest(t, http.MethodPost, "/v1/ai/chat", `{"messages":[{"role":"robot","content":"Hi"}]}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
