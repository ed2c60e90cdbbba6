package validation

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

func TestValidateStruct_CreateFeedback(t *testing.T) {
	hindi := models.LanguageHindi
	french := models.Language("French")

	tests := []struct {
		name    string
		req     models.CreateFeedbackRequest
		wantErr string
	}{
		{"valid minimal", models.CreateFeedbackRequest{Text: "Looks good"}, ""},
		{"valid with language", models.CreateFeedbackRequest{Text: "ठीक है", Language: &hindi}, ""},
		{"empty text", models.CreateFeedbackRequest{Text: ""}, "text is required"},
		{"null byte", models.CreateFeedbackRequest{Text: "bad\x00text"}, "text must not contain NULL bytes"},
		{"unsupported language", models.CreateFeedbackRequest{Text: "ok", Language: &french}, "language must be one of: English, Hindi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.NotEmpty(t, GetValidationErrorDetails(err))
		})
	}
}

func TestValidateAndDecodeQueryParams(t *testing.T) {
	t.Run("decodes filters", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/feedback?sentiment=Negative&is_spam=false&limit=20&policy_id=018e1234-5678-9abc-def0-123456789abc", nil)

		var filters models.ListFeedbackFilters
		require.NoError(t, ValidateAndDecodeQueryParams(req, &filters))

		require.NotNil(t, filters.Sentiment)
		assert.Equal(t, models.SentimentNegative, *filters.Sentiment)
		require.NotNil(t, filters.IsSpam)
		assert.False(t, *filters.IsSpam)
		assert.Equal(t, 20, filters.Limit)
		require.NotNil(t, filters.PolicyID)
		assert.Equal(t, "018e1234-5678-9abc-def0-123456789abc", filters.PolicyID.String())
	})

	t.Run("rejects unknown sentiment", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/feedback?sentiment=Angry", nil)

		var filters models.ListFeedbackFilters
		assert.Error(t, ValidateAndDecodeQueryParams(req, &filters))
	})

	t.Run("rejects bad uuid", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/feedback?policy_id=nope", nil)

		var filters models.ListFeedbackFilters
		assert.Error(t, ValidateAndDecodeQueryParams(req, &filters))
	})

	t.Run("rejects oversized limit", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/feedback?limit=5000", nil)

		var filters models.ListFeedbackFilters
		assert.Error(t, ValidateAndDecodeQueryParams(req, &filters))
	})
}
