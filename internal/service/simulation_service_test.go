package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RonitKhanna333/sih-final-2/internal/llm"
	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

func TestParseImpact(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.StakeholderImpact
	}{
		{
			name: "all lines",
			text: "PREDICTED_SENTIMENT: negative\nSHIFT_PERCENTAGE: 35%\nKEY_DRIVERS: cost, delay, paperwork, audits\nRISK_LEVEL: High",
			want: models.StakeholderImpact{
				PredictedSentiment: models.SentimentNegative,
				ShiftPercentage:    35,
				KeyDrivers:         []string{"cost", "delay", "paperwork"},
				RiskLevel:          "high",
			},
		},
		{
			name: "defaults",
			text: "nothing useful",
			want: models.StakeholderImpact{
				PredictedSentiment: models.SentimentNeutral,
				KeyDrivers:         []string{},
				RiskLevel:          "medium",
			},
		},
		{
			name: "shift without digits",
			text: "SHIFT_PERCENTAGE: moderate",
			want: models.StakeholderImpact{
				PredictedSentiment: models.SentimentNeutral,
				ShiftPercentage:    15,
				KeyDrivers:         []string{},
				RiskLevel:          "medium",
			},
		},
		{
			name: "unknown sentiment is neutral",
			text: "PREDICTED_SENTIMENT: mixed",
			want: models.StakeholderImpact{
				PredictedSentiment: models.SentimentNeutral,
				KeyDrivers:         []string{},
				RiskLevel:          "medium",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseImpact(tt.text))
		})
	}
}

func TestOverallRisk(t *testing.T) {
	tests := []struct {
		name    string
		impacts []models.StakeholderImpact
		want    string
	}{
		{"two high", []models.StakeholderImpact{{RiskLevel: "high"}, {RiskLevel: "high"}}, RiskHigh},
		{"large shift", []models.StakeholderImpact{{ShiftPercentage: 50}, {ShiftPercentage: 40}}, RiskHigh},
		{"one high", []models.StakeholderImpact{{RiskLevel: "high"}, {RiskLevel: "low"}}, RiskMedium},
		{"moderate shift", []models.StakeholderImpact{{ShiftPercentage: 30}}, RiskMedium},
		{"calm", []models.StakeholderImpact{{ShiftPercentage: 10, RiskLevel: "low"}}, RiskLow},
		{"none", nil, RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OverallRisk(tt.impacts); got != tt.want {
				t.Errorf("OverallRisk() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConsensusImpact(t *testing.T) {
	neg := models.StakeholderImpact{PredictedSentiment: models.SentimentNegative}
	pos := models.StakeholderImpact{PredictedSentiment: models.SentimentPositive}

	assert.Equal(t, ConsensusFracture, ConsensusImpact([]models.StakeholderImpact{neg, neg, pos}))
	assert.Equal(t, ConsensusHolds, ConsensusImpact([]models.StakeholderImpact{neg, pos}))
	assert.Equal(t, ConsensusHolds, ConsensusImpact(nil))
}

func TestParseNumberedLines(t *testing.T) {
	text := "Here are ideas:\n1. Extend the deadline\n2) Publish a FAQ\n\n- bullet ignored\n3. Run workshops\n4. Too many"

	assert.Equal(t, []string{"Extend the deadline", "Publish a FAQ", "Run workshops"}, ParseNumberedLines(text, 3))
	assert.Empty(t, ParseNumberedLines("", 3))
}

func TestWordDiff(t *testing.T) {
	assert.Equal(t, "Removed: 30. Added: 60.", WordDiff("Filing within 30 days", "Filing within 60 days"))
	assert.Equal(t, "Added: penalties.", WordDiff("Late filing", "Late filing penalties"))
	assert.Equal(t, "No substantive wording change detected.", WordDiff("Same text", "same TEXT"))
}

func TestSimulationService_Simulate(t *testing.T) {
	ctx := context.Background()
	req := &models.SimulationRequest{OriginalClause: "File within 30 days", ModifiedClause: "File within 10 days"}

	t.Run("no history gives placeholder", func(t *testing.T) {
		svc := NewSimulationService(SimulationServiceParams{
			Repo:      &mockFeedbackStore{},
			Embedder:  keywordEmbedder("deadline"),
			Completer: &mockCompleter{},
		})

		out, err := svc.Simulate(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, insufficientHistorySummary, out.Summary)
		assert.Equal(t, RiskUnknown, out.OverallRisk)
		assert.Equal(t, ConsensusUnknown, out.ConsensusImpact)
		assert.Equal(t, placeholderRecommendations, out.Recommendations)
		assert.InDelta(t, 0.2, out.ConfidenceScore, 1e-9)
		assert.Equal(t, "ok", out.IdentifiedChange)
	})

	t.Run("predicts per stakeholder group", func(t *testing.T) {
		history := append(feedbackItems(3, models.SentimentNegative, "MSME"), feedbackItems(2, models.SentimentPositive, "")...)

		completer := &mockCompleter{completeFunc: func(_ context.Context, prompt string, _ int) (llm.Completion, error) {
			switch {
			case strings.HasPrefix(prompt, "You are a policy analyst."):
				return llm.Completion{Text: "Deadline shortened to 10 days."}, nil
			case strings.HasPrefix(prompt, "Predict impact") && strings.Contains(prompt, "GROUP: MSME"):
				return llm.Completion{Text: "PREDICTED_SENTIMENT: Negative\nSHIFT_PERCENTAGE: 45\nKEY_DRIVERS: time pressure, cost\nRISK_LEVEL: high"}, nil
			case strings.HasPrefix(prompt, "Predict impact"):
				return llm.Completion{Text: "PREDICTED_SENTIMENT: Neutral\nSHIFT_PERCENTAGE: 5\nKEY_DRIVERS: cost\nRISK_LEVEL: low"}, nil
			case strings.HasPrefix(prompt, "Provide a concise"):
				return llm.Completion{Text: "Small firms push back."}, nil
			default:
				return llm.Completion{Text: "1. Phase it in\n2. Offer support"}, nil
			}
		}}

		svc := NewSimulationService(SimulationServiceParams{
			Repo: &mockFeedbackStore{findRecentFunc: func(_ context.Context, limit int) ([]models.Feedback, error) {
				assert.Equal(t, simulationHistoryLimit, limit)

				return history, nil
			}},
			Embedder:  keywordEmbedder("policy", "feedback"),
			Completer: completer,
		})

		out, err := svc.Simulate(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, "Deadline shortened to 10 days.", out.IdentifiedChange)
		assert.Equal(t, "Small firms push back.", out.Summary)
		require.Len(t, out.StakeholderImpacts, 2)

		msme := out.StakeholderImpacts[0]
		assert.Equal(t, "MSME", msme.StakeholderType)
		assert.Equal(t, models.SentimentNegative, msme.CurrentSentiment)
		assert.Equal(t, 45, msme.ShiftPercentage)
		assert.Equal(t, 3, msme.SampleSize)

		public := out.StakeholderImpacts[1]
		assert.Equal(t, defaultStakeholderGroup, public.StakeholderType)
		assert.Equal(t, models.SentimentPositive, public.CurrentSentiment)

		assert.Equal(t, RiskMedium, out.OverallRisk)
		assert.Equal(t, []string{"time pressure", "cost"}, out.EmergingConcerns)
		assert.Equal(t, ConsensusHolds, out.ConsensusImpact)
		assert.Equal(t, []string{"Phase it in", "Offer support"}, out.Recommendations)
		assert.InDelta(t, 0.55, out.ConfidenceScore, 1e-9)
		assert.Equal(t, 5, out.HistoricalDataCount)
		assert.False(t, out.Degraded)
	})

	t.Run("completion failures degrade", func(t *testing.T) {
		svc := NewSimulationService(SimulationServiceParams{
			Repo: &mockFeedbackStore{findRecentFunc: func(context.Context, int) ([]models.Feedback, error) {
				return feedbackItems(2, models.SentimentNeutral, "Citizen"), nil
			}},
			Embedder:  keywordEmbedder("policy"),
			Completer: failingCompleter(),
		})

		out, err := svc.Simulate(ctx, req)
		require.NoError(t, err)

		assert.True(t, out.Degraded)
		assert.Equal(t, "Removed: 30. Added: 10.", out.IdentifiedChange)
		require.Len(t, out.StakeholderImpacts, 1)
		assert.Equal(t, models.SentimentNeutral, out.StakeholderImpacts[0].PredictedSentiment)
		assert.Equal(t, placeholderRecommendations, out.Recommendations)
		assert.Equal(t, RiskLow, out.OverallRisk)
	})
}
