package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/RonitKhanna333/sih-final-2/internal/classifier"
	"github.com/RonitKhanna333/sih-final-2/internal/llm"
	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

// Overall risk and consensus verdicts.
const (
	RiskHigh    = "HIGH - Significant opposition likely"
	RiskMedium  = "MEDIUM - Moderate concerns"
	RiskLow     = "LOW - Broadly acceptable"
	RiskUnknown = "UNKNOWN"

	ConsensusFracture = "May fracture consensus"
	ConsensusHolds    = "Consensus likely maintained"
	ConsensusUnknown  = "Unknown"
)

const (
	simulationHistoryLimit  = 500
	simulationRelevantLimit = 50
	simulationSampleCount   = 5
	simulationSampleLen     = 160
	maxKeyDrivers           = 3
	maxEmergingConcerns     = 5
	maxRecommendations      = 3
	defaultShiftPercentage  = 15
	defaultRiskLevel        = "medium"
	defaultStakeholderGroup = "General Public"
	maxDiffWords            = 10

	changeMaxTokens          = 150
	impactMaxTokens          = 220
	simulationSummaryTokens  = 140
	recommendationsMaxTokens = 160

	insufficientHistorySummary = "Insufficient historical data to model stakeholder impacts."
	placeholderConfidence      = 0.2
)

var placeholderRecommendations = []string{
	"Gather more feedback",
	"Engage key stakeholder groups",
	"Re-run after data expansion",
}

// RecentReader reads the newest feedback.
type RecentReader interface {
	FindRecent(ctx context.Context, limit int) ([]models.Feedback, error)
}

// SimulationService predicts how stakeholder groups react to a policy change.
type SimulationService struct {
	repo      RecentReader
	embedder  Embedder
	completer llm.Completer
}

// SimulationServiceParams configures SimulationService.
type SimulationServiceParams struct {
	Repo      RecentReader
	Embedder  Embedder
	Completer llm.Completer
}

// NewSimulationService creates a SimulationService.
func NewSimulationService(p SimulationServiceParams) *SimulationService {
	return &SimulationService{repo: p.Repo, embedder: p.Embedder, completer: p.Completer}
}

type simulationRun struct {
	svc      *SimulationService
	degraded bool
}

// complete returns the completion text, or "" after marking the run degraded.
func (r *simulationRun) complete(ctx context.Context, prompt string, maxTokens int) string {
	if r.svc.completer == nil {
		r.degraded = true

		return ""
	}

	out, err := r.svc.completer.Complete(ctx, prompt, maxTokens)
	if err != nil {
		slog.WarnContext(ctx, "Simulation completion failed", "error", err)

		r.degraded = true

		return ""
	}

	return out.Text
}

// Simulate compares the two clauses and predicts per-stakeholder impact from
// the feedback most similar to the identified change.
func (s *SimulationService) Simulate(ctx context.Context, req *models.SimulationRequest) (*models.SimulationResult, error) {
	run := &simulationRun{svc: s}

	change := run.complete(ctx, changePrompt(req.OriginalClause, req.ModifiedClause), changeMaxTokens)
	if change == "" {
		change = WordDiff(req.OriginalClause, req.ModifiedClause)
	}

	relevant, err := s.relevantOpinions(ctx, change)
	if err != nil {
		return nil, err
	}

	if len(relevant) == 0 {
		return &models.SimulationResult{
			Summary:            insufficientHistorySummary,
			IdentifiedChange:   change,
			StakeholderImpacts: []models.StakeholderImpact{},
			OverallRisk:        RiskUnknown,
			EmergingConcerns:   []string{},
			ConsensusImpact:    ConsensusUnknown,
			Recommendations:    slices.Clone(placeholderRecommendations),
			ConfidenceScore:    placeholderConfidence,
			Degraded:           run.degraded,
		}, nil
	}

	impacts := make([]models.StakeholderImpact, 0)
	for _, g := range groupByStakeholder(relevant) {
		impacts = append(impacts, run.predictImpact(ctx, change, g))
	}

	summary := run.complete(ctx, fmt.Sprintf(
		"Provide a concise 2-sentence executive summary of predicted impacts. Change: %s.", change),
		simulationSummaryTokens)
	if summary == "" {
		summary = fmt.Sprintf("Predicted impacts for %d stakeholder groups based on %d related comments.",
			len(impacts), len(relevant))
	}

	recommendations := ParseNumberedLines(
		run.complete(ctx, recommendationsPrompt(impacts), recommendationsMaxTokens), maxRecommendations)
	if len(recommendations) == 0 {
		recommendations = slices.Clone(placeholderRecommendations)
	}

	return &models.SimulationResult{
		Summary:             summary,
		IdentifiedChange:    change,
		StakeholderImpacts:  impacts,
		OverallRisk:         OverallRisk(impacts),
		EmergingConcerns:    emergingConcerns(impacts),
		ConsensusImpact:     ConsensusImpact(impacts),
		Recommendations:     recommendations,
		ConfidenceScore:     math.Min(0.95, 0.5+float64(len(relevant))/100),
		HistoricalDataCount: len(relevant),
		Degraded:            run.degraded,
	}, nil
}

func (s *SimulationService) relevantOpinions(ctx context.Context, change string) ([]models.Feedback, error) {
	recent, err := s.repo.FindRecent(ctx, simulationHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("recent feedback: %w", err)
	}

	if len(recent) == 0 || s.embedder == nil {
		return nil, nil
	}

	texts := make([]string, len(recent))
	for i := range recent {
		texts[i] = recent[i].Text
	}

	idx, err := rankByRelevance(ctx, s.embedder, change, texts, simulationRelevantLimit, math.Inf(-1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		slog.WarnContext(ctx, "Relevance ranking failed, simulating without history", "error", err)

		return nil, nil
	}

	out := make([]models.Feedback, len(idx))
	for i, j := range idx {
		out[i] = recent[j]
	}

	return out, nil
}

type stakeholderGroup struct {
	name  string
	items []models.Feedback
}

// groupByStakeholder keeps groups in order of first appearance.
func groupByStakeholder(items []models.Feedback) []stakeholderGroup {
	var groups []stakeholderGroup

	pos := make(map[string]int)

	for _, f := range items {
		name := f.StakeholderOr(defaultStakeholderGroup)

		i, ok := pos[name]
		if !ok {
			i = len(groups)
			pos[name] = i
			groups = append(groups, stakeholderGroup{name: name})
		}

		groups[i].items = append(groups[i].items, f)
	}

	return groups
}

func (r *simulationRun) predictImpact(ctx context.Context, change string, g stakeholderGroup) models.StakeholderImpact {
	idx := make([]int, len(g.items))
	for i := range idx {
		idx[i] = i
	}

	current := dominantSentiment(g.items, idx)

	var b strings.Builder

	b.WriteString("Predict impact for stakeholder group.\n")
	fmt.Fprintf(&b, "CHANGE: %s\nGROUP: %s\nCURRENT: %s\nSAMPLE:\n", change, g.name, current)

	for i := 0; i < len(g.items) && i < simulationSampleCount; i++ {
		b.WriteString("- ")
		b.WriteString(classifier.Truncate(g.items[i].Text, simulationSampleLen))
		b.WriteString("\n")
	}

	b.WriteString("Return lines: PREDICTED_SENTIMENT:, SHIFT_PERCENTAGE:, KEY_DRIVERS:, RISK_LEVEL:")

	impact := ParseImpact(r.complete(ctx, b.String(), impactMaxTokens))
	impact.StakeholderType = g.name
	impact.CurrentSentiment = current
	impact.SampleSize = len(g.items)

	return impact
}

// ParseImpact reads the PREDICTED_SENTIMENT, SHIFT_PERCENTAGE, KEY_DRIVERS and
// RISK_LEVEL lines of a completion. Missing lines keep their defaults: Neutral,
// 0, no drivers and medium risk. A shift line without digits means 15.
func ParseImpact(text string) models.StakeholderImpact {
	impact := models.StakeholderImpact{
		PredictedSentiment: models.SentimentNeutral,
		KeyDrivers:         []string{},
		RiskLevel:          defaultRiskLevel,
	}

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.Contains(line, "PREDICTED_SENTIMENT:"):
			impact.PredictedSentiment = normalizeSentiment(afterColon(line))
		case strings.Contains(line, "SHIFT_PERCENTAGE:"):
			impact.ShiftPercentage = digitsOr(line, defaultShiftPercentage)
		case strings.Contains(line, "KEY_DRIVERS:"):
			impact.KeyDrivers = splitDrivers(afterColon(line))
		case strings.Contains(line, "RISK_LEVEL:"):
			if risk := strings.ToLower(afterColon(line)); risk != "" {
				impact.RiskLevel = risk
			}
		}
	}

	return impact
}

func afterColon(line string) string {
	_, rest, _ := strings.Cut(line, ":")

	return strings.TrimSpace(rest)
}

func normalizeSentiment(s string) models.Sentiment {
	lower := strings.ToLower(s)
	for _, sentiment := range models.Sentiments {
		if strings.HasPrefix(lower, strings.ToLower(string(sentiment))) {
			return sentiment
		}
	}

	return models.SentimentNeutral
}

func digitsOr(line string, fallback int) int {
	var digits strings.Builder

	for _, r := range line {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}

	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return fallback
	}

	return n
}

func splitDrivers(s string) []string {
	out := []string{}

	for _, d := range strings.Split(s, ",") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}

		if len(out) == maxKeyDrivers {
			break
		}
	}

	return out
}

// OverallRisk is HIGH with two high-risk groups or an average shift above 40,
// MEDIUM with one high-risk group or an average shift above 25, else LOW.
func OverallRisk(impacts []models.StakeholderImpact) string {
	high := 0
	total := 0

	for _, i := range impacts {
		if i.RiskLevel == "high" {
			high++
		}

		total += i.ShiftPercentage
	}

	avg := 0.0
	if len(impacts) > 0 {
		avg = float64(total) / float64(len(impacts))
	}

	switch {
	case high >= 2 || avg > 40:
		return RiskHigh
	case high == 1 || avg > 25:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ConsensusImpact reports a fracture when more than half the groups turn negative.
func ConsensusImpact(impacts []models.StakeholderImpact) string {
	negatives := 0

	for _, i := range impacts {
		if i.PredictedSentiment == models.SentimentNegative {
			negatives++
		}
	}

	if float64(negatives) > float64(len(impacts))/2 {
		return ConsensusFracture
	}

	return ConsensusHolds
}

func emergingConcerns(impacts []models.StakeholderImpact) []string {
	seen := make(map[string]bool)
	out := []string{}

	for _, i := range impacts {
		for _, d := range i.KeyDrivers {
			if seen[d] {
				continue
			}

			seen[d] = true
			out = append(out, d)

			if len(out) == maxEmergingConcerns {
				return out
			}
		}
	}

	return out
}

// ParseNumberedLines keeps lines that start with a digit, minus their "N. "
// prefix, up to limit.
func ParseNumberedLines(text string, limit int) []string {
	var out []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !unicode.IsDigit([]rune(line)[0]) {
			continue
		}

		item := strings.TrimSpace(strings.TrimLeftFunc(line, func(r rune) bool {
			return unicode.IsDigit(r) || r == '.' || r == ')'
		}))
		if item == "" {
			continue
		}

		out = append(out, item)
		if len(out) == limit {
			break
		}
	}

	return out
}

func changePrompt(original, modified string) string {
	return "You are a policy analyst. Compare these two versions of a policy clause and identify " +
		"the key substantive change in 1-2 sentences.\n\nORIGINAL:\n" + original +
		"\n\nMODIFIED:\n" + modified + "\n\nKey change:"
}

func recommendationsPrompt(impacts []models.StakeholderImpact) string {
	parts := make([]string, len(impacts))
	for i, imp := range impacts {
		parts[i] = imp.StakeholderType + ":" + string(imp.PredictedSentiment)
	}

	return "Provide 3 numbered actionable recommendations based on stakeholder impacts. Impacts: " +
		strings.Join(parts, "; ")
}

// WordDiff describes a clause change by the words removed and added, at most
// ten of each, in order of appearance.
func WordDiff(original, modified string) string {
	before := strings.Fields(strings.ToLower(original))
	after := strings.Fields(strings.ToLower(modified))

	removed := missingWords(before, after)
	added := missingWords(after, before)

	if len(removed) == 0 && len(added) == 0 {
		return "No substantive wording change detected."
	}

	var parts []string
	if len(removed) > 0 {
		parts = append(parts, "Removed: "+strings.Join(removed, ", "))
	}

	if len(added) > 0 {
		parts = append(parts, "Added: "+strings.Join(added, ", "))
	}

	return strings.Join(parts, ". ") + "."
}

func missingWords(from, in []string) []string {
	present := make(map[string]bool, len(in))
	for _, w := range in {
		present[w] = true
	}

	seen := make(map[string]bool)

	var out []string

	for _, w := range from {
		if present[w] || seen[w] {
			continue
		}

		seen[w] = true
		out = append(out, w)

		if len(out) == maxDiffWords {
			break
		}
	}

	return out
}
