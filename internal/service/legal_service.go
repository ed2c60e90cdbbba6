package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/RonitKhanna333/sih-final-2/internal/classifier"
	"github.com/RonitKhanna333/sih-final-2/internal/models"
)

const (
	defaultLegalTopK = 5
	maxLegalTopK     = 20
)

// LegalPrecedentRepository defines the precedent reads LegalService needs.
type LegalPrecedentRepository interface {
	All(ctx context.Context) ([]models.LegalPrecedent, error)
}

// LegalService searches legal precedents by keyword overlap.
type LegalService struct {
	repo LegalPrecedentRepository
}

// NewLegalService creates a LegalService.
func NewLegalService(repo LegalPrecedentRepository) *LegalService {
	return &LegalService{repo: repo}
}

// Search returns at most topK precedents (5 when not positive, capped at 20)
// with a positive score, best first.
func (s *LegalService) Search(ctx context.Context, query string, topK int) ([]models.LegalSearchResult, error) {
	if topK <= 0 {
		topK = defaultLegalTopK
	}

	topK = min(topK, maxLegalTopK)

	precedents, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("legal precedents: %w", err)
	}

	return RankPrecedents(query, precedents, topK), nil
}

// RankPrecedents scores each precedent by the fraction of query words found as
// substrings of its case name, keywords and summary. Zero scores are dropped;
// equal scores keep store order. Scores are rounded to two places.
func RankPrecedents(query string, precedents []models.LegalPrecedent, topK int) []models.LegalSearchResult {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return []models.LegalSearchResult{}
	}

	type scored struct {
		score float64
		p     models.LegalPrecedent
	}

	var matches []scored

	for _, p := range precedents {
		text := strings.ToLower(p.CaseName + " " + p.Keywords + " " + p.Summary)

		hits := 0

		for _, w := range words {
			if strings.Contains(text, w) {
				hits++
			}
		}

		if hits > 0 {
			matches = append(matches, scored{score: float64(hits) / float64(len(words)), p: p})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	out := make([]models.LegalSearchResult, 0, min(topK, len(matches)))
	for _, m := range matches[:min(topK, len(matches))] {
		out = append(out, models.LegalSearchResult{LegalPrecedent: m.p, Score: classifier.Round(m.score, 2)})
	}

	return out
}
