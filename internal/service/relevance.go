package service

import (
	"context"
	"fmt"
	"slices"

	vec "github.com/RonitKhanna333/sih-final-2/pkg/embeddings"
)

type scoredIndex struct {
	index int
	score float64
}

// rankByRelevance embeds query together with texts and returns the indexes of
// texts whose cosine similarity to query exceeds minScore, best first, at most limit.
func rankByRelevance(ctx context.Context, embedder Embedder, query string, texts []string, limit int, minScore float64) ([]int, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batch := make([]string, 0, len(texts)+1)
	batch = append(batch, query)
	batch = append(batch, texts...)

	vectors, _, err := embedder.Embed(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("embed for relevance: %w", err)
	}

	if len(vectors) != len(batch) {
		return nil, fmt.Errorf("embed for relevance: got %d vectors for %d texts", len(vectors), len(batch))
	}

	scored := make([]scoredIndex, 0, len(texts))

	for i, v := range vectors[1:] {
		if score := vec.Cosine(vectors[0], v); score > minScore {
			scored = append(scored, scoredIndex{index: i, score: score})
		}
	}

	slices.SortStableFunc(scored, func(a, b scoredIndex) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}

	out := make([]int, len(scored))
	for i, s := range scored {
		out[i] = s.index
	}

	return out, nil
}
