// Package edgecase finds the stored edge-case example closest to a feedback text.
package edgecase

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/RonitKhanna333/sih-final-2/internal/embeddings"
	vec "github.com/RonitKhanna333/sih-final-2/pkg/embeddings"
)

const (
	linesPerChunk = 5
	// MinSimilarity is the cosine a chunk must exceed to count as a match.
	MinSimilarity = 0.5
)

// Retriever holds pre-embedded line chunks. The zero value matches nothing.
type Retriever struct {
	provider embeddings.Provider
	chunks   []string
	vectors  [][]float64
}

// ReadChunks keeps non-empty trimmed lines and joins every five of them with newlines.
func ReadChunks(r io.Reader) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read edge cases: %w", err)
	}

	chunks := make([]string, 0, (len(lines)+linesPerChunk-1)/linesPerChunk)
	for start := 0; start < len(lines); start += linesPerChunk {
		end := min(start+linesPerChunk, len(lines))
		chunks = append(chunks, strings.Join(lines[start:end], "\n"))
	}

	return chunks, nil
}

// New embeds chunks once with provider. Without an available provider, or when
// embedding fails, the retriever keeps the chunks but never matches. Only a
// cancelled context is returned as an error.
func New(ctx context.Context, provider embeddings.Provider, chunks []string) (*Retriever, error) {
	r := &Retriever{provider: provider, chunks: chunks}

	if provider == nil || !provider.Available() || len(chunks) == 0 {
		return r, nil
	}

	vectors, err := provider.Embed(ctx, chunks)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("embed edge cases: %w", ctx.Err())
		}

		slog.WarnContext(ctx, "Failed to embed edge cases, edge-case matching disabled",
			"provider", provider.Name(), "chunks", len(chunks), "error", err)

		return r, nil
	}

	r.vectors = vectors

	return r, nil
}

// Load reads path and builds a Retriever. A missing file yields an empty retriever.
func Load(ctx context.Context, path string, provider embeddings.Provider) (*Retriever, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Edge cases file not found, edge-case matching disabled", "path", path)

		return &Retriever{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("open edge cases: %w", err)
	}
	defer func() { _ = f.Close() }()

	chunks, err := ReadChunks(f)
	if err != nil {
		return nil, err
	}

	r, err := New(ctx, provider, chunks)
	if err != nil {
		return nil, err
	}

	slog.Info("Loaded edge cases", "chunks", len(chunks), "embedded", r.Ready())

	return r, nil
}

// Ready reports whether Match can return results.
func (r *Retriever) Ready() bool {
	return r != nil && len(r.vectors) > 0 && len(r.vectors) == len(r.chunks)
}

// Len is the number of chunks.
func (r *Retriever) Len() int {
	if r == nil {
		return 0
	}

	return len(r.chunks)
}

// Match returns the chunk most similar to text when its cosine exceeds MinSimilarity.
// Embedding failures are logged and reported as no match.
func (r *Retriever) Match(ctx context.Context, text string) (string, bool) {
	if !r.Ready() || strings.TrimSpace(text) == "" {
		return "", false
	}

	query, err := r.provider.Embed(ctx, []string{text})
	if err != nil || len(query) != 1 {
		slog.WarnContext(ctx, "Edge case retrieval failed", "error", err)

		return "", false
	}

	best, bestSim := -1, MinSimilarity
	for i, v := range r.vectors {
		if sim := vec.Cosine(query[0], v); sim > bestSim {
			best, bestSim = i, sim
		}
	}

	if best < 0 {
		return "", false
	}

	return r.chunks[best], true
}
