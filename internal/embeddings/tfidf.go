package embeddings

import (
	"context"
	"errors"
	"math"
	"sort"
	"unicode/utf8"

	"gonum.org/v1/gonum/mat"

	"github.com/RonitKhanna333/sih-final-2/internal/classifier"
	"github.com/RonitKhanna333/sih-final-2/pkg/embeddings"
)

const (
	defaultTFIDFComponents = 50
	tfidfMaxFeatures       = 1000
	tfidfMinTermRunes      = 2

	// Components with a singular value below this fraction of the largest are rounding noise.
	svdRankTolerance = 1e-10
)

// TFIDFProvider fits a TF-IDF model on each batch and projects it with a truncated SVD
// (latent semantic analysis). Vectors are only comparable within one Embed call.
type TFIDFProvider struct {
	components int
}

// NewTFIDFProvider creates a provider projecting to at most components dimensions (50 when not positive).
func NewTFIDFProvider(components int) *TFIDFProvider {
	if components <= 0 {
		components = defaultTFIDFComponents
	}

	return &TFIDFProvider{components: components}
}

// Name returns "tfidf".
func (p *TFIDFProvider) Name() string { return ProviderTFIDF }

// Available reports true; failures surface from Embed.
func (p *TFIDFProvider) Available() bool { return true }

// Embed returns min(components, len(texts)-1, vocabulary) dimensional rows, at least one.
func (p *TFIDFProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(texts) == 0 {
		return nil, ErrEmptyVocabulary
	}

	docs := make([][]string, len(texts))
	for i, text := range texts {
		docs[i] = termsOf(text)
	}

	vocab := buildVocabulary(docs, tfidfMaxFeatures)
	if len(vocab) == 0 {
		return nil, ErrEmptyVocabulary
	}

	x := tfidfMatrix(docs, vocab)

	k := min(p.components, len(texts)-1, len(vocab))
	k = max(k, 1)

	return truncatedSVD(x, k)
}

func termsOf(text string) []string {
	var out []string

	for _, tok := range classifier.Tokenize(text) {
		if utf8.RuneCountInString(tok) < tfidfMinTermRunes {
			continue
		}

		if _, stop := classifier.StopWords[tok]; stop {
			continue
		}

		out = append(out, tok)
	}

	return out
}

// buildVocabulary keeps the maxFeatures most frequent terms (ties by term) and returns
// them mapped to alphabetical column indexes.
func buildVocabulary(docs [][]string, maxFeatures int) map[string]int {
	counts := make(map[string]int)

	for _, doc := range docs {
		for _, term := range doc {
			counts[term]++
		}
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}

	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}

		return terms[i] < terms[j]
	})

	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}

	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	for i, term := range terms {
		vocab[term] = i
	}

	return vocab
}

// tfidfMatrix builds L2-normalized rows of raw term counts times smooth idf ln((1+n)/(1+df))+1.
func tfidfMatrix(docs [][]string, vocab map[string]int) *mat.Dense {
	n := len(docs)
	df := make([]float64, len(vocab))
	rows := make([][]float64, n)

	for i, doc := range docs {
		row := make([]float64, len(vocab))
		seen := make(map[int]bool)

		for _, term := range doc {
			col, ok := vocab[term]
			if !ok {
				continue
			}

			row[col]++

			if !seen[col] {
				seen[col] = true
				df[col]++
			}
		}

		rows[i] = row
	}

	x := mat.NewDense(n, len(vocab), nil)

	for i, row := range rows {
		for col := range row {
			row[col] *= math.Log(float64(1+n)/(1+df[col])) + 1
		}

		embeddings.NormalizeL2(row)
		x.SetRow(i, row)
	}

	return x
}

// truncatedSVD projects x onto its first k right singular vectors (U_k * S_k), flipping
// each component so its largest-magnitude U entry is positive. Components beyond the
// numerical rank of x are left at zero.
func truncatedSVD(x *mat.Dense, k int) ([][]float64, error) {
	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, errors.New("tf-idf: svd did not converge")
	}

	var u mat.Dense
	svd.UTo(&u)

	values := svd.Values(nil)
	n, _ := u.Dims()
	k = min(k, len(values))

	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, k)
	}

	cutoff := 0.0
	if len(values) > 0 {
		cutoff = svdRankTolerance * values[0]
	}

	for j := range k {
		if values[j] <= cutoff {
			continue
		}

		sign := 1.0
		best := 0.0

		for i := range n {
			if v := u.At(i, j); math.Abs(v) > best {
				best = math.Abs(v)
				sign = math.Copysign(1, v)
			}
		}

		for i := range n {
			out[i][j] = sign * u.At(i, j) * values[j]
		}
	}

	return out, nil
}
