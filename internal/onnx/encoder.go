package onnx

import (
	"context"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/RonitKhanna333/sih-final-2/pkg/embeddings"
)

const (
	encoderMaxSeqLen = 128
	encoderBatchSize = 32
)

// Encoder produces L2-normalized sentence embeddings by mean pooling token states.
type Encoder struct {
	session *session
	tok     *tokenizer
	dim     int64
}

// NewEncoder loads model.onnx and vocab.txt from modelDir. The model output must be
// shaped [batch, seq, hidden].
func NewEncoder(libPath, modelDir string) (*Encoder, error) {
	modelPath, vocabPath, err := modelFiles(modelDir)
	if err != nil {
		return nil, err
	}

	sess, err := newSession(libPath, modelPath, 3)
	if err != nil {
		return nil, err
	}

	dim := sess.outputDims[2]
	if dim <= 0 {
		_ = sess.close()

		return nil, fmt.Errorf("onnx: encoder has dynamic hidden dimension %v", sess.outputDims)
	}

	tok, err := newTokenizer(vocabPath, encoderMaxSeqLen)
	if err != nil {
		_ = sess.close()

		return nil, err
	}

	return &Encoder{session: sess, tok: tok, dim: dim}, nil
}

// Dimension is the embedding width.
func (e *Encoder) Dimension() int {
	return int(e.dim)
}

// Encode embeds texts in batches, preserving input order.
func (e *Encoder) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))

	for start := 0; start < len(texts); start += encoderBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+encoderBatchSize, len(texts))
		batch := e.tok.encodeBatch(texts[start:end])

		hidden, err := e.session.run(batch, ort.NewShape(batch.batchSize, batch.seqLen, e.dim))
		if err != nil {
			return nil, err
		}

		out = append(out, meanPool(hidden, batch, e.dim)...)
	}

	return out, nil
}

// Close releases the session.
func (e *Encoder) Close() error {
	return e.session.close()
}

// meanPool averages the hidden states of unmasked tokens per row and L2-normalizes the result.
func meanPool(hidden []float32, batch tokenized, dim int64) [][]float64 {
	rows := make([][]float64, batch.batchSize)

	for b := range batch.batchSize {
		vec := make([]float64, dim)
		count := 0.0

		for s := range batch.seqLen {
			if batch.attentionMask[b*batch.seqLen+s] == 0 {
				continue
			}

			offset := (b*batch.seqLen + s) * dim
			for d := range dim {
				vec[d] += float64(hidden[offset+d])
			}

			count++
		}

		if count > 0 {
			for d := range vec {
				vec[d] /= count
			}
		}

		embeddings.NormalizeL2(vec)
		rows[b] = vec
	}

	return rows
}
