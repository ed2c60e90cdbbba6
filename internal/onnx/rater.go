package onnx

import (
	"context"
	"errors"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// sentimentMaxSeqLen bounds the rating model input.
const sentimentMaxSeqLen = 256

// StarRater runs a five-class star rating model (logits shaped [batch, classes]).
type StarRater struct {
	session *session
	tok     *tokenizer
	classes int64
}

// NewStarRater loads model.onnx and vocab.txt from modelDir.
func NewStarRater(libPath, modelDir string) (*StarRater, error) {
	modelPath, vocabPath, err := modelFiles(modelDir)
	if err != nil {
		return nil, err
	}

	sess, err := newSession(libPath, modelPath, 2)
	if err != nil {
		return nil, err
	}

	classes := sess.outputDims[1]
	if classes <= 0 {
		_ = sess.close()

		return nil, fmt.Errorf("onnx: rating model has dynamic class dimension %v", sess.outputDims)
	}

	tok, err := newTokenizer(vocabPath, sentimentMaxSeqLen)
	if err != nil {
		_ = sess.close()

		return nil, err
	}

	return &StarRater{session: sess, tok: tok, classes: classes}, nil
}

// Rate returns the zero-based index of the highest scoring class.
func (r *StarRater) Rate(ctx context.Context, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	batch := r.tok.encodeBatch([]string{text})

	logits, err := r.session.run(batch, ort.NewShape(batch.batchSize, r.classes))
	if err != nil {
		return 0, err
	}

	return argmax(logits)
}

// Close releases the session.
func (r *StarRater) Close() error {
	return r.session.close()
}

func argmax(values []float32) (int, error) {
	if len(values) == 0 {
		return 0, errors.New("onnx: empty logits")
	}

	best := 0
	for i, v := range values[1:] {
		if v > values[best] {
			best = i + 1
		}
	}

	return best, nil
}
