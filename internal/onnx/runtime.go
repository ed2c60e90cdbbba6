// Package onnx runs BERT-style ONNX models locally: a star-rating sentiment
// classifier and a mean-pooled sentence encoder.
package onnx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ErrRuntimeUnavailable is returned when the ONNX Runtime shared library cannot be loaded.
var ErrRuntimeUnavailable = errors.New("onnx runtime unavailable")

var runtimeEnv struct {
	once sync.Once
	err  error
}

// initRuntime loads the shared library once per process. Later calls return the first result.
func initRuntime(libPath string) error {
	runtimeEnv.once.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}

		if err := ort.InitializeEnvironment(); err != nil {
			runtimeEnv.err = fmt.Errorf("%w: %w", ErrRuntimeUnavailable, err)
		}
	})

	return runtimeEnv.err
}

var requiredInputs = []string{"input_ids", "attention_mask", "token_type_ids"}

// session wraps a DynamicAdvancedSession over a model with BERT inputs and one float output.
type session struct {
	inner      *ort.DynamicAdvancedSession
	outputName string
	outputDims ort.Shape
}

// modelFiles returns the model and vocabulary paths inside a model directory.
func modelFiles(dir string) (modelPath, vocabPath string, err error) {
	modelPath = filepath.Join(dir, "model.onnx")
	vocabPath = filepath.Join(dir, "vocab.txt")

	for _, p := range []string{modelPath, vocabPath} {
		if _, statErr := os.Stat(p); statErr != nil {
			return "", "", fmt.Errorf("onnx: %w", statErr)
		}
	}

	return modelPath, vocabPath, nil
}

func newSession(libPath, modelPath string, outputRank int) (*session, error) {
	if err := initRuntime(libPath); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: read model info: %w", err)
	}

	if err := validateInputs(inputs); err != nil {
		return nil, err
	}

	if len(outputs) == 0 {
		return nil, errors.New("onnx: model has no outputs")
	}

	out := outputs[0]
	if len(out.Dimensions) != outputRank {
		return nil, fmt.Errorf("onnx: expected %dD output tensor, got %v", outputRank, out.Dimensions)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: create session options: %w", err)
	}
	defer func() { _ = opts.Destroy() }()

	if err := opts.SetIntraOpNumThreads(4); err != nil {
		return nil, fmt.Errorf("onnx: set intra-op threads: %w", err)
	}

	if err := opts.SetInterOpNumThreads(1); err != nil {
		return nil, fmt.Errorf("onnx: set inter-op threads: %w", err)
	}

	inner, err := ort.NewDynamicAdvancedSession(modelPath, requiredInputs, []string{out.Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx: create session: %w", err)
	}

	return &session{inner: inner, outputName: out.Name, outputDims: out.Dimensions}, nil
}

func validateInputs(inputs []ort.InputOutputInfo) error {
	present := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		present[in.Name] = true
	}

	for _, name := range requiredInputs {
		if !present[name] {
			return fmt.Errorf("onnx: model missing required input %q", name)
		}
	}

	return nil
}

// run executes one batch. outShape is the full output shape for this batch.
// The returned slice is a copy owned by the caller.
func (s *session) run(batch tokenized, outShape ort.Shape) ([]float32, error) {
	shape := ort.NewShape(batch.batchSize, batch.seqLen)

	ids, err := ort.NewTensor(shape, batch.inputIDs)
	if err != nil {
		return nil, fmt.Errorf("onnx: input_ids tensor: %w", err)
	}
	defer func() { _ = ids.Destroy() }()

	mask, err := ort.NewTensor(shape, batch.attentionMask)
	if err != nil {
		return nil, fmt.Errorf("onnx: attention_mask tensor: %w", err)
	}
	defer func() { _ = mask.Destroy() }()

	types, err := ort.NewTensor(shape, batch.tokenTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("onnx: token_type_ids tensor: %w", err)
	}
	defer func() { _ = types.Destroy() }()

	out, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		return nil, fmt.Errorf("onnx: output tensor: %w", err)
	}
	defer func() { _ = out.Destroy() }()

	if err := s.inner.Run([]ort.Value{ids, mask, types}, []ort.Value{out}); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	src := out.GetData()
	data := make([]float32, len(src))
	copy(data, src)

	return data, nil
}

func (s *session) close() error {
	return s.inner.Destroy()
}
