package onnx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ids: [PAD]=0 [UNK]=1 [CLS]=2 [SEP]=3 then the words below from 4.
var testVocab = []string{
	"[PAD]", "[UNK]", "[CLS]", "[SEP]",
	"the", "policy", "is", "un", "##clear", "cafe", ",", "!", "data", "##set", "中",
}

func writeVocab(t *testing.T, tokens []string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "vocab.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(tokens, "\n")+"\n"), 0o600))

	return path
}

func newTestTokenizer(t *testing.T, maxSeqLen int) *tokenizer {
	t.Helper()

	tok, err := newTokenizer(writeVocab(t, testVocab), maxSeqLen)
	require.NoError(t, err)

	return tok
}

func TestLoadVocab(t *testing.T) {
	t.Run("resolves special tokens", func(t *testing.T) {
		v, err := loadVocab(writeVocab(t, testVocab))
		require.NoError(t, err)

		assert.Equal(t, len(testVocab), v.size())
		assert.Equal(t, int64(0), v.padID)
		assert.Equal(t, int64(1), v.unkID)
		assert.Equal(t, int64(2), v.clsID)
		assert.Equal(t, int64(3), v.sepID)
		assert.Equal(t, int64(1), v.lookup("missing"))
	})

	t.Run("missing special token", func(t *testing.T) {
		_, err := loadVocab(writeVocab(t, []string{"[PAD]", "[UNK]", "[CLS]"}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "[SEP]")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadVocab(filepath.Join(t.TempDir(), "nope.txt"))
		require.Error(t, err)
	})
}

func TestTokenizer_Encode(t *testing.T) {
	tok := newTestTokenizer(t, 16)

	tests := []struct {
		name string
		text string
		want []int64
	}{
		{name: "empty", text: "", want: []int64{2, 3}},
		{name: "lowercases", text: "The Policy", want: []int64{2, 4, 5, 3}},
		{name: "wordpiece continuation", text: "unclear dataset", want: []int64{2, 7, 8, 12, 13, 3}},
		{name: "punctuation split", text: "policy, is!", want: []int64{2, 5, 10, 6, 11, 3}},
		{name: "accents stripped", text: "Café", want: []int64{2, 9, 3}},
		{name: "unknown word", text: "zebra", want: []int64{2, 1, 3}},
		{name: "cjk isolated", text: "the中", want: []int64{2, 4, 14, 3}},
		{name: "control characters dropped", text: "the\x07policy", want: []int64{2, 1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tok.encode(tt.text))
		})
	}
}

func TestTokenizer_EncodeTruncates(t *testing.T) {
	tok := newTestTokenizer(t, 4)

	assert.Equal(t, []int64{2, 4, 5, 3}, tok.encode("the policy is unclear"))
}

func TestTokenizer_EncodeBatch(t *testing.T) {
	tok := newTestTokenizer(t, 16)

	batch := tok.encodeBatch([]string{"the", "the policy is"})

	assert.Equal(t, int64(2), batch.batchSize)
	assert.Equal(t, int64(5), batch.seqLen)
	assert.Equal(t, []int64{2, 4, 3, 0, 0, 2, 4, 5, 6, 3}, batch.inputIDs)
	assert.Equal(t, []int64{1, 1, 1, 0, 0, 1, 1, 1, 1, 1}, batch.attentionMask)
	assert.Equal(t, make([]int64, 10), batch.tokenTypeIDs)

	assert.Equal(t, tokenized{}, tok.encodeBatch(nil))
}

func TestMeanPool(t *testing.T) {
	batch := tokenized{
		attentionMask: []int64{1, 1, 0},
		batchSize:     1,
		seqLen:        3,
	}
	hidden := []float32{
		3, 0,
		3, 8,
		100, 100,
	}

	rows := meanPool(hidden, batch, 2)

	require.Len(t, rows, 1)
	assert.InDelta(t, 0.6, rows[0][0], 1e-9)
	assert.InDelta(t, 0.8, rows[0][1], 1e-9)
}

func TestArgmax(t *testing.T) {
	idx, err := argmax([]float32{0.1, 2.5, -1, 2.4, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = argmax(nil)
	require.Error(t, err)
}
