package onnx

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxWordRunes is the longest word WordPiece tries to split before emitting [UNK].
const maxWordRunes = 200

// tokenized is a batch of flat [batchSize*seqLen] model inputs.
type tokenized struct {
	inputIDs      []int64
	attentionMask []int64
	tokenTypeIDs  []int64
	batchSize     int64
	seqLen        int64
}

// tokenizer is an uncased BERT WordPiece tokenizer.
type tokenizer struct {
	vocab     *vocab
	maxSeqLen int
}

func newTokenizer(vocabPath string, maxSeqLen int) (*tokenizer, error) {
	v, err := loadVocab(vocabPath)
	if err != nil {
		return nil, err
	}

	return &tokenizer{vocab: v, maxSeqLen: maxSeqLen}, nil
}

// encode returns [CLS] tokens... [SEP], truncated so the whole sequence fits maxSeqLen.
func (t *tokenizer) encode(text string) []int64 {
	var pieces []string
	for _, word := range basicTokenize(text) {
		pieces = append(pieces, t.wordpiece(word)...)
	}

	if limit := t.maxSeqLen - 2; len(pieces) > limit {
		pieces = pieces[:limit]
	}

	ids := make([]int64, 0, len(pieces)+2)
	ids = append(ids, t.vocab.clsID)

	for _, p := range pieces {
		ids = append(ids, t.vocab.lookup(p))
	}

	return append(ids, t.vocab.sepID)
}

// encodeBatch pads every sequence to the longest one in the batch.
func (t *tokenizer) encodeBatch(texts []string) tokenized {
	if len(texts) == 0 {
		return tokenized{}
	}

	seqs := make([][]int64, len(texts))
	longest := 0

	for i, text := range texts {
		seqs[i] = t.encode(text)
		longest = max(longest, len(seqs[i]))
	}

	total := len(texts) * longest
	out := tokenized{
		inputIDs:      make([]int64, total),
		attentionMask: make([]int64, total),
		tokenTypeIDs:  make([]int64, total),
		batchSize:     int64(len(texts)),
		seqLen:        int64(longest),
	}

	for i, seq := range seqs {
		row := i * longest
		for j := range longest {
			if j < len(seq) {
				out.inputIDs[row+j] = seq[j]
				out.attentionMask[row+j] = 1
			} else {
				out.inputIDs[row+j] = t.vocab.padID
			}
		}
	}

	return out
}

// wordpiece splits one basic token greedily into the longest known subwords.
func (t *tokenizer) wordpiece(word string) []string {
	runes := []rune(word)
	if len(runes) > maxWordRunes {
		return []string{"[UNK]"}
	}

	var pieces []string

	for start := 0; start < len(runes); {
		end := len(runes)
		match := ""

		for ; end > start; end-- {
			candidate := string(runes[start:end])
			if start > 0 {
				candidate = "##" + candidate
			}

			if t.vocab.contains(candidate) {
				match = candidate

				break
			}
		}

		if match == "" {
			return []string{"[UNK]"}
		}

		pieces = append(pieces, match)
		start = end
	}

	return pieces
}

// basicTokenize cleans, lowercases and strips accents, then splits on whitespace,
// punctuation and CJK ideographs.
func basicTokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		switch {
		case r == 0 || r == unicode.ReplacementChar || isControl(r):
			continue
		case isWhitespace(r):
			b.WriteRune(' ')
		case isCJK(r):
			b.WriteRune(' ')
			b.WriteRune(r)
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}

	cleaned := stripAccents(strings.ToLower(b.String()))

	var tokens []string
	for _, field := range strings.Fields(cleaned) {
		tokens = append(tokens, splitOnPunctuation(field)...)
	}

	return tokens
}

func stripAccents(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range norm.NFD.String(text) {
		if !unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		}
	}

	return b.String()
}

func splitOnPunctuation(word string) []string {
	var (
		tokens  []string
		current strings.Builder
	)

	for _, r := range word {
		if !isPunctuation(r) {
			current.WriteRune(r)

			continue
		}

		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}

		tokens = append(tokens, string(r))
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}

	return unicode.IsControl(r)
}

// isPunctuation treats every non-alphanumeric ASCII symbol as punctuation, like BERT.
func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}

	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0x2A700 && r <= 0x2CEAF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x2F800 && r <= 0x2FA1F)
}
