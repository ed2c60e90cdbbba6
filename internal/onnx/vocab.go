package onnx

import (
	"bufio"
	"fmt"
	"os"
)

// vocab maps WordPiece tokens to ids. The id of a token is its zero-based line number.
type vocab struct {
	ids map[string]int64

	padID int64
	unkID int64
	clsID int64
	sepID int64
}

func loadVocab(path string) (*vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: %w", err)
	}
	defer func() { _ = f.Close() }()

	ids := make(map[string]int64, 32000)

	var next int64

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		ids[scanner.Text()] = next
		next++
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("vocab: read %s: %w", path, err)
	}

	if next == 0 {
		return nil, fmt.Errorf("vocab: file is empty: %s", path)
	}

	v := &vocab{ids: ids}

	for name, dest := range map[string]*int64{
		"[PAD]": &v.padID,
		"[UNK]": &v.unkID,
		"[CLS]": &v.clsID,
		"[SEP]": &v.sepID,
	} {
		id, ok := ids[name]
		if !ok {
			return nil, fmt.Errorf("vocab: missing special token %s", name)
		}

		*dest = id
	}

	return v, nil
}

func (v *vocab) lookup(token string) int64 {
	if id, ok := v.ids[token]; ok {
		return id
	}

	return v.unkID
}

func (v *vocab) contains(token string) bool {
	_, ok := v.ids[token]

	return ok
}

func (v *vocab) size() int {
	return len(v.ids)
}
