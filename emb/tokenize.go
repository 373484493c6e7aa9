package emb

import (
	"errors"
	"fmt"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

type encodedText struct {
	ids     []int64
	mask    []int64
	typeIDs []int64
}

func loadTokenizer(path string) (*tokenizer.Tokenizer, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", path, err)
	}
	return tk, nil
}

// encodeText tokenises with special tokens and right-truncates to maxLen,
// keeping the closing special token so the sequence stays well formed.
func encodeText(tk *tokenizer.Tokenizer, text string, maxLen int) (encodedText, error) {
	en, err := tk.EncodeSingle(text, true)
	if err != nil {
		return encodedText{}, fmt.Errorf("tokenize: %w", err)
	}
	if len(en.Ids) == 0 {
		return encodedText{}, errors.New("tokenizer produced no tokens")
	}
	ids := en.Ids
	mask := en.AttentionMask
	types := en.TypeIds
	if len(mask) != len(ids) {
		mask = ones(len(ids))
	}
	if len(types) != len(ids) {
		types = make([]int, len(ids))
	}
	if maxLen > 1 && len(ids) > maxLen {
		last := len(ids) - 1
		ids = append(append([]int(nil), ids[:maxLen-1]...), ids[last])
		mask = append(append([]int(nil), mask[:maxLen-1]...), mask[last])
		types = append(append([]int(nil), types[:maxLen-1]...), types[last])
	}
	return encodedText{
		ids:     toInt64(ids),
		mask:    toInt64(mask),
		typeIDs: toInt64(types),
	}, nil
}

func ones(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func toInt64(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}
