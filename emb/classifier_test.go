package emb

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestReadLabelsOrdersByID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"id2label": {"2": "3 stars", "0": "1 star", "1": "2 stars"}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	labels, err := readLabels(path)
	if err != nil {
		t.Fatalf("readLabels: %v", err)
	}
	want := []string{"1 star", "2 stars", "3 stars"}
	if len(labels) != len(want) {
		t.Fatalf("got %v, want %v", labels, want)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("labels[%d] = %q, want %q", i, labels[i], want[i])
		}
	}
}

func TestReadLabelsRejectsGaps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"id2label": {"0": "NEG", "2": "POS"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readLabels(path); err == nil {
		t.Fatal("expected error for non-contiguous ids")
	}
}

func TestReadLabelsMissingTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"architectures": ["XLMRobertaModel"]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readLabels(path); err == nil {
		t.Fatal("expected error when id2label is absent")
	}
}

func TestSoftmax(t *testing.T) {
	probs := softmax([]float32{1, 1, 1, 1})
	for _, p := range probs {
		if math.Abs(float64(p)-0.25) > 1e-6 {
			t.Fatalf("uniform logits gave %v", probs)
		}
	}
	probs = softmax([]float32{1000, 0})
	if probs[0] < 0.999 {
		t.Fatalf("large logit not dominant: %v", probs)
	}
	var sum float32
	for _, p := range softmax([]float32{-3, 0.5, 2}) {
		sum += p
	}
	if math.Abs(float64(sum)-1) > 1e-5 {
		t.Fatalf("probabilities sum to %v", sum)
	}
}
