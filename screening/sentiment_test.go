package screening

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"testing"
)

func TestMapSentimentLabel(t *testing.T) {
	tests := []struct {
		label string
		want  Sentiment
	}{
		{"POSITIVE", Positive},
		{"positive", Positive},
		{"LABEL_POSITIVE", Positive},
		{"NEGATIVE", Negative},
		{"neutral", Neutral},
		{"5 stars", Positive},
		{"4 stars", Positive},
		{"3 stars", Neutral},
		{"2 stars", Negative},
		{"1 star", Negative},
		{"4", Positive},
		{"LABEL_0", Neutral},
		{"", Neutral},
	}
	for _, tc := range tests {
		if got := MapSentimentLabel(tc.label); got != tc.want {
			t.Errorf("MapSentimentLabel(%q) = %s, want %s", tc.label, got, tc.want)
		}
	}
}

func TestLexiconSentiment(t *testing.T) {
	l := NewLexiconSentiment()
	ctx := context.Background()
	tests := []struct {
		text string
		want Sentiment
	}{
		{"Ang ganda mo! Great job, I love it", Positive},
		{"tanga ka talaga, so stupid", Negative},
		{"nasa bahay ako ngayon", Neutral},
		{"good but stupid", Neutral},
	}
	for _, tc := range tests {
		if got := l.Sentiment(ctx, tc.text); got != tc.want {
			t.Errorf("Sentiment(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
	if !l.Degraded() {
		t.Fatal("lexicon scorer must report degraded")
	}
}

func TestNewSentimentScorerFallsBack(t *testing.T) {
	var buf strings.Builder
	logger := log.New(&buf, "", 0)
	scorer := NewSentimentScorer(SentimentConfig{ModelDir: filepath.Join(t.TempDir(), "missing")}, "", logger)
	if !scorer.Degraded() {
		t.Fatal("expected degraded scorer when the model directory is missing")
	}
	if !strings.Contains(buf.String(), "[WARN]") {
		t.Fatalf("expected a warning line, got %q", buf.String())
	}

	scorer = NewSentimentScorer(SentimentConfig{Disabled: true}, "", nil)
	if _, ok := scorer.(*LexiconSentiment); !ok {
		t.Fatalf("disabled config returned %T", scorer)
	}
}
