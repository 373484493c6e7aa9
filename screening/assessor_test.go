package screening_test

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"testing"

	"yashubustudio/bullyscan/internal/testutil"
	"yashubustudio/bullyscan/screening"
)

func newAssessor(t *testing.T, e screening.Embedder, p screening.Predictor, logger *log.Logger) *screening.Assessor {
	t.Helper()
	a, err := screening.NewAssessor(e, p, logger)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestAssessGoodMorning(t *testing.T) {
	m := testutil.NewScriptedModel(map[string]float64{"Good morning everyone!": 0.07})
	a := newAssessor(t, m.Embedder, m.Predictor, nil)
	got := a.Assess(context.Background(), "Good morning everyone!")
	if !got.OK() || got.Label != screening.LabelNormal || math.Abs(got.Confidence-93) > 1e-9 {
		t.Fatalf("Assess = %+v, want Normal 93", got)
	}
}

func TestAssessMixedLanguage(t *testing.T) {
	m := testutil.NewScriptedModel(map[string]float64{
		"tanga ka":           0.88,
		"hello friend":       0.09,
		"i hate you so much": 0.76,
	})
	a := newAssessor(t, m.Embedder, m.Predictor, nil)
	tests := []struct {
		text  string
		label screening.Label
		conf  float64
	}{
		{"tanga ka", screening.LabelCyberbullying, 88},
		{"hello friend", screening.LabelNormal, 91},
		{"i hate you so much", screening.LabelCyberbullying, 76},
	}
	for _, tc := range tests {
		got := a.Assess(context.Background(), tc.text)
		if got.Label != tc.label || math.Abs(got.Confidence-tc.conf) > 1e-9 {
			t.Errorf("Assess(%q) = %s %.4f, want %s %.1f", tc.text, got.Label, got.Confidence, tc.label, tc.conf)
		}
	}
}

func TestAssessFailuresBecomeErrorRows(t *testing.T) {
	var buf strings.Builder
	logger := log.New(&buf, "", 0)
	long := strings.Repeat("abcdefghij", 8)
	emb := &testutil.MockEmbedder{EmbedTextFunc: func(_ context.Context, text string) ([]float32, error) {
		return nil, errors.New("runtime exploded")
	}}
	a := newAssessor(t, emb, &testutil.MockPredictor{}, logger)

	got := a.Assess(context.Background(), long)
	if got.OK() || got.Label != screening.LabelError || got.Confidence != 0 {
		t.Fatalf("Assess = %+v, want Error row", got)
	}
	if !errors.Is(got.Err, screening.ErrClassification) {
		t.Fatalf("Err = %v, want ErrClassification", got.Err)
	}
	out := buf.String()
	if !strings.Contains(out, "[ERROR]") || !strings.Contains(out, long[:50]) || strings.Contains(out, long[:51]) {
		t.Fatalf("log line should carry the first 50 characters: %q", out)
	}
}

func TestAssessRecoversPanics(t *testing.T) {
	pred := &testutil.MockPredictor{PredictFunc: func([]float64) (int, [2]float64, error) {
		panic("index out of range")
	}}
	a := newAssessor(t, &testutil.MockEmbedder{}, pred, nil)
	if got := a.Assess(context.Background(), "anything"); got.Label != screening.LabelError {
		t.Fatalf("Assess = %+v", got)
	}
}

func TestAssessEmptyAndOutOfRange(t *testing.T) {
	emb := &testutil.MockEmbedder{}
	a := newAssessor(t, emb, &testutil.MockPredictor{}, nil)
	if got := a.Assess(context.Background(), "   "); got.Label != screening.LabelError {
		t.Fatalf("empty text: %+v", got)
	}
	if emb.CallCount != 0 {
		t.Fatal("empty text must not reach the embedder")
	}

	bad := &testutil.MockPredictor{PredictFunc: func([]float64) (int, [2]float64, error) {
		return screening.ClassNormal, [2]float64{1.5, -0.5}, nil
	}}
	a = newAssessor(t, emb, bad, nil)
	if got := a.Assess(context.Background(), "x"); got.Label != screening.LabelError {
		t.Fatalf("out of range confidence: %+v", got)
	}
}

func TestAssessConfidenceRange(t *testing.T) {
	a := newAssessor(t, &testutil.MockEmbedder{}, &testutil.MockPredictor{PredictFunc: func(vec []float64) (int, [2]float64, error) {
		p := math.Mod(vec[0], 10) / 10
		if p > 0.5 {
			return screening.ClassCyberbullying, [2]float64{1 - p, p}, nil
		}
		return screening.ClassNormal, [2]float64{1 - p, p}, nil
	}}, nil)
	for _, text := range []string{"a", "ab", "abcdefg", "tanga ka talaga", "😀", strings.Repeat("x", 1000)} {
		got := a.Assess(context.Background(), text)
		if got.Confidence < 0 || got.Confidence > 100 {
			t.Errorf("confidence %f out of range for %q", got.Confidence, text)
		}
		switch got.Label {
		case screening.LabelNormal, screening.LabelCyberbullying, screening.LabelError:
		default:
			t.Errorf("unexpected label %q", got.Label)
		}
	}
}

func TestAssessRejectsNaNProbability(t *testing.T) {
	nan := &testutil.MockPredictor{PredictFunc: func([]float64) (int, [2]float64, error) {
		return screening.ClassCyberbullying, [2]float64{0.2, math.NaN()}, nil
	}}
	a := newAssessor(t, &testutil.MockEmbedder{}, nan, nil)
	got := a.Assess(context.Background(), "bobo")
	if got.Label != screening.LabelError || got.Confidence != 0 || !errors.Is(got.Err, screening.ErrClassification) {
		t.Fatalf("NaN probability: %+v", got)
	}
}
