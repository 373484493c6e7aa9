package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	"yashubustudio/bullyscan/report"
	"yashubustudio/bullyscan/screening"
)

// MockEmbedder is a mock implementation of screening.Embedder for testing.
type MockEmbedder struct {
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)
	ID            string

	mu        sync.Mutex
	CallCount int
	LastText  string
	Closed    bool
}

func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastText = text
	m.mu.Unlock()

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	// Default: a two-value vector derived from the text length
	return []float32{float32(len(text)), 1}, nil
}

func (m *MockEmbedder) ModelID() string {
	if m.ID == "" {
		return "mock-embedder"
	}
	return m.ID
}

func (m *MockEmbedder) Close() error {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
	return nil
}

// MockPredictor is a mock implementation of screening.Predictor.
type MockPredictor struct {
	PredictFunc func(vec []float64) (int, [2]float64, error)
	Dim         int

	mu        sync.Mutex
	CallCount int
}

func (m *MockPredictor) Predict(vec []float64) (int, [2]float64, error) {
	m.mu.Lock()
	m.CallCount++
	m.mu.Unlock()

	if m.PredictFunc != nil {
		return m.PredictFunc(vec)
	}
	// Default: everything is Normal with full confidence
	return screening.ClassNormal, [2]float64{1, 0}, nil
}

func (m *MockPredictor) Dimension() int {
	return m.Dim
}

// ScriptedModel pairs an embedder and a predictor that return fixed
// cyberbullying probabilities per text. Unknown texts fail.
type ScriptedModel struct {
	Embedder  *MockEmbedder
	Predictor *MockPredictor
}

// NewScriptedModel maps each text to the probability that it is cyberbullying.
func NewScriptedModel(cyberbullying map[string]float64) *ScriptedModel {
	ids := make(map[string]int, len(cyberbullying))
	probs := make([]float64, 0, len(cyberbullying))
	for text, p := range cyberbullying {
		ids[text] = len(probs)
		probs = append(probs, p)
	}
	emb := &MockEmbedder{EmbedTextFunc: func(_ context.Context, text string) ([]float32, error) {
		id, ok := ids[text]
		if !ok {
			return nil, fmt.Errorf("unscripted text %q", text)
		}
		return []float32{float32(id)}, nil
	}}
	pred := &MockPredictor{Dim: 1, PredictFunc: func(vec []float64) (int, [2]float64, error) {
		id := int(vec[0])
		if id < 0 || id >= len(probs) {
			return 0, [2]float64{}, errors.New("unknown vector")
		}
		p := probs[id]
		out := [2]float64{1 - p, p}
		if p > 0.5 {
			return screening.ClassCyberbullying, out, nil
		}
		return screening.ClassNormal, out, nil
	}}
	return &ScriptedModel{Embedder: emb, Predictor: pred}
}

// MockSentiment is a mock implementation of screening.SentimentScorer.
type MockSentiment struct {
	SentimentFunc func(ctx context.Context, text string) screening.Sentiment
	IsDegraded    bool

	mu        sync.Mutex
	CallCount int
}

func (m *MockSentiment) Sentiment(ctx context.Context, text string) screening.Sentiment {
	m.mu.Lock()
	m.CallCount++
	m.mu.Unlock()

	if m.SentimentFunc != nil {
		return m.SentimentFunc(ctx, text)
	}
	return screening.Neutral
}

func (m *MockSentiment) Degraded() bool {
	return m.IsDegraded
}

// Calls returns the number of Sentiment calls so far.
func (m *MockSentiment) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// MockRenderer is a mock implementation of report.Renderer. By default it
// returns a small valid PNG for every image.
type MockRenderer struct {
	PieChartFunc  func(title string, slices []report.Slice) ([]byte, error)
	BarChartFunc  func(title, yLabel string, bars []report.Bar) ([]byte, error)
	WordCloudFunc func(terms []screening.TermCount) ([]byte, error)

	mu             sync.Mutex
	PieCalls       int
	BarCalls       int
	WordCloudCalls int
	Bars           [][]report.Bar
}

func (m *MockRenderer) PieChart(title string, slices []report.Slice) ([]byte, error) {
	m.mu.Lock()
	m.PieCalls++
	m.mu.Unlock()
	if m.PieChartFunc != nil {
		return m.PieChartFunc(title, slices)
	}
	return TinyPNG(), nil
}

func (m *MockRenderer) BarChart(title, yLabel string, bars []report.Bar) ([]byte, error) {
	m.mu.Lock()
	m.BarCalls++
	m.Bars = append(m.Bars, bars)
	m.mu.Unlock()
	if m.BarChartFunc != nil {
		return m.BarChartFunc(title, yLabel, bars)
	}
	return TinyPNG(), nil
}

func (m *MockRenderer) WordCloud(terms []screening.TermCount) ([]byte, error) {
	m.mu.Lock()
	m.WordCloudCalls++
	m.mu.Unlock()
	if m.WordCloudFunc != nil {
		return m.WordCloudFunc(terms)
	}
	return TinyPNG(), nil
}

// TinyPNG returns a 4x3 opaque PNG.
func TinyPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// Records wraps texts as comment records.
func Records(texts ...string) []screening.CommentRecord {
	out := make([]screening.CommentRecord, len(texts))
	for i, t := range texts {
		out[i] = screening.CommentRecord{Text: t}
	}
	return out
}

// Table builds a result table with the given labels and confidences.
func Table(texts []string, labels []screening.Label, confidences []float64) screening.ResultTable {
	table := make(screening.ResultTable, len(texts))
	for i, text := range texts {
		a := screening.Assessment{Label: labels[i], Confidence: confidences[i]}
		if labels[i] == screening.LabelError {
			a = screening.Assessment{Label: screening.LabelError, Err: screening.ErrClassification}
		}
		table[i] = screening.AssessmentResult{Index: i, Record: screening.CommentRecord{Text: text}, Assessment: a}
	}
	return table
}
