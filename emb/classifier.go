package emb

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/sugarme/tokenizer"
	ort "github.com/yalue/onnxruntime_go"
)

// ClassifierConfig points at a sequence-classification checkpoint.
type ClassifierConfig struct {
	OrtLibrary    string
	ModelPath     string
	TokenizerPath string
	// LabelsPath is the HuggingFace config.json holding id2label.
	LabelsPath string
	MaxSeqLen  int
}

// Prediction is the argmax label of a SequenceClassifier together with the
// softmax over all labels.
type Prediction struct {
	Label         string
	Index         int
	Probabilities []float32
}

// SequenceClassifier runs a text classification head.
type SequenceClassifier struct {
	mu      sync.RWMutex
	cfg     ClassifierConfig
	tk      *tokenizer.Tokenizer
	session *ort.DynamicAdvancedSession
	io      sessionIO
	labels  []string
}

// NewSequenceClassifier loads the tokenizer, label table and session.
func NewSequenceClassifier(cfg ClassifierConfig) (*SequenceClassifier, error) {
	if cfg.ModelPath == "" || cfg.TokenizerPath == "" {
		return nil, errors.New("emb: model and tokenizer paths are required")
	}
	if cfg.MaxSeqLen <= 0 {
		cfg.MaxSeqLen = 512
	}
	labels, err := readLabels(cfg.LabelsPath)
	if err != nil {
		return nil, err
	}
	tk, err := loadTokenizer(cfg.TokenizerPath)
	if err != nil {
		return nil, err
	}
	if err := acquireRuntime(cfg.OrtLibrary); err != nil {
		return nil, err
	}
	io, err := inspectModel(cfg.ModelPath, "logits")
	if err != nil {
		releaseRuntime()
		return nil, err
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, io.inputs, []string{io.output}, nil)
	if err != nil {
		releaseRuntime()
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &SequenceClassifier{cfg: cfg, tk: tk, session: session, io: io, labels: labels}, nil
}

// Labels returns the id2label table in index order.
func (c *SequenceClassifier) Labels() []string {
	return append([]string(nil), c.labels...)
}

// Classify returns the most likely label for text.
func (c *SequenceClassifier) Classify(text string) (Prediction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return Prediction{}, errors.New("emb: classifier is closed")
	}
	enc, err := encodeText(c.tk, text, c.cfg.MaxSeqLen)
	if err != nil {
		return Prediction{}, err
	}
	inputs, cleanup, err := buildInputs(c.io.inputs, enc)
	if err != nil {
		return Prediction{}, err
	}
	defer cleanup()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(c.labels))))
	if err != nil {
		return Prediction{}, fmt.Errorf("allocate output: %w", err)
	}
	defer out.Destroy()
	if err := c.session.Run(inputs, []ort.Value{out}); err != nil {
		return Prediction{}, fmt.Errorf("run classifier: %w", err)
	}
	probs := softmax(out.GetData())
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return Prediction{Label: c.labels[best], Index: best, Probabilities: probs}, nil
}

// Close releases the session.
func (c *SequenceClassifier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return
	}
	_ = c.session.Destroy()
	c.session = nil
	releaseRuntime()
}

func readLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	var cfg struct {
		ID2Label map[string]string `json:"id2label"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	if len(cfg.ID2Label) == 0 {
		return nil, fmt.Errorf("%s has no id2label table", path)
	}
	ids := make([]int, 0, len(cfg.ID2Label))
	for k := range cfg.ID2Label {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("label id %q: %w", k, err)
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	labels := make([]string, len(ids))
	for i, id := range ids {
		if id != i {
			return nil, fmt.Errorf("label ids are not contiguous at %d", i)
		}
		labels[i] = cfg.ID2Label[strconv.Itoa(id)]
	}
	return labels, nil
}

func softmax(logits []float32) []float32 {
	out := make([]float32, len(logits))
	if len(logits) == 0 {
		return out
	}
	maxV := logits[0]
	for _, v := range logits[1:] {
		if v > maxV {
			maxV = v
		}
	}
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v - maxV))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}
