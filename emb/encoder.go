package emb

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sugarme/tokenizer"
	ort "github.com/yalue/onnxruntime_go"
)

// Config describes where the ONNX model and its tokenizer live.
type Config struct {
	OrtLibrary    string
	ModelPath     string
	TokenizerPath string
	MaxSeqLen     int
	// HiddenSize is used when the model reports a dynamic last dimension.
	HiddenSize int
	// OutputName selects the hidden-state output; the first output is used when empty.
	OutputName string
}

// Encoder produces first-token embeddings from a transformer encoder.
type Encoder struct {
	mu      sync.RWMutex
	cfg     Config
	tk      *tokenizer.Tokenizer
	session *ort.DynamicAdvancedSession
	io      sessionIO
	hidden  int
}

// Init loads the tokenizer and creates the inference session.
func (e *Encoder) Init(cfg Config) error {
	if cfg.ModelPath == "" || cfg.TokenizerPath == "" {
		return errors.New("emb: model and tokenizer paths are required")
	}
	if cfg.MaxSeqLen <= 0 {
		cfg.MaxSeqLen = 512
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "last_hidden_state"
	}
	tk, err := loadTokenizer(cfg.TokenizerPath)
	if err != nil {
		return err
	}
	if err := acquireRuntime(cfg.OrtLibrary); err != nil {
		return err
	}
	io, err := inspectModel(cfg.ModelPath, cfg.OutputName)
	if err != nil {
		releaseRuntime()
		return err
	}
	hidden := cfg.HiddenSize
	if n := len(io.outputDims); n == 3 && io.outputDims[2] > 0 {
		hidden = int(io.outputDims[2])
	}
	if hidden <= 0 {
		releaseRuntime()
		return fmt.Errorf("emb: cannot determine hidden size of %s", cfg.ModelPath)
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, io.inputs, []string{io.output}, nil)
	if err != nil {
		releaseRuntime()
		return fmt.Errorf("create session: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
	e.tk = tk
	e.session = session
	e.io = io
	e.hidden = hidden
	return nil
}

// Dimension returns the embedding length.
func (e *Encoder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hidden
}

// Encode returns the final-layer hidden state of the first token.
func (e *Encoder) Encode(text string) ([]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.session == nil {
		return nil, errors.New("emb: encoder is not initialized")
	}
	enc, err := encodeText(e.tk, text, e.cfg.MaxSeqLen)
	if err != nil {
		return nil, err
	}
	inputs, cleanup, err := buildInputs(e.io.inputs, enc)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	seqLen := int64(len(enc.ids))
	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, seqLen, int64(e.hidden)))
	if err != nil {
		return nil, fmt.Errorf("allocate output: %w", err)
	}
	defer out.Destroy()

	if err := e.session.Run(inputs, []ort.Value{out}); err != nil {
		return nil, fmt.Errorf("run encoder: %w", err)
	}
	data := out.GetData()
	if len(data) < e.hidden {
		return nil, fmt.Errorf("encoder output too short: %d", len(data))
	}
	vec := make([]float32, e.hidden)
	copy(vec, data[:e.hidden])
	return vec, nil
}

// Close releases the session and the runtime reference.
func (e *Encoder) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return
	}
	_ = e.session.Destroy()
	e.session = nil
	e.tk = nil
	releaseRuntime()
}
