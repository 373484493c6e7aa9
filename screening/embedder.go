package screening

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"yashubustudio/bullyscan/emb"
)

// Embedder exposes the minimal surface required by the assessor.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	Close() error
	ModelID() string
}

// encoder is the part of emb.Encoder the embedder relies on.
type encoder interface {
	Encode(text string) ([]float32, error)
	Close()
}

// OrtEmbedder is a thin wrapper over emb.Encoder with caching.
type OrtEmbedder struct {
	enc      encoder
	cfg      EmbedderConfig
	modelID  string
	logger   *log.Logger
	memCache map[string][]float32
	mu       sync.RWMutex
}

// checkpoint is one candidate location for the encoder weights.
type checkpoint struct {
	id  string
	dir string
}

// openEncoder loads the encoder stored in dir.
var openEncoder = openCheckpoint

// NewOrtEmbedder loads the fine-tuned checkpoint from cfg.LocalDir, falling
// back to the base checkpoint in cfg.BaseDir. The path that succeeded is
// logged. When neither loads the error wraps ErrModelLoad.
func NewOrtEmbedder(cfg EmbedderConfig, logger *log.Logger) (*OrtEmbedder, error) {
	if cfg.CacheDir != "" {
		if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	candidates := []checkpoint{
		{id: "local:" + filepath.Base(filepath.Clean(cfg.LocalDir)), dir: cfg.LocalDir},
		{id: cfg.BaseModel, dir: cfg.BaseDir},
	}
	var errs []error
	for _, cp := range candidates {
		if cp.dir == "" {
			continue
		}
		enc, err := openEncoder(cfg, cp.dir)
		if err != nil {
			logf(logger, "[WARN] embedding model %s not loaded from %s: %v", cp.id, cp.dir, err)
			errs = append(errs, fmt.Errorf("%s: %w", cp.dir, err))
			continue
		}
		logf(logger, "embedding model loaded: %s (%s)", cp.id, cp.dir)
		o := newOrtEmbedder(enc, cfg, cp.id)
		o.logger = logger
		return o, nil
	}
	if len(errs) == 0 {
		errs = append(errs, errors.New("no checkpoint directory configured"))
	}
	return nil, fmt.Errorf("%w: embedding model: %w", ErrModelLoad, errors.Join(errs...))
}

func openCheckpoint(cfg EmbedderConfig, dir string) (encoder, error) {
	modelPath := filepath.Join(dir, "model.onnx")
	tokenizerPath := filepath.Join(dir, "tokenizer.json")
	for _, p := range []string{tokenizerPath, modelPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, err
		}
	}
	enc := &emb.Encoder{}
	if err := enc.Init(emb.Config{
		OrtLibrary:    cfg.OrtLibrary,
		ModelPath:     modelPath,
		TokenizerPath: tokenizerPath,
		MaxSeqLen:     cfg.MaxSeqLen,
		HiddenSize:    cfg.HiddenSize,
		OutputName:    cfg.OutputName,
	}); err != nil {
		return nil, err
	}
	return enc, nil
}

func newOrtEmbedder(enc encoder, cfg EmbedderConfig, modelID string) *OrtEmbedder {
	return &OrtEmbedder{
		enc:      enc,
		cfg:      cfg,
		modelID:  modelID,
		memCache: make(map[string][]float32),
	}
}

// Close releases ORT resources.
func (o *OrtEmbedder) Close() error {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.enc != nil {
		o.enc.Close()
		o.enc = nil
	}
	o.memCache = nil
	return nil
}

// ModelID returns the identifier of the checkpoint that was loaded.
func (o *OrtEmbedder) ModelID() string {
	return o.modelID
}

// EmbedText embeds a single comment. Vectors are looked up in memory, then
// in CacheDir, before the encoder runs. A failed cache write is logged and
// does not fail the call.
func (o *OrtEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.mu.RLock()
	enc := o.enc
	o.mu.RUnlock()
	if enc == nil {
		return nil, errors.New("embedder is not initialized")
	}
	cleaned := CleanInput(text)
	key := o.cacheKey(cleaned)
	if vec, ok := o.cached(key); ok {
		return vec, nil
	}
	if vec, err := o.readVector(key); err == nil {
		o.remember(key, vec)
		return vec, nil
	}
	vec, err := enc.Encode(cleaned)
	if err != nil {
		return nil, err
	}
	o.remember(key, vec)
	if err := o.writeVector(key, vec); err != nil {
		logf(o.logger, "[WARN] embedding cache write failed: %v", err)
	}
	return slices.Clone(vec), nil
}

// cacheKey is the hex sha1 of the model id and the cleaned text, so vectors
// from different checkpoints never mix.
func (o *OrtEmbedder) cacheKey(text string) string {
	sum := sha1.Sum([]byte(o.modelID + "|" + text))
	return hex.EncodeToString(sum[:])
}

func (o *OrtEmbedder) cached(key string) ([]float32, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	vec, ok := o.memCache[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(vec), true
}

func (o *OrtEmbedder) remember(key string, vec []float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.memCache != nil {
		o.memCache[key] = slices.Clone(vec)
	}
}

func (o *OrtEmbedder) vectorPath(key string) string {
	return filepath.Join(o.cfg.CacheDir, key+".bin")
}

// readVector loads a vector written by writeVector: a little-endian uint32
// length followed by that many float32 values.
func (o *OrtEmbedder) readVector(key string) ([]float32, error) {
	if o.cfg.CacheDir == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(o.vectorPath(key))
	if err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("embedding cache %s: truncated header", key)
	}
	n := binary.LittleEndian.Uint32(data)
	if uint64(len(data)-4) != uint64(n)*4 {
		return nil, fmt.Errorf("embedding cache %s: want %d values, have %d bytes", key, n, len(data)-4)
	}
	vec := make([]float32, n)
	if _, err := binary.Decode(data[4:], binary.LittleEndian, vec); err != nil {
		return nil, fmt.Errorf("embedding cache %s: %w", key, err)
	}
	return vec, nil
}

func (o *OrtEmbedder) writeVector(key string, vec []float32) error {
	if o.cfg.CacheDir == "" {
		return nil
	}
	buf := binary.LittleEndian.AppendUint32(make([]byte, 0, 4+4*len(vec)), uint32(len(vec)))
	buf, err := binary.Append(buf, binary.LittleEndian, vec)
	if err != nil {
		return err
	}
	path := o.vectorPath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func logf(logger *log.Logger, format string, args ...any) {
	if logger != nil {
		logger.Printf(format, args...)
	}
}
