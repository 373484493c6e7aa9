package screening

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
)

// Registry owns the loaded models for the lifetime of the process. Models
// are loaded once, on first use, and are read-only afterwards.
type Registry struct {
	cfg    Config
	logger *log.Logger

	embedder  Embedder
	predictor Predictor
	scorer    SentimentScorer

	mu       sync.Mutex
	loaded   bool
	initErr  error
	service  *Service
	analyzer *Analyzer
	closers  []io.Closer
}

// RegistryOption overrides one of the models the registry would load.
type RegistryOption func(*Registry)

// WithEmbedder injects an embedder instead of loading the ONNX checkpoint.
func WithEmbedder(e Embedder) RegistryOption {
	return func(r *Registry) { r.embedder = e }
}

// WithPredictor injects a classifier instead of reading Classifier.Path.
func WithPredictor(p Predictor) RegistryOption {
	return func(r *Registry) { r.predictor = p }
}

// WithSentimentScorer injects a sentiment scorer.
func WithSentimentScorer(s SentimentScorer) RegistryOption {
	return func(r *Registry) { r.scorer = s }
}

// NewRegistry prepares a registry. Nothing is loaded until Init or the
// first accessor call.
func NewRegistry(cfg Config, logger *log.Logger, opts ...RegistryOption) *Registry {
	cfg = cfg.Clone()
	cfg.ApplyDefaults()
	r := &Registry{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Init loads every model that was not injected. A load error is kept and
// returned by later calls; a cancelled call leaves the registry unloaded so
// the next call can try again.
func (r *Registry) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return r.initErr
	}
	err := r.load(ctx)
	if errors.Is(err, ErrCancelled) {
		return err
	}
	r.loaded = true
	r.initErr = err
	return err
}

func (r *Registry) load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	if r.embedder == nil {
		e, err := NewOrtEmbedder(r.cfg.Embedder, r.logger)
		if err != nil {
			return err
		}
		r.embedder = e
		r.closers = append(r.closers, e)
	}
	if r.predictor == nil {
		clf, err := LoadLinearClassifier(r.cfg.Classifier.Path)
		if err != nil {
			return err
		}
		logf(r.logger, "classifier loaded: %s (%s, dim=%d)", r.cfg.Classifier.Path, clf.art.Kind, clf.Dimension())
		r.predictor = clf
	}
	if r.scorer == nil {
		r.scorer = NewSentimentScorer(r.cfg.Sentiment, r.cfg.Embedder.OrtLibrary, r.logger)
		if c, ok := r.scorer.(io.Closer); ok {
			r.closers = append(r.closers, c)
		}
	}
	assessor, err := NewAssessor(r.embedder, r.predictor, r.logger)
	if err != nil {
		return err
	}
	if r.service, err = NewService(assessor, r.logger); err != nil {
		return err
	}
	if r.analyzer, err = NewAnalyzer(r.scorer, r.cfg.Sentiment, r.logger); err != nil {
		return err
	}
	return nil
}

// Service returns the batch service, loading models if needed.
func (r *Registry) Service(ctx context.Context) (*Service, error) {
	if err := r.Init(ctx); err != nil {
		return nil, err
	}
	return r.service, nil
}

// Analyzer returns the analytics engine, loading models if needed.
func (r *Registry) Analyzer(ctx context.Context) (*Analyzer, error) {
	if err := r.Init(ctx); err != nil {
		return nil, err
	}
	return r.analyzer, nil
}

// ModelID reports the embedding checkpoint in use, or "" until a
// successful Init.
func (r *Registry) ModelID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded || r.initErr != nil {
		return ""
	}
	return r.embedder.ModelID()
}

// SentimentDegraded reports whether analytics run on the lexicon fallback.
func (r *Registry) SentimentDegraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded && r.initErr == nil && r.scorer.Degraded()
}

// Config returns a copy of the effective configuration.
func (r *Registry) Config() Config {
	return r.cfg.Clone()
}

// Close releases the models the registry loaded itself. Injected models
// belong to the caller.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
