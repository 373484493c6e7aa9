package screening

import "errors"

var (
	// ErrModelLoad reports that the embedding model or classifier artifact
	// could not be loaded. It is fatal to the pipeline.
	ErrModelLoad = errors.New("model load failed")
	// ErrNoProbability reports a classifier artifact that cannot produce
	// class probabilities.
	ErrNoProbability = errors.New("classifier does not expose class probabilities")
	// ErrClassification wraps a single-comment failure.
	ErrClassification = errors.New("classification failed")
	// ErrCancelled is returned when the caller's context ends mid-operation.
	ErrCancelled = errors.New("cancelled")
)
