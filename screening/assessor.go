package screening

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
)

// diagnosticPrefixLen is how much of a failing comment is written to the log.
const diagnosticPrefixLen = 50

// Assessor classifies one comment at a time.
type Assessor struct {
	embedder  Embedder
	predictor Predictor
	logger    *log.Logger
}

// NewAssessor composes an embedder and a predictor.
func NewAssessor(embedder Embedder, predictor Predictor, logger *log.Logger) (*Assessor, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if predictor == nil {
		return nil, errors.New("predictor is required")
	}
	return &Assessor{embedder: embedder, predictor: predictor, logger: logger}, nil
}

// Assess returns the label and confidence for text. It never fails: errors,
// including panics from the underlying runtime, produce an Error assessment
// and a diagnostic log line.
func (a *Assessor) Assess(ctx context.Context, text string) (res Assessment) {
	defer func() {
		if r := recover(); r != nil {
			res = a.failed(text, fmt.Errorf("panic: %v", r))
		}
	}()
	if strings.TrimSpace(text) == "" {
		return a.failed(text, errors.New("empty comment"))
	}
	vec, err := a.embedder.EmbedText(ctx, text)
	if err != nil {
		return a.failed(text, fmt.Errorf("embed: %w", err))
	}
	idx, probs, err := a.predictor.Predict(toFloat64(vec))
	if err != nil {
		return a.failed(text, fmt.Errorf("predict: %w", err))
	}
	label := LabelNormal
	if idx == ClassCyberbullying {
		label = LabelCyberbullying
	}
	confidence := 100 * max(probs[0], probs[1])
	if math.IsNaN(confidence) || confidence < 0 || confidence > 100 {
		return a.failed(text, fmt.Errorf("confidence %.2f out of range", confidence))
	}
	return Assessment{Label: label, Confidence: confidence}
}

func (a *Assessor) failed(text string, err error) Assessment {
	logf(a.logger, "[ERROR] classification failed for %q: %v", truncateRunes(text, diagnosticPrefixLen), err)
	return Assessment{
		Label:      LabelError,
		Confidence: 0,
		Err:        fmt.Errorf("%w: %w", ErrClassification, err),
	}
}
