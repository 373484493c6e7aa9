package screening

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
)

// Class indices used by every Predictor.
const (
	ClassNormal        = 0
	ClassCyberbullying = 1
)

// Predictor maps an embedding to a class index and the probabilities of
// {Normal, Cyberbullying}.
type Predictor interface {
	Predict(vec []float64) (int, [2]float64, error)
	Dimension() int
}

// Model kinds accepted in the classifier artifact.
const (
	KindLogisticRegression = "logistic_regression"
	KindLinearSVC          = "linear_svc"
)

// LinearArtifact is the on-disk form of the trained classifier.
type LinearArtifact struct {
	Kind      string      `json:"kind"`
	Classes   []string    `json:"classes"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
	// Calibration holds Platt scaling parameters, p = 1/(1+exp(a*f+b)).
	// Margin classifiers without it cannot report probabilities.
	Calibration *PlattScaling `json:"calibration,omitempty"`
}

// PlattScaling parameters for a margin classifier.
type PlattScaling struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// LinearClassifier is a binary or two-row multinomial linear model.
type LinearClassifier struct {
	art LinearArtifact
	dim int
}

// LoadLinearClassifier reads and validates the artifact at path. Load
// failures wrap ErrModelLoad; a model that cannot produce probabilities
// wraps ErrNoProbability as well.
func LoadLinearClassifier(path string) (*LinearClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read classifier: %w", ErrModelLoad, err)
	}
	var art LinearArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("%w: decode classifier: %w", ErrModelLoad, err)
	}
	clf, err := NewLinearClassifier(art)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelLoad, path, err)
	}
	return clf, nil
}

// NewLinearClassifier validates art.
func NewLinearClassifier(art LinearArtifact) (*LinearClassifier, error) {
	if art.Kind == "" {
		art.Kind = KindLogisticRegression
	}
	switch art.Kind {
	case KindLogisticRegression:
	case KindLinearSVC:
		if art.Calibration == nil {
			return nil, ErrNoProbability
		}
	default:
		return nil, fmt.Errorf("unsupported classifier kind %q", art.Kind)
	}
	if len(art.Classes) != 0 {
		if len(art.Classes) != 2 || Label(art.Classes[ClassNormal]) != LabelNormal || Label(art.Classes[ClassCyberbullying]) != LabelCyberbullying {
			return nil, fmt.Errorf("classes must be [%s %s], got %v", LabelNormal, LabelCyberbullying, art.Classes)
		}
	}
	rows := len(art.Coef)
	if rows != 1 && rows != 2 {
		return nil, fmt.Errorf("coef must have 1 or 2 rows, got %d", rows)
	}
	if len(art.Intercept) != rows {
		return nil, fmt.Errorf("intercept has %d values for %d coef rows", len(art.Intercept), rows)
	}
	if rows == 2 && art.Kind == KindLinearSVC {
		return nil, fmt.Errorf("%s supports a single decision row", KindLinearSVC)
	}
	dim := len(art.Coef[0])
	if dim == 0 {
		return nil, fmt.Errorf("coef rows are empty")
	}
	for i, row := range art.Coef {
		if len(row) != dim {
			return nil, fmt.Errorf("coef row %d has %d values, want %d", i, len(row), dim)
		}
	}
	return &LinearClassifier{art: art, dim: dim}, nil
}

// Dimension returns the expected embedding length.
func (c *LinearClassifier) Dimension() int {
	return c.dim
}

// Predict returns the argmax class and the class probabilities.
func (c *LinearClassifier) Predict(vec []float64) (int, [2]float64, error) {
	var probs [2]float64
	if len(vec) != c.dim {
		return 0, probs, fmt.Errorf("embedding has %d dimensions, classifier expects %d", len(vec), c.dim)
	}
	if len(c.art.Coef) == 2 {
		z0 := floats.Dot(c.art.Coef[0], vec) + c.art.Intercept[0]
		z1 := floats.Dot(c.art.Coef[1], vec) + c.art.Intercept[1]
		m := math.Max(z0, z1)
		e0, e1 := math.Exp(z0-m), math.Exp(z1-m)
		probs[0], probs[1] = e0/(e0+e1), e1/(e0+e1)
	} else {
		f := floats.Dot(c.art.Coef[0], vec) + c.art.Intercept[0]
		var p1 float64
		if c.art.Kind == KindLinearSVC {
			p1 = sigmoid(-(c.art.Calibration.A*f + c.art.Calibration.B))
		} else {
			p1 = sigmoid(f)
		}
		probs[0], probs[1] = 1-p1, p1
	}
	if math.IsNaN(probs[0]) || math.IsNaN(probs[1]) {
		return 0, probs, fmt.Errorf("classifier produced NaN probabilities")
	}
	if probs[ClassCyberbullying] > probs[ClassNormal] {
		return ClassCyberbullying, probs, nil
	}
	return ClassNormal, probs, nil
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

func toFloat64(vec []float32) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}
