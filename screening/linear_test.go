package screening

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeArtifact(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "classifier.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLogisticRegressionBinary(t *testing.T) {
	path := writeArtifact(t, `{"kind":"logistic_regression","classes":["Normal","Cyberbullying"],"coef":[[2,0]],"intercept":[0]}`)
	clf, err := LoadLinearClassifier(path)
	if err != nil {
		t.Fatalf("LoadLinearClassifier: %v", err)
	}
	if clf.Dimension() != 2 {
		t.Fatalf("Dimension = %d", clf.Dimension())
	}
	idx, probs, err := clf.Predict([]float64{1, 5})
	if err != nil {
		t.Fatal(err)
	}
	want := 1 / (1 + math.Exp(-2))
	if idx != ClassCyberbullying || math.Abs(probs[1]-want) > 1e-12 {
		t.Fatalf("Predict = %d %v, want cyberbullying p=%f", idx, probs, want)
	}
	if math.Abs(probs[0]+probs[1]-1) > 1e-12 {
		t.Fatalf("probabilities do not sum to 1: %v", probs)
	}
	idx, _, _ = clf.Predict([]float64{-1, 0})
	if idx != ClassNormal {
		t.Fatalf("expected Normal for negative score")
	}
}

func TestLogisticRegressionTwoRows(t *testing.T) {
	clf, err := NewLinearClassifier(LinearArtifact{
		Coef:      [][]float64{{1, 0}, {0, 1}},
		Intercept: []float64{0, 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	idx, probs, err := clf.Predict([]float64{0, math.Log(3)})
	if err != nil {
		t.Fatal(err)
	}
	if idx != ClassCyberbullying || math.Abs(probs[1]-0.75) > 1e-9 {
		t.Fatalf("Predict = %d %v", idx, probs)
	}
}

func TestTieGoesToNormal(t *testing.T) {
	clf, err := NewLinearClassifier(LinearArtifact{Coef: [][]float64{{1}}, Intercept: []float64{0}})
	if err != nil {
		t.Fatal(err)
	}
	idx, probs, _ := clf.Predict([]float64{0})
	if idx != ClassNormal || probs[0] != 0.5 {
		t.Fatalf("Predict = %d %v", idx, probs)
	}
}

func TestLinearSVCRequiresCalibration(t *testing.T) {
	path := writeArtifact(t, `{"kind":"linear_svc","coef":[[1]],"intercept":[0]}`)
	_, err := LoadLinearClassifier(path)
	if !errors.Is(err, ErrNoProbability) || !errors.Is(err, ErrModelLoad) {
		t.Fatalf("err = %v, want ErrNoProbability and ErrModelLoad", err)
	}
}

func TestLinearSVCPlattScaling(t *testing.T) {
	clf, err := NewLinearClassifier(LinearArtifact{
		Kind:        KindLinearSVC,
		Coef:        [][]float64{{1}},
		Intercept:   []float64{0},
		Calibration: &PlattScaling{A: -2, B: 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, probs, err := clf.Predict([]float64{1})
	if err != nil {
		t.Fatal(err)
	}
	if want := sigmoid(2); math.Abs(probs[1]-want) > 1e-12 {
		t.Fatalf("p = %f, want %f", probs[1], want)
	}
}

func TestLinearClassifierValidation(t *testing.T) {
	bad := []LinearArtifact{
		{Kind: "random_forest", Coef: [][]float64{{1}}, Intercept: []float64{0}},
		{Coef: nil, Intercept: nil},
		{Coef: [][]float64{{1}}, Intercept: []float64{0, 1}},
		{Coef: [][]float64{{1, 2}, {1}}, Intercept: []float64{0, 0}},
		{Classes: []string{"Cyberbullying", "Normal"}, Coef: [][]float64{{1}}, Intercept: []float64{0}},
	}
	for i, art := range bad {
		if _, err := NewLinearClassifier(art); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestPredictDimensionMismatch(t *testing.T) {
	clf, err := NewLinearClassifier(LinearArtifact{Coef: [][]float64{{1, 1}}, Intercept: []float64{0}})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := clf.Predict([]float64{1}); err == nil {
		t.Fatal("expected dimension error")
	}
}

func TestLoadLinearClassifierMissingFile(t *testing.T) {
	_, err := LoadLinearClassifier(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrModelLoad) {
		t.Fatalf("err = %v, want ErrModelLoad", err)
	}
}
