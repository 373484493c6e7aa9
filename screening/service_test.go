package screening_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"yashubustudio/bullyscan/internal/testutil"
	"yashubustudio/bullyscan/screening"
)

func newService(t *testing.T, e screening.Embedder, p screening.Predictor) *screening.Service {
	t.Helper()
	svc, err := screening.NewService(newAssessor(t, e, p, nil), nil)
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestClassifyBatchPreservesOrderAndLength(t *testing.T) {
	m := testutil.NewScriptedModel(map[string]float64{
		"tanga ka":           0.88,
		"hello friend":       0.09,
		"i hate you so much": 0.76,
	})
	svc := newService(t, m.Embedder, m.Predictor)
	texts := []string{"tanga ka", "hello friend", "unscripted", "i hate you so much"}

	var progress [][2]int
	table, err := svc.ClassifyBatch(context.Background(), testutil.Records(texts...), func(done, total int) {
		progress = append(progress, [2]int{done, total})
	})
	if err != nil {
		t.Fatalf("ClassifyBatch: %v", err)
	}
	if table.Len() != len(texts) {
		t.Fatalf("len = %d, want %d", table.Len(), len(texts))
	}
	wantLabels := []screening.Label{screening.LabelCyberbullying, screening.LabelNormal, screening.LabelError, screening.LabelCyberbullying}
	for i, row := range table {
		if row.Index != i || row.Record.Text != texts[i] {
			t.Errorf("row %d out of order: %+v", i, row)
		}
		if label, _ := row.Flatten(); label != wantLabels[i] {
			t.Errorf("row %d label = %s, want %s", i, label, wantLabels[i])
		}
		if row.AssessedAt.IsZero() {
			t.Errorf("row %d has no assessment time", i)
		}
	}
	if len(progress) != len(texts) || progress[len(progress)-1] != [2]int{4, 4} {
		t.Fatalf("progress = %v", progress)
	}
}

func TestClassifyBatchCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := newService(t, &testutil.MockEmbedder{}, &testutil.MockPredictor{})
	records := make([]screening.CommentRecord, 10)
	for i := range records {
		records[i] = screening.CommentRecord{Text: fmt.Sprintf("comment %d", i)}
	}
	table, err := svc.ClassifyBatch(ctx, records, func(done, _ int) {
		if done == 3 {
			cancel()
		}
	})
	if !errors.Is(err, screening.ErrCancelled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want ErrCancelled wrapping context.Canceled", err)
	}
	if table.Len() != 3 {
		t.Fatalf("partial table has %d rows, want 3", table.Len())
	}
}

func TestClassifyTextsEmpty(t *testing.T) {
	svc := newService(t, &testutil.MockEmbedder{}, &testutil.MockPredictor{})
	table, err := svc.ClassifyTexts(context.Background(), nil, nil)
	if err != nil || table.Len() != 0 {
		t.Fatalf("ClassifyTexts(nil) = %v, %v", table, err)
	}
}
