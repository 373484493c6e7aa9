package report_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"yashubustudio/bullyscan/internal/testutil"
	"yashubustudio/bullyscan/report"
	"yashubustudio/bullyscan/screening"
)

func summarize(t *testing.T, table screening.ResultTable) screening.Summary {
	t.Helper()
	a, err := screening.NewAnalyzer(&testutil.MockSentiment{}, screening.SentimentConfig{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	sum, err := a.Summarize(context.Background(), table)
	if err != nil {
		t.Fatal(err)
	}
	return sum
}

func labelledTable(flagged, normal int) screening.ResultTable {
	var texts []string
	var labels []screening.Label
	var confs []float64
	for i := 0; i < flagged; i++ {
		texts = append(texts, fmt.Sprintf("tanga ka talaga bobo %d", i))
		labels = append(labels, screening.LabelCyberbullying)
		confs = append(confs, 92)
	}
	for i := 0; i < normal; i++ {
		texts = append(texts, fmt.Sprintf("salamat sa video maganda %d", i))
		labels = append(labels, screening.LabelNormal)
		confs = append(confs, 95)
	}
	return testutil.Table(texts, labels, confs)
}

func assertPDF(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) || !bytes.Contains(data, []byte("%%EOF")) {
		t.Fatalf("%s is not a complete PDF", path)
	}
}

func TestBuildEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	renderer := &testutil.MockRenderer{}
	b := &report.Builder{Renderer: renderer}
	rep, err := b.Build(context.Background(), nil, summarize(t, nil), path)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	assertPDF(t, path)
	if rep.ID == "" || len(rep.Sections) != 11 {
		t.Fatalf("report = %+v", rep)
	}
	for _, bars := range renderer.Bars {
		for _, bar := range bars {
			if bar.Value != 0 {
				t.Fatalf("empty table produced a non-zero bar %+v", bar)
			}
		}
	}
	if renderer.WordCloudCalls != 0 {
		t.Fatalf("word cloud rendered for an empty table")
	}
}

func TestBuildToleratesChartFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	renderer := &testutil.MockRenderer{
		PieChartFunc: func(string, []report.Slice) ([]byte, error) {
			return nil, errors.New("forced failure")
		},
	}
	table := labelledTable(3, 7)
	rep, err := (&report.Builder{Renderer: renderer}).Build(context.Background(), table, summarize(t, table), path)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	assertPDF(t, path)
	pie, ok := rep.Section(report.SectionClassificationChart)
	if !ok || pie.Rendered || pie.Note == "" || !errors.Is(pie.Err, report.ErrRender) {
		t.Fatalf("pie section = %+v", pie)
	}
	for _, name := range []string{report.SectionConfidenceChart, report.SectionSentimentChart, report.SectionResultsTable, report.SectionRecommendations} {
		if s, _ := rep.Section(name); !s.Rendered {
			t.Errorf("section %s not rendered: %+v", name, s)
		}
	}
}

func TestBuildRejectsCorruptImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	renderer := &testutil.MockRenderer{
		BarChartFunc: func(string, string, []report.Bar) ([]byte, error) {
			return []byte("not a png"), nil
		},
	}
	table := labelledTable(1, 1)
	rep, err := (&report.Builder{Renderer: renderer}).Build(context.Background(), table, summarize(t, table), path)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	assertPDF(t, path)
	if s, _ := rep.Section(report.SectionConfidenceChart); s.Rendered {
		t.Fatal("corrupt chart was reported as rendered")
	}
}

func TestBuildTwoWordClouds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	renderer := &testutil.MockRenderer{}
	table := labelledTable(6, 200)
	rep, err := (&report.Builder{Renderer: renderer}).Build(context.Background(), table, summarize(t, table), path)
	if err != nil {
		t.Fatal(err)
	}
	if renderer.WordCloudCalls != 2 {
		t.Fatalf("word clouds rendered = %d, want 2", renderer.WordCloudCalls)
	}
	if s, _ := rep.Section(report.SectionCyberbullyingWordCloud); !s.Rendered {
		t.Fatalf("cyberbullying cloud = %+v", s)
	}
	assertPDF(t, path)
}

func TestBuildSingleWordCloud(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	renderer := &testutil.MockRenderer{}
	table := labelledTable(5, 0)
	rep, err := (&report.Builder{Renderer: renderer}).Build(context.Background(), table, summarize(t, table), path)
	if err != nil {
		t.Fatal(err)
	}
	if renderer.WordCloudCalls != 1 {
		t.Fatalf("word clouds rendered = %d, want 1", renderer.WordCloudCalls)
	}
	s, _ := rep.Section(report.SectionCyberbullyingWordCloud)
	if s.Rendered || s.Err != nil {
		t.Fatalf("cyberbullying cloud = %+v", s)
	}
	assertPDF(t, path)
}

func TestBuildWriteFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "report.pdf")
	table := labelledTable(1, 1)
	_, err := (&report.Builder{Renderer: &testutil.MockRenderer{}}).Build(context.Background(), table, summarize(t, table), path)
	if !errors.Is(err, report.ErrWrite) {
		t.Fatalf("err = %v, want ErrWrite", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatal("partial report left behind")
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	path := filepath.Join(t.TempDir(), "report.pdf")
	renderer := &testutil.MockRenderer{
		PieChartFunc: func(string, []report.Slice) ([]byte, error) {
			cancel()
			return testutil.TinyPNG(), nil
		},
	}
	table := labelledTable(2, 2)
	_, err := (&report.Builder{Renderer: renderer}).Build(ctx, table, summarize(t, table), path)
	if !errors.Is(err, screening.ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatal("cancelled build left a file")
	}
}

func TestBuildWithPlotRenderer(t *testing.T) {
	renderer, err := report.NewPlotRenderer(50)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "real.pdf")
	table := labelledTable(8, 12)
	rep, err := (&report.Builder{Renderer: renderer, ModelID: "test"}).Build(context.Background(), table, summarize(t, table), path)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range rep.Sections {
		if s.Err != nil {
			t.Errorf("section %s failed: %v", s.Name, s.Err)
		}
	}
	assertPDF(t, path)
}
