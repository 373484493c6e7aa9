package screening_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"yashubustudio/bullyscan/internal/testutil"
	"yashubustudio/bullyscan/screening"
)

func newAnalyzer(t *testing.T, scorer screening.SentimentScorer, cfg screening.SentimentConfig) *screening.Analyzer {
	t.Helper()
	a, err := screening.NewAnalyzer(scorer, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestSummarizeSingleNormal(t *testing.T) {
	table := testutil.Table([]string{"Good morning everyone!"}, []screening.Label{screening.LabelNormal}, []float64{93})
	sum, err := newAnalyzer(t, &testutil.MockSentiment{}, screening.SentimentConfig{}).Summarize(context.Background(), table)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Total != 1 || sum.NormalCount != 1 || sum.CyberbullyingCount != 0 || sum.Buckets.High != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.SentimentCyberbullying != screening.SentimentNA {
		t.Fatalf("cyberbullying sentiment = %s, want N/A", sum.SentimentCyberbullying)
	}
}

func TestSummarizeMixedBuckets(t *testing.T) {
	table := testutil.Table(
		[]string{"tanga ka", "hello friend", "i hate you so much"},
		[]screening.Label{screening.LabelCyberbullying, screening.LabelNormal, screening.LabelCyberbullying},
		[]float64{88, 91, 76},
	)
	sum, err := newAnalyzer(t, &testutil.MockSentiment{}, screening.SentimentConfig{}).Summarize(context.Background(), table)
	if err != nil {
		t.Fatal(err)
	}
	want := screening.ConfidenceBuckets{High: 1, Good: 1, Fair: 1, Low: 0}
	if sum.Buckets != want {
		t.Fatalf("buckets = %+v, want %+v", sum.Buckets, want)
	}
	if math.Abs(sum.CyberbullyingPct-200.0/3) > 1e-9 {
		t.Fatalf("cyberbullying pct = %f", sum.CyberbullyingPct)
	}
	if sum.CyberbullyingCount+sum.NormalCount+sum.ErrorCount != sum.Total {
		t.Fatal("class counts do not sum to total")
	}
}

func TestSummarizeLowConfidence(t *testing.T) {
	texts := make([]string, 150)
	labels := make([]screening.Label, 150)
	confs := make([]float64, 150)
	for i := range texts {
		texts[i] = fmt.Sprintf("comment number %d", i)
		labels[i] = screening.LabelNormal
		confs[i] = 55
	}
	sum, err := newAnalyzer(t, &testutil.MockSentiment{}, screening.SentimentConfig{}).Summarize(context.Background(), testutil.Table(texts, labels, confs))
	if err != nil {
		t.Fatal(err)
	}
	if sum.HighConfidenceFraction != 0 || sum.Buckets.Low != 150 || sum.Buckets.Total() != 150 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	scorer := &testutil.MockSentiment{}
	sum, err := newAnalyzer(t, scorer, screening.SentimentConfig{}).Summarize(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Total != 0 || sum.CyberbullyingPct != 0 || sum.NormalPct != 0 || sum.HighConfidenceFraction != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(sum.TopTermsOverall) != 0 || len(sum.TopTermsCyberbullying) != 0 {
		t.Fatalf("top terms = %v / %v", sum.TopTermsOverall, sum.TopTermsCyberbullying)
	}
	if sum.SentimentOverall != screening.SentimentNA || sum.SentimentCyberbullying != screening.SentimentNA {
		t.Fatalf("sentiment = %s / %s", sum.SentimentOverall, sum.SentimentCyberbullying)
	}
	if scorer.Calls() != 0 {
		t.Fatalf("scorer called %d times on an empty table", scorer.Calls())
	}
}

func TestSummarizeTopTerms(t *testing.T) {
	texts := []string{
		"Ang pangit mo, tanga!",
		"tanga talaga siya, bobo pa",
		"maganda ang video, salamat po",
		"pangit ng boses, tanga",
		"bobo",
	}
	labels := []screening.Label{
		screening.LabelCyberbullying, screening.LabelCyberbullying, screening.LabelNormal,
		screening.LabelCyberbullying, screening.LabelError,
	}
	sum, err := newAnalyzer(t, &testutil.MockSentiment{}, screening.SentimentConfig{}).Summarize(context.Background(),
		testutil.Table(texts, labels, []float64{90, 85, 95, 80, 0}))
	if err != nil {
		t.Fatal(err)
	}
	if got := sum.TopTermsOverall[0]; got.Term != "tanga" || got.Count != 3 {
		t.Fatalf("top overall = %+v", sum.TopTermsOverall)
	}
	// pangit and bobo tie at 2 overall; pangit occurred first.
	if sum.TopTermsOverall[1].Term != "pangit" || sum.TopTermsOverall[2].Term != "bobo" {
		t.Fatalf("tie order = %+v", sum.TopTermsOverall)
	}
	if len(sum.TopTermsOverall) > 5 {
		t.Fatalf("more than five top terms: %v", sum.TopTermsOverall)
	}
	// The Error row's "bobo" is not part of the cyberbullying subset.
	for _, tc := range sum.TopTermsCyberbullying {
		if tc.Term == "bobo" && tc.Count != 1 {
			t.Fatalf("bobo counted %d times in the cyberbullying subset", tc.Count)
		}
	}
	for _, list := range [][]screening.TermCount{sum.TopTermsOverall, sum.TopTermsCyberbullying} {
		for _, tc := range list {
			if screening.IsStopword(tc.Term) {
				t.Errorf("stopword %q among top terms", tc.Term)
			}
		}
	}
}

func TestSummarizeSentimentSamplingCap(t *testing.T) {
	const n = 10000
	texts := make([]string, n)
	labels := make([]screening.Label, n)
	confs := make([]float64, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("c%d", i)
		labels[i] = screening.LabelNormal
		if i%2 == 0 {
			labels[i] = screening.LabelCyberbullying
		}
		confs[i] = 80
	}
	scorer := &testutil.MockSentiment{}
	sum, err := newAnalyzer(t, scorer, screening.SentimentConfig{}).Summarize(context.Background(), testutil.Table(texts, labels, confs))
	if err != nil {
		t.Fatal(err)
	}
	if scorer.Calls() > 200 {
		t.Fatalf("scorer called %d times, cap is 200", scorer.Calls())
	}
	if sum.SentimentSampleSize != 100 || sum.SentimentCyberbullyingSampleSize != 100 {
		t.Fatalf("sample sizes = %d / %d", sum.SentimentSampleSize, sum.SentimentCyberbullyingSampleSize)
	}

	scorer = &testutil.MockSentiment{}
	_, err = newAnalyzer(t, scorer, screening.SentimentConfig{SampleCap: 10, CyberbullyingSampleCap: 5}).Summarize(context.Background(), testutil.Table(texts, labels, confs))
	if err != nil {
		t.Fatal(err)
	}
	if scorer.Calls() != 15 {
		t.Fatalf("configured caps: scorer called %d times, want 15", scorer.Calls())
	}
}

func TestSummarizeSentimentPlurality(t *testing.T) {
	sentiments := map[string]screening.Sentiment{
		"a": screening.Negative,
		"b": screening.Positive,
		"c": screening.Positive,
		"d": screening.Negative,
		"e": screening.Neutral,
	}
	scorer := &testutil.MockSentiment{
		IsDegraded: true,
		SentimentFunc: func(_ context.Context, text string) screening.Sentiment {
			return sentiments[text]
		},
	}
	table := testutil.Table(
		[]string{"a", "b", "c", "d", "e"},
		[]screening.Label{screening.LabelCyberbullying, screening.LabelNormal, screening.LabelNormal, screening.LabelCyberbullying, screening.LabelNormal},
		[]float64{90, 90, 90, 90, 90},
	)
	sum, err := newAnalyzer(t, scorer, screening.SentimentConfig{}).Summarize(context.Background(), table)
	if err != nil {
		t.Fatal(err)
	}
	// Negative and Positive tie at two; Negative was seen first.
	if sum.SentimentOverall != screening.Negative {
		t.Fatalf("overall = %s, want Negative", sum.SentimentOverall)
	}
	if sum.SentimentCyberbullying != screening.Negative || sum.SentimentCyberbullyingCounts.Negative != 2 {
		t.Fatalf("cyberbullying sentiment = %s %+v", sum.SentimentCyberbullying, sum.SentimentCyberbullyingCounts)
	}
	if !sum.SentimentDegraded {
		t.Fatal("degraded flag not carried into the summary")
	}
}

func TestSummarizeCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	scorer := &testutil.MockSentiment{SentimentFunc: func(context.Context, string) screening.Sentiment {
		cancel()
		return screening.Neutral
	}}
	table := testutil.Table([]string{"a", "b", "c"},
		[]screening.Label{screening.LabelNormal, screening.LabelNormal, screening.LabelNormal},
		[]float64{90, 90, 90})
	_, err := newAnalyzer(t, scorer, screening.SentimentConfig{}).Summarize(ctx, table)
	if !errors.Is(err, screening.ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if scorer.Calls() != 1 {
		t.Fatalf("scorer called %d times after cancellation", scorer.Calls())
	}
}
