package report

import (
	"strings"
	"testing"

	"yashubustudio/bullyscan/screening"
)

func summaryWith(total, flagged int, high float64) screening.Summary {
	return screening.Summary{
		Total:                  total,
		CyberbullyingCount:     flagged,
		NormalCount:            total - flagged,
		HighConfidenceFraction: high,
	}
}

func TestInterpretSeverity(t *testing.T) {
	tests := []struct {
		total, flagged int
		want           Severity
	}{
		{3, 2, SeverityImmediate},
		{2, 1, SeverityImmediate},
		{4, 1, SeverityModerate},
		{100, 49, SeverityModerate},
		{100, 24, SeverityLow},
		{100, 1, SeverityLow},
		{100, 0, SeverityClean},
		{0, 0, SeverityClean},
	}
	for _, tc := range tests {
		if got := Interpret(summaryWith(tc.total, tc.flagged, 0)).Severity; got != tc.want {
			t.Errorf("%d/%d: severity = %s, want %s", tc.flagged, tc.total, got, tc.want)
		}
	}
}

func TestInterpretReliability(t *testing.T) {
	tests := []struct {
		h    float64
		want Reliability
	}{
		{0.81, ReliabilityReliable},
		{0.80, ReliabilityModerate},
		{0.51, ReliabilityModerate},
		{0.50, ReliabilityManualReview},
		{0, ReliabilityManualReview},
	}
	for _, tc := range tests {
		if got := Interpret(summaryWith(10, 0, tc.h)).Reliability; got != tc.want {
			t.Errorf("h=%.2f: reliability = %s, want %s", tc.h, got, tc.want)
		}
	}
}

func TestNarrativeFollowsInterpretation(t *testing.T) {
	sum := summaryWith(3, 2, 1.0/3)
	sum.CyberbullyingPct = 200.0 / 3
	in := Interpret(sum)
	if !strings.Contains(in.ExecutiveSummary(sum), "immediate action") {
		t.Fatalf("summary = %q", in.ExecutiveSummary(sum))
	}
	recs := strings.Join(in.Recommendations(), " ")
	if !strings.Contains(recs, "Immediate action") || !strings.Contains(recs, "Manual review advised") {
		t.Fatalf("recommendations = %q", recs)
	}

	clean := Interpret(summaryWith(10, 0, 0.9))
	if recs := strings.Join(clean.Recommendations(), " "); !strings.Contains(recs, "Clean") || !strings.Contains(recs, "reliable") {
		t.Fatalf("recommendations = %q", recs)
	}
}
