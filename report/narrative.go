package report

import (
	"fmt"

	"yashubustudio/bullyscan/screening"
)

// Severity grades the share of comments flagged as cyberbullying.
type Severity int

const (
	SeverityClean Severity = iota
	SeverityLow
	SeverityModerate
	SeverityImmediate
)

func (s Severity) String() string {
	switch s {
	case SeverityImmediate:
		return "immediate action"
	case SeverityModerate:
		return "moderate"
	case SeverityLow:
		return "low"
	default:
		return "clean"
	}
}

// Reliability grades how much of the batch was classified with high confidence.
type Reliability int

const (
	ReliabilityManualReview Reliability = iota
	ReliabilityModerate
	ReliabilityReliable
)

func (r Reliability) String() string {
	switch r {
	case ReliabilityReliable:
		return "reliable"
	case ReliabilityModerate:
		return "moderate"
	default:
		return "manual review advised"
	}
}

// Lower bounds, checked top-down. A fraction of exactly zero is clean.
var severityThresholds = []struct {
	min   float64
	level Severity
}{
	{0.50, SeverityImmediate},
	{0.25, SeverityModerate},
}

// Strict lower bounds, checked top-down.
var reliabilityThresholds = []struct {
	above float64
	level Reliability
}{
	{0.80, ReliabilityReliable},
	{0.50, ReliabilityModerate},
}

// Interpretation is the single reading of a summary that every narrative
// section of the report draws on.
type Interpretation struct {
	Severity               Severity
	Reliability            Reliability
	CyberbullyingFraction  float64
	HighConfidenceFraction float64
}

// Interpret grades a summary against the threshold tables.
func Interpret(sum screening.Summary) Interpretation {
	in := Interpretation{
		CyberbullyingFraction:  sum.CyberbullyingFraction(),
		HighConfidenceFraction: sum.HighConfidenceFraction,
		Severity:               SeverityClean,
		Reliability:            ReliabilityManualReview,
	}
	if in.CyberbullyingFraction > 0 {
		in.Severity = SeverityLow
		for _, t := range severityThresholds {
			if in.CyberbullyingFraction >= t.min {
				in.Severity = t.level
				break
			}
		}
	}
	for _, t := range reliabilityThresholds {
		if in.HighConfidenceFraction > t.above {
			in.Reliability = t.level
			break
		}
	}
	return in
}

// ExecutiveSummary renders the opening paragraph of the report.
func (in Interpretation) ExecutiveSummary(sum screening.Summary) string {
	if sum.Total == 0 {
		return "No comments were analysed. The report contains no findings."
	}
	text := fmt.Sprintf("%d comments were analysed. %d (%.1f%%) were flagged as potential cyberbullying and %d (%.1f%%) as normal.",
		sum.Total, sum.CyberbullyingCount, sum.CyberbullyingPct, sum.NormalCount, sum.NormalPct)
	if sum.ErrorCount > 0 {
		text += fmt.Sprintf(" %d could not be assessed.", sum.ErrorCount)
	}
	switch in.Severity {
	case SeverityImmediate:
		text += " At least half of the discussion is flagged; the thread needs immediate action."
	case SeverityModerate:
		text += " A moderate share of the discussion is flagged and warrants attention."
	case SeverityLow:
		text += " The level of flagged content is low."
	default:
		text += " No comments were flagged; the discussion appears clean."
	}
	switch in.Reliability {
	case ReliabilityReliable:
		text += fmt.Sprintf(" %.0f%% of predictions were made with high confidence, so the results are reliable.", 100*in.HighConfidenceFraction)
	case ReliabilityModerate:
		text += fmt.Sprintf(" %.0f%% of predictions were made with high confidence; treat the results with moderate caution.", 100*in.HighConfidenceFraction)
	default:
		text += fmt.Sprintf(" Only %.0f%% of predictions were made with high confidence; manual review is advised.", 100*in.HighConfidenceFraction)
	}
	return text
}

// Recommendations lists the follow-up actions for the graded summary.
func (in Interpretation) Recommendations() []string {
	var out []string
	switch in.Severity {
	case SeverityImmediate:
		out = append(out,
			"Immediate action: review and moderate the flagged comments without delay.",
			"Consider restricting comments on the affected post while moderation is under way.",
			"Reach out to the targeted person and point them to support resources.")
	case SeverityModerate:
		out = append(out,
			"Moderate level: review the flagged comments and remove those that violate community guidelines.",
			"Monitor the thread for escalation over the next days.")
	case SeverityLow:
		out = append(out,
			"Low level: spot-check the flagged comments and act on clear violations.",
			"Continue routine monitoring.")
	default:
		out = append(out, "Clean: no action is required beyond routine monitoring.")
	}
	switch in.Reliability {
	case ReliabilityReliable:
		out = append(out, "Model confidence is reliable; the flagged list can be used to prioritise review.")
	case ReliabilityModerate:
		out = append(out, "Model confidence is moderate; confirm borderline predictions before acting.")
	default:
		out = append(out, "Manual review advised: most predictions fall below 90% confidence.")
	}
	return out
}
