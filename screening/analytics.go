package screening

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
)

// topTermLimit is how many terms the summary lists per corpus.
const topTermLimit = 5

// Analyzer aggregates a ResultTable into a Summary.
type Analyzer struct {
	scorer SentimentScorer
	cfg    SentimentConfig
	logger *log.Logger
}

// NewAnalyzer builds an analyzer. The sentiment caps come from cfg; zero
// values fall back to DefaultSentimentSampleCap.
func NewAnalyzer(scorer SentimentScorer, cfg SentimentConfig, logger *log.Logger) (*Analyzer, error) {
	if scorer == nil {
		return nil, errors.New("sentiment scorer is required")
	}
	if cfg.SampleCap <= 0 {
		cfg.SampleCap = DefaultSentimentSampleCap
	}
	if cfg.CyberbullyingSampleCap <= 0 {
		cfg.CyberbullyingSampleCap = DefaultSentimentSampleCap
	}
	return &Analyzer{scorer: scorer, cfg: cfg, logger: logger}, nil
}

// Summarize computes class counts, confidence buckets, term frequencies and
// sentiment over the head of the table. Sentiment is scored on at most
// SampleCap rows overall and CyberbullyingSampleCap flagged rows.
func (a *Analyzer) Summarize(ctx context.Context, table ResultTable) (Summary, error) {
	sum := Summary{
		Total:                  len(table),
		SentimentOverall:       SentimentNA,
		SentimentCyberbullying: SentimentNA,
		SentimentDegraded:      a.scorer.Degraded(),
	}
	sum.NormalCount, sum.CyberbullyingCount, sum.ErrorCount = table.Counts()
	sum.NormalPct = 100 * ratio(sum.NormalCount, sum.Total)
	sum.CyberbullyingPct = 100 * ratio(sum.CyberbullyingCount, sum.Total)

	for _, row := range table {
		_, conf := row.Flatten()
		sum.Buckets.add(conf)
	}
	sum.HighConfidenceFraction = ratio(sum.Buckets.High, sum.Total)

	overall := newTermCounter()
	flagged := newTermCounter()
	for _, row := range table {
		tokens := ContentTokens(row.Record.Text)
		overall.add(tokens)
		if label, _ := row.Flatten(); label == LabelCyberbullying {
			flagged.add(tokens)
		}
	}
	sum.TermFrequencies = overall.ranked()
	sum.CyberbullyingTermFrequencies = flagged.ranked()
	sum.TopTermsOverall = head(sum.TermFrequencies, topTermLimit)
	sum.TopTermsCyberbullying = head(sum.CyberbullyingTermFrequencies, topTermLimit)

	sample := table
	if len(sample) > a.cfg.SampleCap {
		sample = sample[:a.cfg.SampleCap]
	}
	counts, plurality, err := a.scoreSample(ctx, sample)
	if err != nil {
		return sum, err
	}
	sum.SentimentCounts = counts
	sum.SentimentSampleSize = len(sample)
	if len(sample) > 0 {
		sum.SentimentOverall = plurality
	}

	flaggedRows := table.Filter(LabelCyberbullying)
	if len(flaggedRows) > a.cfg.CyberbullyingSampleCap {
		flaggedRows = flaggedRows[:a.cfg.CyberbullyingSampleCap]
	}
	counts, plurality, err = a.scoreSample(ctx, flaggedRows)
	if err != nil {
		return sum, err
	}
	sum.SentimentCyberbullyingCounts = counts
	sum.SentimentCyberbullyingSampleSize = len(flaggedRows)
	if len(flaggedRows) > 0 {
		sum.SentimentCyberbullying = plurality
	}
	return sum, nil
}

// scoreSample runs the scorer over rows and returns the tallies and the
// plurality label. Ties go to the label seen first in the sample.
func (a *Analyzer) scoreSample(ctx context.Context, rows ResultTable) (SentimentCounts, Sentiment, error) {
	var counts SentimentCounts
	firstSeen := make(map[Sentiment]int, 3)
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			logf(a.logger, "[CANCEL] sentiment sampling cancelled after %d of %d comments", i, len(rows))
			return counts, SentimentNA, fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		s := a.scorer.Sentiment(ctx, row.Record.Text)
		switch s {
		case Positive:
			counts.Positive++
		case Negative:
			counts.Negative++
		default:
			s = Neutral
			counts.Neutral++
		}
		if _, ok := firstSeen[s]; !ok {
			firstSeen[s] = i
		}
	}
	return counts, plurality(counts, firstSeen), nil
}

func plurality(counts SentimentCounts, firstSeen map[Sentiment]int) Sentiment {
	if counts.Total() == 0 {
		return SentimentNA
	}
	tally := map[Sentiment]int{
		Positive: counts.Positive,
		Neutral:  counts.Neutral,
		Negative: counts.Negative,
	}
	best := SentimentNA
	for _, s := range []Sentiment{Positive, Neutral, Negative} {
		n := tally[s]
		if n == 0 {
			continue
		}
		if best == SentimentNA || n > tally[best] || (n == tally[best] && firstSeen[s] < firstSeen[best]) {
			best = s
		}
	}
	return best
}

func (b *ConfidenceBuckets) add(confidence float64) {
	switch {
	case confidence >= 90:
		b.High++
	case confidence >= 80:
		b.Good++
	case confidence >= 70:
		b.Fair++
	default:
		b.Low++
	}
}

// termCounter counts tokens and remembers where each first appeared.
type termCounter struct {
	counts map[string]int
	first  map[string]int
	seen   int
}

func newTermCounter() *termCounter {
	return &termCounter{counts: make(map[string]int), first: make(map[string]int)}
}

func (c *termCounter) add(tokens []string) {
	for _, tok := range tokens {
		if _, ok := c.first[tok]; !ok {
			c.first[tok] = c.seen
		}
		c.counts[tok]++
		c.seen++
	}
}

// ranked orders terms by count, then by first occurrence.
func (c *termCounter) ranked() []TermCount {
	out := make([]TermCount, 0, len(c.counts))
	for term, n := range c.counts {
		out = append(out, TermCount{Term: term, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return c.first[out[i].Term] < c.first[out[j].Term]
	})
	return out
}

func head(terms []TermCount, n int) []TermCount {
	if len(terms) > n {
		terms = terms[:n]
	}
	return append([]TermCount{}, terms...)
}
