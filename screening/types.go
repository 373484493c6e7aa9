package screening

import (
	"sort"
	"strings"
	"time"
)

// Label is the advisory outcome for one comment.
type Label string

const (
	// LabelNormal marks a comment the classifier considers benign.
	LabelNormal Label = "Normal"
	// LabelCyberbullying marks a comment flagged for review.
	LabelCyberbullying Label = "Cyberbullying"
	// LabelError marks a comment whose assessment failed. It keeps the row
	// in the table without affecting the binary classifier outputs.
	LabelError Label = "Error"
)

// CommentRecord is a single comment plus whatever metadata its source knew.
type CommentRecord struct {
	Text        string    `json:"text"`
	Author      string    `json:"author,omitempty"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
	LikeCount   int       `json:"likeCount,omitempty"`
	AuthorID    string    `json:"authorId,omitempty"`
	IsReply     bool      `json:"isReply,omitempty"`
	ReplyTarget string    `json:"replyTarget,omitempty"`
}

// Assessment is the outcome of classifying one comment. Err is non-nil when
// the assessment failed; Label and Confidence are then LabelError and 0.
type Assessment struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
	Err        error   `json:"-"`
}

// OK reports whether the assessment succeeded.
func (a Assessment) OK() bool {
	return a.Err == nil
}

// Flatten returns the exported (label, confidence) pair.
func (a Assessment) Flatten() (Label, float64) {
	if a.Err != nil {
		return LabelError, 0
	}
	return a.Label, a.Confidence
}

// AssessmentResult pairs an input record with its assessment.
type AssessmentResult struct {
	Index  int           `json:"index"`
	Record CommentRecord `json:"record"`
	Assessment
	AssessedAt time.Time `json:"assessedAt"`
}

// ResultTable holds assessment results in input order.
type ResultTable []AssessmentResult

// Len returns the number of rows.
func (t ResultTable) Len() int {
	return len(t)
}

// Counts tallies the rows per label.
func (t ResultTable) Counts() (normal, cyberbullying, failed int) {
	for _, row := range t {
		label, _ := row.Flatten()
		switch label {
		case LabelNormal:
			normal++
		case LabelCyberbullying:
			cyberbullying++
		default:
			failed++
		}
	}
	return normal, cyberbullying, failed
}

// Texts returns the comment texts in table order.
func (t ResultTable) Texts() []string {
	out := make([]string, len(t))
	for i, row := range t {
		out[i] = row.Record.Text
	}
	return out
}

// Filter returns the rows carrying label, preserving order.
func (t ResultTable) Filter(label Label) ResultTable {
	var out ResultTable
	for _, row := range t {
		if l, _ := row.Flatten(); l == label {
			out = append(out, row)
		}
	}
	return out
}

// SortKey selects the ordering applied by SortBy.
type SortKey string

const (
	SortInput      SortKey = "input"
	SortConfidence SortKey = "confidence"
	SortLabel      SortKey = "label"
	SortAuthor     SortKey = "author"
	SortLikes      SortKey = "likes"
)

// SortBy returns a stably sorted copy of the table. Unknown keys keep input order.
func (t ResultTable) SortBy(key SortKey) ResultTable {
	out := append(ResultTable(nil), t...)
	var less func(a, b AssessmentResult) bool
	switch key {
	case SortConfidence:
		less = func(a, b AssessmentResult) bool {
			_, ca := a.Flatten()
			_, cb := b.Flatten()
			return ca > cb
		}
	case SortLabel:
		less = func(a, b AssessmentResult) bool {
			la, _ := a.Flatten()
			lb, _ := b.Flatten()
			return labelRank(la) < labelRank(lb)
		}
	case SortAuthor:
		less = func(a, b AssessmentResult) bool {
			return strings.ToLower(a.Record.Author) < strings.ToLower(b.Record.Author)
		}
	case SortLikes:
		less = func(a, b AssessmentResult) bool {
			return a.Record.LikeCount > b.Record.LikeCount
		}
	default:
		less = func(a, b AssessmentResult) bool {
			return a.Index < b.Index
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

func labelRank(l Label) int {
	switch l {
	case LabelCyberbullying:
		return 0
	case LabelNormal:
		return 1
	default:
		return 2
	}
}

// Sentiment is the polarity assigned by a SentimentScorer.
type Sentiment string

const (
	Positive Sentiment = "Positive"
	Neutral  Sentiment = "Neutral"
	Negative Sentiment = "Negative"
	// SentimentNA is reported when there was nothing to score.
	SentimentNA Sentiment = "N/A"
)

// TermCount is a normalised token and how often it occurred.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// ConfidenceBuckets counts rows by confidence band.
type ConfidenceBuckets struct {
	High int `json:"90-100"`
	Good int `json:"80-89"`
	Fair int `json:"70-79"`
	Low  int `json:"<70"`
}

// Total returns the number of bucketed rows.
func (b ConfidenceBuckets) Total() int {
	return b.High + b.Good + b.Fair + b.Low
}

// SentimentCounts tallies a scored sample.
type SentimentCounts struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Total returns the number of scored comments.
func (c SentimentCounts) Total() int {
	return c.Positive + c.Neutral + c.Negative
}

// Summary is the aggregate view of a ResultTable.
type Summary struct {
	Total              int     `json:"total"`
	CyberbullyingCount int     `json:"cyberbullyingCount"`
	NormalCount        int     `json:"normalCount"`
	ErrorCount         int     `json:"errorCount"`
	CyberbullyingPct   float64 `json:"cyberbullyingPct"`
	NormalPct          float64 `json:"normalPct"`

	Buckets                ConfidenceBuckets `json:"buckets"`
	HighConfidenceFraction float64           `json:"highConfidenceFraction"`

	TopTermsOverall       []TermCount `json:"topTermsOverall"`
	TopTermsCyberbullying []TermCount `json:"topTermsCyberbullying"`
	// Full frequency lists, most frequent first, used for word clouds.
	TermFrequencies              []TermCount `json:"-"`
	CyberbullyingTermFrequencies []TermCount `json:"-"`

	SentimentOverall                 Sentiment       `json:"sentimentOverall"`
	SentimentCyberbullying           Sentiment       `json:"sentimentCyberbullying"`
	SentimentCounts                  SentimentCounts `json:"sentimentCounts"`
	SentimentCyberbullyingCounts     SentimentCounts `json:"sentimentCyberbullyingCounts"`
	SentimentSampleSize              int             `json:"sentimentSampleSize"`
	SentimentCyberbullyingSampleSize int             `json:"sentimentCyberbullyingSampleSize"`
	SentimentDegraded                bool            `json:"sentimentDegraded"`
}

// CyberbullyingFraction returns the flagged share of all rows in [0,1].
func (s Summary) CyberbullyingFraction() float64 {
	return ratio(s.CyberbullyingCount, s.Total)
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
