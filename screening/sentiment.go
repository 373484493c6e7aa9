package screening

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"unicode"

	"yashubustudio/bullyscan/emb"
)

// SentimentScorer assigns a polarity to a comment.
type SentimentScorer interface {
	Sentiment(ctx context.Context, text string) Sentiment
	// Degraded reports whether the scorer is the rule-based fallback.
	Degraded() bool
}

// NewSentimentScorer loads the multilingual sentiment model from
// cfg.ModelDir. When the model cannot be loaded the lexicon scorer is
// returned instead and the degradation is logged.
func NewSentimentScorer(cfg SentimentConfig, ortLibrary string, logger *log.Logger) SentimentScorer {
	if cfg.Disabled {
		logf(logger, "[WARN] sentiment model disabled; using degraded lexicon scorer")
		return NewLexiconSentiment()
	}
	model, err := NewModelSentiment(cfg, ortLibrary, logger)
	if err != nil {
		logf(logger, "[WARN] sentiment model unavailable, analytics degraded to lexicon scorer: %v", err)
		return NewLexiconSentiment()
	}
	logf(logger, "sentiment model loaded: %s", cfg.ModelDir)
	return model
}

// ModelSentiment scores text with a sequence-classification checkpoint.
type ModelSentiment struct {
	clf    *emb.SequenceClassifier
	logger *log.Logger
}

// NewModelSentiment opens model.onnx, tokenizer.json and config.json in cfg.ModelDir.
func NewModelSentiment(cfg SentimentConfig, ortLibrary string, logger *log.Logger) (*ModelSentiment, error) {
	clf, err := emb.NewSequenceClassifier(emb.ClassifierConfig{
		OrtLibrary:    ortLibrary,
		ModelPath:     filepath.Join(cfg.ModelDir, "model.onnx"),
		TokenizerPath: filepath.Join(cfg.ModelDir, "tokenizer.json"),
		LabelsPath:    filepath.Join(cfg.ModelDir, "config.json"),
		MaxSeqLen:     cfg.MaxSeqLen,
	})
	if err != nil {
		return nil, fmt.Errorf("load sentiment model: %w", err)
	}
	return &ModelSentiment{clf: clf, logger: logger}, nil
}

// Sentiment returns the mapped argmax label. Inference errors count as Neutral.
func (m *ModelSentiment) Sentiment(_ context.Context, text string) Sentiment {
	pred, err := m.clf.Classify(CleanInput(text))
	if err != nil {
		logf(m.logger, "[WARN] sentiment failed for %q: %v", truncateRunes(text, diagnosticPrefixLen), err)
		return Neutral
	}
	return MapSentimentLabel(pred.Label)
}

// Degraded is false for the model scorer.
func (m *ModelSentiment) Degraded() bool { return false }

// Close releases the model.
func (m *ModelSentiment) Close() error {
	m.clf.Close()
	return nil
}

// MapSentimentLabel maps a model label onto the three polarities. Labels
// containing POSITIVE or rating 4–5 stars are Positive; NEGATIVE or 1–2
// stars are Negative; anything else is Neutral.
func MapSentimentLabel(label string) Sentiment {
	upper := strings.ToUpper(strings.TrimSpace(label))
	if strings.Contains(upper, "POSITIVE") {
		return Positive
	}
	if strings.Contains(upper, "NEGATIVE") {
		return Negative
	}
	if stars, ok := starRating(upper); ok {
		switch stars {
		case 4, 5:
			return Positive
		case 1, 2:
			return Negative
		}
	}
	return Neutral
}

// starRating reads labels like "5 stars", "1 star" or a bare "4".
func starRating(label string) (int, bool) {
	fields := strings.Fields(label)
	if len(fields) == 0 || len(fields) > 2 {
		return 0, false
	}
	if len(fields) == 2 && !strings.HasPrefix(fields[1], "STAR") {
		return 0, false
	}
	digits := fields[0]
	if len(digits) != 1 || !unicode.IsDigit(rune(digits[0])) {
		return 0, false
	}
	return int(digits[0] - '0'), true
}

// LexiconSentiment is the degraded scorer: it counts hand-listed positive
// and negative words.
type LexiconSentiment struct {
	positive map[string]struct{}
	negative map[string]struct{}
}

// NewLexiconSentiment returns the fallback scorer.
func NewLexiconSentiment() *LexiconSentiment {
	return &LexiconSentiment{
		positive: toSet(positiveWords),
		negative: toSet(negativeWords),
	}
}

// Sentiment compares positive and negative word hits.
func (l *LexiconSentiment) Sentiment(_ context.Context, text string) Sentiment {
	var pos, neg int
	for _, tok := range Tokens(text) {
		if _, ok := l.positive[tok]; ok {
			pos++
		}
		if _, ok := l.negative[tok]; ok {
			neg++
		}
	}
	switch {
	case pos > neg:
		return Positive
	case neg > pos:
		return Negative
	default:
		return Neutral
	}
}

// Degraded is always true for the lexicon scorer.
func (l *LexiconSentiment) Degraded() bool { return true }

var positiveWords = []string{
	"good", "great", "love", "nice", "awesome", "happy", "best", "amazing", "beautiful",
	"thanks", "thank", "excellent", "wonderful", "cool", "congrats", "congratulations",
	"proud", "fantastic", "like", "kind", "support", "blessed", "cute", "brilliant",
	"ganda", "maganda", "galing", "magaling", "salamat", "mahal", "astig", "saya", "masaya",
	"bait", "mabait", "husay", "mahusay",
}

var negativeWords = []string{
	"bad", "hate", "ugly", "stupid", "idiot", "dumb", "worst", "terrible", "awful", "loser",
	"trash", "disgusting", "pathetic", "annoying", "horrible", "useless", "fool", "shut",
	"kill", "die", "fat", "sad", "angry",
	"pangit", "tanga", "bobo", "gago", "ulol", "inutil", "tangina", "putangina", "bwisit",
	"buwisit", "leche", "walanghiya", "hayop", "baboy", "panget", "kadiri", "salot",
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
