package screening

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	urlPattern = regexp.MustCompile(`(?:https?://|www\.)\S+`)
	lower      = cases.Lower(language.Und)
)

// CleanInput performs Unicode normalization, strips control characters and
// trims whitespace. It is applied before embedding; the text otherwise keeps
// its case, punctuation and URLs.
func CleanInput(text string) string {
	normed := norm.NFKC.String(text)
	normed = strings.TrimSpace(normed)
	normed = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
	return normed
}

// Normalize prepares text for term counting: lowercase, URLs removed,
// punctuation stripped, whitespace collapsed. Normalize is idempotent.
func Normalize(text string) string {
	s := lower.String(norm.NFKC.String(text))
	s = urlPattern.ReplaceAllString(s, " ")
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Tokens splits the normalised text on whitespace.
func Tokens(text string) []string {
	return strings.Fields(Normalize(text))
}

// ContentTokens returns the tokens of text that are not stopwords.
func ContentTokens(text string) []string {
	tokens := Tokens(text)
	out := tokens[:0]
	for _, tok := range tokens {
		if IsStopword(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func truncateRunes(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
