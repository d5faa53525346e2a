package analysis

import (
	"fmt"
	"unicode"

	"github.com/kljensen/snowball"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Supported normalizer languages.
const (
	LanguageEnglish = "english"
	LanguageSwedish = "swedish"
)

// Token is one normalized term with its position in the token stream.
// Positions count raw tokens, so stop-word removal leaves gaps; this keeps
// proximity information intact for snippet generation.
type Token struct {
	Term     string
	Position uint32
}

// Normalizer turns raw text into the normalized term sequence used by both
// the index write path and the query path. It is stateless and safe for
// concurrent use.
type Normalizer struct {
	language string
	stop     map[string]struct{}
}

// NewNormalizer creates a normalizer for the given language.
// Supported languages: "english", "swedish".
func NewNormalizer(language string) (*Normalizer, error) {
	stop, ok := stopWords[language]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}
	return &Normalizer{
		language: language,
		stop:     stop,
	}, nil
}

// Language returns the configured language.
func (n *Normalizer) Language() string {
	return n.language
}

// Normalize tokenizes and normalizes text. The returned tokens carry strictly
// increasing positions.
func (n *Normalizer) Normalize(text string) []Token {
	text = norm.NFC.String(text)

	tokens := make([]Token, 0, len(text)/8)
	var pos uint32

	emit := func(raw string) {
		folded := cases.Fold().String(raw)
		if _, isStop := n.stop[folded]; isStop {
			pos++
			return
		}
		stemmed, err := snowball.Stem(folded, n.language, false)
		if err != nil || stemmed == "" {
			stemmed = folded
		}
		tokens = append(tokens, Token{Term: stemmed, Position: pos})
		pos++
	}

	start := -1
	prevDigit := false
	for i, r := range text {
		isWord := unicode.IsLetter(r) || unicode.IsDigit(r)
		if !isWord {
			if start >= 0 {
				emit(text[start:i])
				start = -1
			}
			continue
		}

		// Compound split at letter/digit boundaries ("ipv6nät" -> "ipv", "6", "nät")
		isDigit := unicode.IsDigit(r)
		if start >= 0 && isDigit != prevDigit {
			emit(text[start:i])
			start = i
		}
		if start < 0 {
			start = i
		}
		prevDigit = isDigit
	}
	if start >= 0 {
		emit(text[start:])
	}

	return tokens
}

// NormalizeTerms returns just the term strings, in order. Convenience for
// query processing where positions are irrelevant.
func (n *Normalizer) NormalizeTerms(text string) []string {
	tokens := n.Normalize(text)
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = tok.Term
	}
	return terms
}
