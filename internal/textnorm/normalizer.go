// Package textnorm turns free text into comparable word tokens.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalizer lowercases, tokenizes and filters stopwords. The zero value is
// not usable; build one with New or English.
type Normalizer struct {
	stopwords map[string]struct{}
}

// New builds a Normalizer that discards the given stopwords.
func New(stopwords []string) *Normalizer {
	set := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		set[strings.ToLower(w)] = struct{}{}
	}
	return &Normalizer{stopwords: set}
}

// English returns a Normalizer using the English stopword list.
func English() *Normalizer {
	return New(englishStopwords)
}

// Tokens lowercases text and splits it on every rune that is not a letter or
// digit. Stopwords are kept and duplicates preserved.
func (n *Normalizer) Tokens(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	folded := cases.Lower(language.English).String(norm.NFKC.String(text))
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Normalize returns the distinct non-stopword tokens of text in first-seen order.
func (n *Normalizer) Normalize(text string) []string {
	tokens := n.Tokens(text)
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if n.IsStopword(tok) {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// IsStopword reports whether token is filtered by Normalize.
func (n *Normalizer) IsStopword(token string) bool {
	_, ok := n.stopwords[token]
	return ok
}
