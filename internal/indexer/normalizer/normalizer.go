// Package normalizer reduces raw word tokens to a canonical form. Stop words
// are reported as absent rather than normalized.
package normalizer

import (
	"fmt"
	"strings"

	"github.com/kljensen/snowball"
)

// Normalizer maps a raw token to its canonical form. ok is false when the
// token is a stop word. Implementations must be deterministic.
type Normalizer interface {
	Normalize(token string) (word string, ok bool, err error)
}

// Func adapts a plain function to the Normalizer interface.
type Func func(token string) (string, bool, error)

func (f Func) Normalize(token string) (string, bool, error) {
	return f(token)
}

// StopWords is a set of lower-case words excluded from normalization.
type StopWords map[string]struct{}

// NewStopWords builds a set from words, lower-casing each entry.
func NewStopWords(words []string) StopWords {
	s := make(StopWords, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		s[w] = struct{}{}
	}
	return s
}

func (s StopWords) Contains(lower string) bool {
	_, ok := s[lower]
	return ok
}

// Snowball normalizes with the Snowball stemmer for a fixed language.
type Snowball struct {
	language string
	stop     StopWords
}

// NewSnowball returns a Snowball normalizer. The language must be one the
// snowball package supports (russian, english, french, ...).
func NewSnowball(language string, stop StopWords) (*Snowball, error) {
	if _, err := snowball.Stem("probe", language, true); err != nil {
		return nil, fmt.Errorf("snowball language %q: %w", language, err)
	}
	if stop == nil {
		stop = StopWords{}
	}
	return &Snowball{language: language, stop: stop}, nil
}

func (s *Snowball) Language() string {
	return s.language
}

func (s *Snowball) Normalize(token string) (string, bool, error) {
	lower := strings.ToLower(token)
	if s.stop.Contains(lower) {
		return "", false, nil
	}
	stemmed, err := snowball.Stem(lower, s.language, true)
	if err != nil {
		return "", false, fmt.Errorf("stemming %q: %w", token, err)
	}
	if stemmed == "" {
		stemmed = lower
	}
	return stemmed, true, nil
}
