// Package tokenizer turns phrase and query text into sets of normalized
// words. The same Tokenizer must serve both indexing and querying so that
// both sides agree on normalization and stop words.
package tokenizer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/olegborzov/themesearcher/internal/indexer/normalizer"
)

// WordSet is a set of normalized words.
type WordSet map[string]struct{}

func (s WordSet) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// Sorted returns the words in lexical order.
func (s WordSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for w := range s {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// SubsetOf reports whether every word of s is in other.
func (s WordSet) SubsetOf(other WordSet) bool {
	for w := range s {
		if !other.Contains(w) {
			return false
		}
	}
	return true
}

type Tokenizer struct {
	norm normalizer.Normalizer
}

func New(norm normalizer.Normalizer) *Tokenizer {
	return &Tokenizer{norm: norm}
}

// Tokenize splits text on single spaces, drops empty pieces, and returns
// the set of normalized words. Stop words are left out, so the result may
// be empty.
func (t *Tokenizer) Tokenize(text string) (WordSet, error) {
	raw := RawTokens(text)
	words := make(WordSet, len(raw))
	for _, token := range raw {
		word, ok, err := t.norm.Normalize(token)
		if err != nil {
			return nil, fmt.Errorf("normalizing %q: %w", token, err)
		}
		if ok {
			words[word] = struct{}{}
		}
	}
	return words, nil
}

// RawTokens returns the distinct non-empty space-separated tokens of text in
// first-seen order. Comparison is case-sensitive.
func RawTokens(text string) []string {
	parts := strings.Split(text, " ")
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
