// Package resolver answers theme queries against a built index. A phrase
// matches a query when every normalized word of the phrase occurs among the
// normalized words of the query.
package resolver

import (
	"fmt"
	"sort"

	"github.com/olegborzov/themesearcher/internal/indexer/index"
	"github.com/olegborzov/themesearcher/internal/indexer/tokenizer"
	apperrors "github.com/olegborzov/themesearcher/pkg/errors"
)

// Match is the detailed outcome of one query.
type Match struct {
	Query     string   `json:"query"`
	Words     []string `json:"words"`
	PhraseIDs []int    `json:"phrase_ids"`
	Themes    []string `json:"themes"`
}

type Resolver struct {
	idx *index.Index
	tok *tokenizer.Tokenizer
}

// New returns a Resolver over idx. tok must be the tokenizer idx was built
// with.
func New(idx *index.Index, tok *tokenizer.Tokenizer) *Resolver {
	return &Resolver{idx: idx, tok: tok}
}

func (r *Resolver) Index() *index.Index {
	return r.idx
}

// Resolve returns the names of all themes with at least one phrase covered
// by query. The result has no duplicates; it is ordered by theme id, which
// carries no relevance meaning.
func (r *Resolver) Resolve(query string) ([]string, error) {
	m, err := r.Match(query)
	if err != nil {
		return nil, err
	}
	return m.Themes, nil
}

// Match resolves query and reports the normalized words and phrase ids
// that produced the result.
func (r *Resolver) Match(query string) (*Match, error) {
	words, err := r.Tokenize(query)
	if err != nil {
		return nil, err
	}
	return r.MatchWords(query, words), nil
}

// Tokenize returns the normalized word set of query. Callers that need to
// look at the words first can pass them on to MatchWords.
func (r *Resolver) Tokenize(query string) (tokenizer.WordSet, error) {
	words, err := r.tok.Tokenize(query)
	if err != nil {
		return nil, fmt.Errorf("%w: query %q: %w", apperrors.ErrNormalization, query, err)
	}
	return words, nil
}

// MatchWords resolves an already tokenized query. words must come from
// Tokenize on the same Resolver.
func (r *Resolver) MatchWords(query string, words tokenizer.WordSet) *Match {
	m := &Match{
		Query:     query,
		Words:     words.Sorted(),
		PhraseIDs: []int{},
		Themes:    []string{},
	}
	if len(words) == 0 {
		return m
	}

	hits := make(map[int]int)
	for word := range words {
		for _, id := range r.idx.Postings(word) {
			hits[id]++
		}
	}

	themeSet := make(map[int]struct{})
	for id, n := range hits {
		if n != r.idx.WordCount(id) {
			continue
		}
		m.PhraseIDs = append(m.PhraseIDs, id)
		for _, tid := range r.idx.ThemeIDs(id) {
			themeSet[tid] = struct{}{}
		}
	}
	sort.Ints(m.PhraseIDs)

	themeIDs := make([]int, 0, len(themeSet))
	for tid := range themeSet {
		themeIDs = append(themeIDs, tid)
	}
	sort.Ints(themeIDs)
	for _, tid := range themeIDs {
		m.Themes = append(m.Themes, r.idx.ThemeName(tid))
	}
	return m
}
