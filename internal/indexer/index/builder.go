package index

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/olegborzov/themesearcher/internal/catalog"
	"github.com/olegborzov/themesearcher/internal/indexer/tokenizer"
	apperrors "github.com/olegborzov/themesearcher/pkg/errors"
)

type builder struct {
	tok       *tokenizer.Tokenizer
	themes    []Theme
	phrases   []Phrase
	phraseIDs map[string]int
	postings  map[string][]int
}

// Build indexes cat with tok. Themes get ids in catalog order, phrases in
// first-seen order. A phrase text seen again under another theme gains that
// theme instead of a new entry. On any error no index is returned.
//
// tok must be the tokenizer later used for queries.
func Build(cat *catalog.Catalog, tok *tokenizer.Tokenizer) (*Index, error) {
	start := time.Now()
	if err := cat.Validate(); err != nil {
		return nil, err
	}

	b := &builder{
		tok:       tok,
		themes:    make([]Theme, 0, len(cat.Themes)),
		phrases:   make([]Phrase, 0, cat.PhraseCount()),
		phraseIDs: make(map[string]int, cat.PhraseCount()),
		postings:  make(map[string][]int),
	}
	for _, entry := range cat.Themes {
		if err := b.addTheme(entry); err != nil {
			return nil, err
		}
	}

	idx := &Index{
		themes:      b.themes,
		phrases:     b.phrases,
		postings:    b.postings,
		fingerprint: cat.Fingerprint(),
	}
	idx.stats = computeStats(idx)

	slog.Default().With("component", "index-builder").Info("index built",
		"themes", idx.stats.Themes,
		"phrases", idx.stats.Phrases,
		"words", idx.stats.Words,
		"unreachable_phrases", idx.stats.Unreachable,
		"fingerprint", idx.fingerprint,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return idx, nil
}

func (b *builder) addTheme(entry catalog.ThemeEntry) error {
	themeID := len(b.themes)
	b.themes = append(b.themes, Theme{ID: themeID, Name: entry.Name})
	for _, text := range entry.Phrases {
		if err := b.addPhrase(text, themeID); err != nil {
			return fmt.Errorf("theme %q: %w", entry.Name, err)
		}
	}
	return nil
}

func (b *builder) addPhrase(text string, themeID int) error {
	if id, ok := b.phraseIDs[text]; ok {
		p := &b.phrases[id]
		// themeID is the largest id handed out so far.
		if p.ThemeIDs[len(p.ThemeIDs)-1] != themeID {
			p.ThemeIDs = append(p.ThemeIDs, themeID)
		}
		return nil
	}

	words, err := b.tok.Tokenize(text)
	if err != nil {
		return fmt.Errorf("%w: phrase %q: %w", apperrors.ErrNormalization, text, err)
	}
	id := len(b.phrases)
	b.phrases = append(b.phrases, Phrase{
		ID:        id,
		Text:      text,
		ThemeIDs:  []int{themeID},
		WordCount: len(words),
	})
	b.phraseIDs[text] = id
	for word := range words {
		b.postings[word] = append(b.postings[word], id)
	}
	return nil
}

func computeStats(x *Index) Stats {
	s := Stats{
		Themes:      len(x.themes),
		Phrases:     len(x.phrases),
		Words:       len(x.postings),
		Fingerprint: x.fingerprint,
	}
	for _, ids := range x.postings {
		s.Postings += len(ids)
	}
	for _, p := range x.phrases {
		if p.Unreachable() {
			s.Unreachable++
		}
	}
	return s
}
