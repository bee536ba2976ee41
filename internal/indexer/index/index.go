// Package index holds the immutable phrase index: the theme table, the
// phrase table and the word -> phrase posting lists.
package index

import (
	"fmt"
)

type Theme struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Phrase is a distinct verbatim catalog phrase. ThemeIDs is ascending and
// never empty. WordCount is the size of the phrase's normalized word set.
type Phrase struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	ThemeIDs  []int  `json:"theme_ids"`
	WordCount int    `json:"word_count"`
}

// Unreachable reports whether no query can ever match the phrase.
func (p Phrase) Unreachable() bool {
	return p.WordCount == 0
}

type Stats struct {
	Themes      int    `json:"themes"`
	Phrases     int    `json:"phrases"`
	Words       int    `json:"words"`
	Postings    int    `json:"postings"`
	Unreachable int    `json:"unreachable_phrases"`
	Fingerprint string `json:"fingerprint"`
}

// Index is read-only once Build returns it and safe for concurrent use.
type Index struct {
	themes      []Theme
	phrases     []Phrase
	postings    map[string][]int
	fingerprint string
	stats       Stats
}

func (x *Index) Theme(id int) (Theme, bool) {
	if id < 0 || id >= len(x.themes) {
		return Theme{}, false
	}
	return x.themes[id], true
}

func (x *Index) Phrase(id int) (Phrase, bool) {
	if id < 0 || id >= len(x.phrases) {
		return Phrase{}, false
	}
	return x.phrases[id], true
}

// WordCount returns the number of normalized words of phrase id. It panics
// on ids that did not come from this index.
func (x *Index) WordCount(id int) int {
	return x.phrases[id].WordCount
}

// ThemeIDs returns the themes of phrase id. Callers must not modify it.
func (x *Index) ThemeIDs(id int) []int {
	return x.phrases[id].ThemeIDs
}

func (x *Index) ThemeName(id int) string {
	return x.themes[id].Name
}

// Postings returns the ascending phrase ids containing word, or nil.
// Callers must not modify the returned slice.
func (x *Index) Postings(word string) []int {
	return x.postings[word]
}

func (x *Index) Themes() []Theme {
	out := make([]Theme, len(x.themes))
	copy(out, x.themes)
	return out
}

func (x *Index) NumThemes() int  { return len(x.themes) }
func (x *Index) NumPhrases() int { return len(x.phrases) }

// Fingerprint identifies the catalog the index was built from.
func (x *Index) Fingerprint() string {
	return x.fingerprint
}

func (x *Index) Stats() Stats {
	return x.stats
}

// Verify checks the structural invariants between the phrase table and the
// posting lists.
func (x *Index) Verify() error {
	seen := make([]int, len(x.phrases))
	for word, ids := range x.postings {
		if len(ids) == 0 {
			return fmt.Errorf("word %q has an empty posting list", word)
		}
		for i, id := range ids {
			if id < 0 || id >= len(x.phrases) {
				return fmt.Errorf("word %q references unknown phrase %d", word, id)
			}
			if i > 0 && ids[i-1] >= id {
				return fmt.Errorf("posting list of %q is not strictly ascending", word)
			}
			seen[id]++
		}
	}
	for i, p := range x.phrases {
		if p.ID != i {
			return fmt.Errorf("phrase at %d has id %d", i, p.ID)
		}
		if len(p.ThemeIDs) == 0 {
			return fmt.Errorf("phrase %d has no themes", p.ID)
		}
		for j, tid := range p.ThemeIDs {
			if tid < 0 || tid >= len(x.themes) {
				return fmt.Errorf("phrase %d references unknown theme %d", p.ID, tid)
			}
			if j > 0 && p.ThemeIDs[j-1] >= tid {
				return fmt.Errorf("themes of phrase %d are not strictly ascending", p.ID)
			}
		}
		if seen[i] != p.WordCount {
			return fmt.Errorf("phrase %d has word count %d but appears in %d posting lists", p.ID, p.WordCount, seen[i])
		}
	}
	for i, t := range x.themes {
		if t.ID != i {
			return fmt.Errorf("theme at %d has id %d", i, t.ID)
		}
	}
	return nil
}
