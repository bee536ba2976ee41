package tokenizer

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegborzov/themesearcher/internal/indexer/normalizer"
)

// lemmaNormalizer lower-cases, drops stop words, and maps a few surface forms
// to a shared lemma.
func lemmaNormalizer(stop ...string) normalizer.Normalizer {
	stops := normalizer.NewStopWords(stop)
	lemmas := map[string]string{"рецепты": "рецепт", "борща": "борщ", "кухни": "кухня"}
	return normalizer.Func(func(token string) (string, bool, error) {
		lower := strings.ToLower(token)
		if stops.Contains(lower) {
			return "", false, nil
		}
		if l, ok := lemmas[lower]; ok {
			return l, true, nil
		}
		return lower, true, nil
	})
}

func TestRawTokens(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "зимние шины", []string{"зимние", "шины"}},
		{"repeated spaces", "  зимние   шины ", []string{"зимние", "шины"}},
		{"case-sensitive dedupe", "Шины шины Шины", []string{"Шины", "шины"}},
		{"blank", "   ", []string{}},
		{"empty", "", []string{}},
		{"tabs are not separators", "a\tb c", []string{"a\tb", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RawTokens(tt.in))
		})
	}
}

func TestTokenize(t *testing.T) {
	tok := New(lemmaNormalizer("как", "для"))

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"stop words dropped", "как готовить плов", []string{"готовить", "плов"}},
		{"canonical dedupe", "Шины шины ШИНЫ", []string{"шины"}},
		{"lemmas collapse", "рецепты рецепт", []string{"рецепт"}},
		{"only stop words", "как Для", []string{}},
		{"blank", " ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			words, err := tok.Tokenize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, words.Sorted())
		})
	}
}

func TestTokenize_PropagatesNormalizerError(t *testing.T) {
	boom := errors.New("boom")
	tok := New(normalizer.Func(func(token string) (string, bool, error) {
		if token == "bad" {
			return "", false, boom
		}
		return token, true, nil
	}))

	_, err := tok.Tokenize("good bad")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestWordSet_SubsetOf(t *testing.T) {
	a := WordSet{"x": {}, "y": {}}
	b := WordSet{"x": {}, "y": {}, "z": {}}
	assert.True(t, a.SubsetOf(b))
	assert.False(t, b.SubsetOf(a))
	assert.True(t, WordSet{}.SubsetOf(a))
}
