package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStopWords(t *testing.T) {
	s := NewStopWords([]string{"Для", " у ", "", "как"})
	assert.Len(t, s, 3)
	assert.True(t, s.Contains("для"))
	assert.True(t, s.Contains("у"))
	assert.False(t, s.Contains("Для"))
}

func TestNewSnowball_UnknownLanguage(t *testing.T) {
	_, err := NewSnowball("klingon", nil)
	require.Error(t, err)
}

func TestSnowball_StopWordsCaseInsensitive(t *testing.T) {
	n, err := NewSnowball("russian", NewStopWords([]string{"как", "на"}))
	require.NoError(t, err)

	for _, token := range []string{"как", "КАК", "Как", "на"} {
		_, ok, err := n.Normalize(token)
		require.NoError(t, err)
		assert.False(t, ok, token)
	}
}

func TestSnowball_RussianInflections(t *testing.T) {
	n, err := NewSnowball("russian", nil)
	require.NoError(t, err)

	pairs := [][2]string{
		{"рецепты", "рецепт"},
		{"борща", "борщ"},
		{"Кухня", "кухни"},
		{"тайская", "тайской"},
	}
	for _, p := range pairs {
		a, okA, err := n.Normalize(p[0])
		require.NoError(t, err)
		b, okB, err := n.Normalize(p[1])
		require.NoError(t, err)
		assert.True(t, okA && okB)
		assert.Equal(t, a, b, "%s vs %s", p[0], p[1])
	}
}

func TestSnowball_Deterministic(t *testing.T) {
	n, err := NewSnowball("russian", nil)
	require.NoError(t, err)
	first, _, _ := n.Normalize("капитана")
	for i := 0; i < 10; i++ {
		again, _, _ := n.Normalize("капитана")
		assert.Equal(t, first, again)
	}
}

func TestFunc(t *testing.T) {
	f := Func(func(token string) (string, bool, error) { return token + "!", true, nil })
	word, ok, err := f.Normalize("x")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x!", word)
}
