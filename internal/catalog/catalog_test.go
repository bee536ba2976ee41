package catalog

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/olegborzov/themesearcher/pkg/errors"
)

const sampleJSON = `{
  "товары": ["тайская кухня", "зимние шины"],
  "книги": ["дети капитана гранта", "тайская кухня", "граф монте-кристо"],
  "фильмы": ["дети капитана гранта", "китайская кухня", "граф монте-кристо"],
  "кухня": ["рецепт борща", "как готовить плов", "рецепты тайской кухни"]
}`

func TestDecode_JSONPreservesOrder(t *testing.T) {
	cat, err := Decode([]byte(sampleJSON))
	require.NoError(t, err)

	names := make([]string, 0, len(cat.Themes))
	for _, th := range cat.Themes {
		names = append(names, th.Name)
	}
	assert.Equal(t, []string{"товары", "книги", "фильмы", "кухня"}, names)
	assert.Equal(t, []string{"рецепт борща", "как готовить плов", "рецепты тайской кухни"}, cat.Themes[3].Phrases)
	assert.Equal(t, 11, cat.PhraseCount())
}

func TestDecode_YAML(t *testing.T) {
	cat, err := Decode([]byte("b:\n  - one two\na: []\n"))
	require.NoError(t, err)
	require.Len(t, cat.Themes, 2)
	assert.Equal(t, "b", cat.Themes[0].Name)
	assert.Equal(t, []string{"one two"}, cat.Themes[0].Phrases)
	assert.Equal(t, "a", cat.Themes[1].Name)
	assert.Empty(t, cat.Themes[1].Phrases)
}

func TestDecode_JSONEscapesAndLongKeys(t *testing.T) {
	longName := strings.Repeat("т", 1100)
	tests := []struct {
		name string
		doc  string
		want []ThemeEntry
	}{
		{"escaped solidus", `{"a\/b": ["x\/y"]}`,
			[]ThemeEntry{{Name: "a/b", Phrases: []string{"x/y"}}}},
		{"surrogate pair", `{"e": ["\ud83d\ude00 x"]}`,
			[]ThemeEntry{{Name: "e", Phrases: []string{"\U0001F600 x"}}}},
		{"ascii escapes", `{"\u043a\u043d\u0438\u0433\u0438": ["\u0434\u0435\u0442\u0438"]}`,
			[]ThemeEntry{{Name: "книги", Phrases: []string{"дети"}}}},
		{"long theme name", `{"` + longName + `": ["a b"]}`,
			[]ThemeEntry{{Name: longName, Phrases: []string{"a b"}}}},
		{"minified with leading whitespace", "\n\t{\"a\":[],\"b\":[\"c\"]}",
			[]ThemeEntry{{Name: "a", Phrases: []string{}}, {Name: "b", Phrases: []string{"c"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := Decode([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cat.Themes)
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"empty document", "", "empty document"},
		{"top-level list", `["a", "b"]`, "top level must be a mapping"},
		{"numeric phrase", `{"a": ["ok", 42]}`, "must be a string, got int"},
		{"null phrase", `{"a": [null]}`, "got null"},
		{"nested phrase", `{"a": [["x"]]}`, "got list"},
		{"phrases not a list", `{"a": "single phrase"}`, "must be a list, got str"},
		{"phrases object", `{"a": {"b": "c"}}`, "must be a list, got mapping"},
		{"non-string key", "1: [a]", "theme name must be a string, got int"},
		{"empty theme name", `{"": ["a"]}`, "empty name"},
		{"duplicate theme", `{"a": ["x"], "a": ["y"]}`, `duplicate theme "a"`},
		{"syntax", `{"a": [`, ""},
		{"float phrase", `{"a": [1.5]}`, "got float"},
		{"trailing data", `{"a": []} {"b": []}`, "unexpected data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := Decode([]byte(tt.doc))
			require.Error(t, err)
			assert.Nil(t, cat)
			assert.ErrorIs(t, err, apperrors.ErrInvalidCatalog)
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	a, err := Decode([]byte(sampleJSON))
	require.NoError(t, err)
	b, err := Decode([]byte(sampleJSON))
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Themes[0], b.Themes[1] = b.Themes[1], b.Themes[0]
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint(), "order is part of the fingerprint")

	// Boundaries between fields must matter.
	x := &Catalog{Themes: []ThemeEntry{{Name: "ab", Phrases: []string{"c"}}}}
	y := &Catalog{Themes: []ThemeEntry{{Name: "a", Phrases: []string{"bc"}}}}
	assert.NotEqual(t, x.Fingerprint(), y.Fingerprint())
}

func TestParseStopWords(t *testing.T) {
	words, err := ParseStopWords(strings.NewReader("для\n  У \n\n# comment\nКАК\r\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"для", "у", "как"}, words)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultPhrasesFile), []byte(sampleJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultStopWordsFile), []byte("как\nдля\n"), 0o644))

	src := NewFileSource(dir, "", "")
	ctx := context.Background()

	cat, err := src.Catalog(ctx)
	require.NoError(t, err)
	assert.Len(t, cat.Themes, 4)

	words, err := src.StopWords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"как", "для"}, words)
}

func TestFileSource_Errors(t *testing.T) {
	dir := t.TempDir()
	src := NewFileSource(dir, "", "")

	_, err := src.Catalog(context.Background())
	require.Error(t, err)
	_, err = src.StopWords(context.Background())
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultPhrasesFile), []byte(`{"a": [1]}`), 0o644))
	_, err = src.Catalog(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrInvalidCatalog)
}

func TestRowAssembler(t *testing.T) {
	a := &rowAssembler{}
	a.add("товары", sql.NullString{String: "зимние шины", Valid: true})
	a.add("товары", sql.NullString{String: "тайская кухня", Valid: true})
	a.add("пусто", sql.NullString{})
	a.add("книги", sql.NullString{String: "тайская кухня", Valid: true})

	cat := a.catalog()
	require.NoError(t, cat.Validate())
	require.Len(t, cat.Themes, 3)
	assert.Equal(t, []string{"зимние шины", "тайская кухня"}, cat.Themes[0].Phrases)
	assert.Equal(t, []string{}, cat.Themes[1].Phrases)
	assert.Equal(t, "книги", cat.Themes[2].Name)

	assert.NotNil(t, (&rowAssembler{}).catalog().Themes)
}

func TestValidate_Nil(t *testing.T) {
	var c *Catalog
	assert.ErrorIs(t, c.Validate(), apperrors.ErrInvalidCatalog)
}
