// Package catalog holds the ordered theme -> phrases mapping the index is
// built from, and the sources it can be loaded from.
package catalog

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/olegborzov/themesearcher/pkg/errors"
)

// ThemeEntry is one theme with its phrases, both in source order.
type ThemeEntry struct {
	Name    string
	Phrases []string
}

// Catalog is an ordered list of themes. Order determines theme ids.
type Catalog struct {
	Themes []ThemeEntry
}

// Source provides a catalog and the stop words that go with it.
type Source interface {
	Catalog(ctx context.Context) (*Catalog, error)
	StopWords(ctx context.Context) ([]string, error)
}

// Validate checks the structural rules Decode enforces, for catalogs built
// in code or read from other sources.
func (c *Catalog) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: catalog is nil", apperrors.ErrInvalidCatalog)
	}
	seen := make(map[string]struct{}, len(c.Themes))
	for i, t := range c.Themes {
		if t.Name == "" {
			return fmt.Errorf("%w: theme #%d has an empty name", apperrors.ErrInvalidCatalog, i)
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("%w: duplicate theme %q", apperrors.ErrInvalidCatalog, t.Name)
		}
		seen[t.Name] = struct{}{}
	}
	return nil
}

// PhraseCount returns the number of phrase entries, duplicates included.
func (c *Catalog) PhraseCount() int {
	n := 0
	for _, t := range c.Themes {
		n += len(t.Phrases)
	}
	return n
}

// Fingerprint is a stable hash of the catalog content and order.
func (c *Catalog) Fingerprint() string {
	h := sha256.New()
	for _, t := range c.Themes {
		fmt.Fprintf(h, "t%d:%s\n", len(t.Name), t.Name)
		for _, p := range t.Phrases {
			fmt.Fprintf(h, "p%d:%s\n", len(p), p)
		}
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Decode parses a JSON or YAML document whose top level is a mapping of
// theme name to a list of phrase strings. Key order is preserved. Anything
// else (numbers, nulls, nested objects, duplicate keys) is rejected.
// Documents starting with '{' are read as JSON, everything else as YAML.
func Decode(data []byte) (*Catalog, error) {
	var (
		cat *Catalog
		err error
	)
	if trimmed := bytes.TrimLeft(data, " \t\r\n"); len(trimmed) > 0 && trimmed[0] == '{' {
		cat, err = decodeJSON(trimmed)
	} else {
		cat, err = decodeYAML(data)
	}
	if err != nil {
		return nil, err
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// decodeJSON walks the token stream, since a map would lose key order.
func decodeJSON(data []byte) (*Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: offset %d: %s", apperrors.ErrInvalidCatalog, dec.InputOffset(),
			fmt.Sprintf(format, args...))
	}
	token := func() (json.Token, error) {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidCatalog, err)
		}
		return tok, nil
	}

	if _, err := token(); err != nil {
		return nil, err
	}
	cat := &Catalog{Themes: []ThemeEntry{}}
	for dec.More() {
		tok, err := token()
		if err != nil {
			return nil, err
		}
		name := tok.(string)

		if tok, err = token(); err != nil {
			return nil, err
		}
		if tok != json.Delim('[') {
			return nil, invalid("phrases of theme %q must be a list, got %s", name, describeToken(tok))
		}
		entry := ThemeEntry{Name: name, Phrases: []string{}}
		for dec.More() {
			if tok, err = token(); err != nil {
				return nil, err
			}
			phrase, ok := tok.(string)
			if !ok {
				return nil, invalid("phrase of theme %q must be a string, got %s", name, describeToken(tok))
			}
			entry.Phrases = append(entry.Phrases, phrase)
		}
		if _, err := token(); err != nil {
			return nil, err
		}
		cat.Themes = append(cat.Themes, entry)
	}
	if _, err := token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, invalid("unexpected data after the top-level object")
	}
	return cat, nil
}

func describeToken(tok json.Token) string {
	switch v := tok.(type) {
	case json.Delim:
		if v == '{' {
			return "mapping"
		}
		return "list"
	case string:
		return "str"
	case json.Number:
		if strings.ContainsAny(v.String(), ".eE") {
			return "float"
		}
		return "int"
	case bool:
		return "bool"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", tok)
	}
}

func decodeYAML(data []byte) (*Catalog, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidCatalog, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", apperrors.ErrInvalidCatalog)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: top level must be a mapping of theme to phrases",
			apperrors.ErrInvalidCatalog, root.Line)
	}

	cat := &Catalog{Themes: make([]ThemeEntry, 0, len(root.Content)/2)}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if !isString(key) {
			return nil, fmt.Errorf("%w: line %d: theme name must be a string, got %s",
				apperrors.ErrInvalidCatalog, key.Line, describe(key))
		}
		if val.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("%w: line %d: phrases of theme %q must be a list, got %s",
				apperrors.ErrInvalidCatalog, val.Line, key.Value, describe(val))
		}
		entry := ThemeEntry{Name: key.Value, Phrases: make([]string, 0, len(val.Content))}
		for _, item := range val.Content {
			if !isString(item) {
				return nil, fmt.Errorf("%w: line %d: phrase of theme %q must be a string, got %s",
					apperrors.ErrInvalidCatalog, item.Line, key.Value, describe(item))
			}
			entry.Phrases = append(entry.Phrases, item.Value)
		}
		cat.Themes = append(cat.Themes, entry)
	}
	return cat, nil
}

// ParseStopWords reads one stop word per line. Words are trimmed and
// lower-cased; blank lines and lines starting with '#' are skipped.
func ParseStopWords(r io.Reader) ([]string, error) {
	var words []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, strings.ToLower(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading stop words: %w", err)
	}
	return words, nil
}

func isString(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!str"
}

func describe(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return strings.TrimPrefix(n.Tag, "!!")
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "list"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown node"
	}
}
