package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema creates the tables PostgresSource reads from.
const Schema = `
CREATE TABLE IF NOT EXISTS themes (
    id       SERIAL PRIMARY KEY,
    name     TEXT NOT NULL UNIQUE,
    position INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS theme_phrases (
    theme_id INTEGER NOT NULL REFERENCES themes(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    phrase   TEXT NOT NULL,
    PRIMARY KEY (theme_id, position)
);
CREATE TABLE IF NOT EXISTS stop_words (
    word TEXT PRIMARY KEY
);`

const catalogQuery = `
SELECT t.name, p.phrase
FROM themes t
LEFT JOIN theme_phrases p ON p.theme_id = t.id
ORDER BY t.position, t.id, p.position`

const stopWordsQuery = `SELECT word FROM stop_words ORDER BY word`

// PostgresSource reads the catalog from the tables in Schema.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating catalog schema: %w", err)
	}
	return nil
}

func (s *PostgresSource) Catalog(ctx context.Context) (*Catalog, error) {
	rows, err := s.db.QueryContext(ctx, catalogQuery)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	b := &rowAssembler{}
	for rows.Next() {
		var name string
		var phrase sql.NullString
		if err := rows.Scan(&name, &phrase); err != nil {
			return nil, fmt.Errorf("scanning catalog row: %w", err)
		}
		b.add(name, phrase)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalog rows: %w", err)
	}
	cat := b.catalog()
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

func (s *PostgresSource) StopWords(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, stopWordsQuery)
	if err != nil {
		return nil, fmt.Errorf("querying stop words: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scanning stop word: %w", err)
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stop words: %w", err)
	}
	return words, nil
}

// Import replaces the stored catalog and stop words inside tx.
func Import(ctx context.Context, tx *sql.Tx, cat *Catalog, stopWords []string) error {
	if err := cat.Validate(); err != nil {
		return err
	}
	for _, stmt := range []string{"DELETE FROM theme_phrases", "DELETE FROM themes", "DELETE FROM stop_words"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clearing catalog: %w", err)
		}
	}
	for pos, t := range cat.Themes {
		var id int64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO themes (name, position) VALUES ($1, $2) RETURNING id`, t.Name, pos,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("inserting theme %q: %w", t.Name, err)
		}
		for ppos, p := range t.Phrases {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO theme_phrases (theme_id, position, phrase) VALUES ($1, $2, $3)`, id, ppos, p,
			)
			if err != nil {
				return fmt.Errorf("inserting phrase %q of theme %q: %w", p, t.Name, err)
			}
		}
	}
	for _, w := range stopWords {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stop_words (word) VALUES ($1) ON CONFLICT DO NOTHING`, w,
		); err != nil {
			return fmt.Errorf("inserting stop word %q: %w", w, err)
		}
	}
	return nil
}

// rowAssembler folds ordered (theme, phrase) join rows into a Catalog. A
// NULL phrase marks a theme without phrases.
type rowAssembler struct {
	themes []ThemeEntry
}

func (a *rowAssembler) add(name string, phrase sql.NullString) {
	n := len(a.themes)
	if n == 0 || a.themes[n-1].Name != name {
		a.themes = append(a.themes, ThemeEntry{Name: name, Phrases: []string{}})
		n++
	}
	if phrase.Valid {
		a.themes[n-1].Phrases = append(a.themes[n-1].Phrases, phrase.String)
	}
}

func (a *rowAssembler) catalog() *Catalog {
	if a.themes == nil {
		return &Catalog{Themes: []ThemeEntry{}}
	}
	return &Catalog{Themes: a.themes}
}
