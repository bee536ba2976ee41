package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultPhrasesFile   = "phrases.json"
	DefaultStopWordsFile = "stop_words.txt"
)

// FileSource reads the catalog and stop words from a data directory.
type FileSource struct {
	Dir           string
	PhrasesFile   string
	StopWordsFile string
}

func NewFileSource(dir, phrasesFile, stopWordsFile string) *FileSource {
	if phrasesFile == "" {
		phrasesFile = DefaultPhrasesFile
	}
	if stopWordsFile == "" {
		stopWordsFile = DefaultStopWordsFile
	}
	return &FileSource{Dir: dir, PhrasesFile: phrasesFile, StopWordsFile: stopWordsFile}
}

func (s *FileSource) Catalog(ctx context.Context) (*Catalog, error) {
	path := s.path(s.PhrasesFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	cat, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding catalog %s: %w", path, err)
	}
	return cat, nil
}

func (s *FileSource) StopWords(ctx context.Context) ([]string, error) {
	path := s.path(s.StopWordsFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stop words %s: %w", path, err)
	}
	defer f.Close()
	words, err := ParseStopWords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return words, nil
}

func (s *FileSource) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.Dir, name)
}
