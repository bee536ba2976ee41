package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/olegborzov/themesearcher/internal/catalog"
	"github.com/olegborzov/themesearcher/internal/indexer/index"
	"github.com/olegborzov/themesearcher/internal/indexer/normalizer"
	"github.com/olegborzov/themesearcher/internal/indexer/tokenizer"
	"github.com/olegborzov/themesearcher/internal/searcher/resolver"
	"github.com/olegborzov/themesearcher/pkg/config"
	apperrors "github.com/olegborzov/themesearcher/pkg/errors"
	"github.com/olegborzov/themesearcher/pkg/postgres"
	"github.com/olegborzov/themesearcher/pkg/resilience"
)

const loadTimeout = 30 * time.Second

// pipeline is a loaded catalog turned into a ready resolver.
type pipeline struct {
	catalog       *catalog.Catalog
	normalizer    *normalizer.Cached
	index         *index.Index
	resolver      *resolver.Resolver
	buildDuration time.Duration
	close         func() error
}

// openSource returns the configured catalog source and a func releasing it.
func openSource(ctx context.Context, cfg *config.Config) (catalog.Source, func() error, error) {
	switch cfg.Catalog.Source {
	case config.SourceFile:
		src := catalog.NewFileSource(cfg.Catalog.DataDir, cfg.Catalog.PhrasesFile, cfg.Catalog.StopWordsFile)
		return src, func() error { return nil }, nil
	case config.SourcePostgres:
		pg, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
		}
		return catalog.NewPostgresSource(pg.DB), pg.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}

// loadPipeline reads the catalog and stop words and builds the index.
// Transient source failures are retried; malformed data is not.
func loadPipeline(ctx context.Context, cfg *config.Config) (*pipeline, error) {
	log := slog.Default().With("component", "pipeline")

	src, closeSrc, err := openSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var (
		cat       *catalog.Catalog
		stopWords []string
	)
	err = resilience.WithTimeout(ctx, loadTimeout, "catalog-load", func(ctx context.Context) error {
		return resilience.Retry(ctx, "catalog-load", resilience.RetryConfig{}, func() error {
			var err error
			if cat, err = src.Catalog(ctx); err != nil {
				return classifyLoadError(err)
			}
			if stopWords, err = src.StopWords(ctx); err != nil {
				return classifyLoadError(err)
			}
			return nil
		})
	})
	if err != nil {
		_ = closeSrc()
		return nil, fmt.Errorf("loading catalog from %s source: %w", cfg.Catalog.Source, err)
	}
	log.Info("catalog loaded",
		"source", cfg.Catalog.Source,
		"themes", len(cat.Themes),
		"phrases", cat.PhraseCount(),
		"stop_words", len(stopWords),
	)

	stem, err := normalizer.NewSnowball(cfg.Normalizer.Language, normalizer.NewStopWords(stopWords))
	if err != nil {
		_ = closeSrc()
		return nil, err
	}
	cached, err := normalizer.NewCached(stem, cfg.Normalizer.CacheSize)
	if err != nil {
		_ = closeSrc()
		return nil, err
	}
	tok := tokenizer.New(cached)

	start := time.Now()
	idx, err := index.Build(cat, tok)
	if err != nil {
		_ = closeSrc()
		return nil, err
	}

	return &pipeline{
		catalog:       cat,
		normalizer:    cached,
		index:         idx,
		resolver:      resolver.New(idx, tok),
		buildDuration: time.Since(start),
		close:         closeSrc,
	}, nil
}

func classifyLoadError(err error) error {
	if errors.Is(err, apperrors.ErrInvalidCatalog) || errors.Is(err, fs.ErrNotExist) {
		return resilience.Permanent(err)
	}
	return err
}
