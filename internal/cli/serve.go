package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/olegborzov/themesearcher/internal/analytics"
	"github.com/olegborzov/themesearcher/internal/searcher/cache"
	"github.com/olegborzov/themesearcher/internal/searcher/handler"
	"github.com/olegborzov/themesearcher/pkg/config"
	"github.com/olegborzov/themesearcher/pkg/health"
	"github.com/olegborzov/themesearcher/pkg/kafka"
	"github.com/olegborzov/themesearcher/pkg/metrics"
	"github.com/olegborzov/themesearcher/pkg/middleware"
	pkgredis "github.com/olegborzov/themesearcher/pkg/redis"
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Build the index and serve theme queries over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a.cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting theme searcher", "port", cfg.Server.Port, "source", cfg.Catalog.Source)

	p, err := loadPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	st := p.index.Stats()
	m.IndexThemes.Set(float64(st.Themes))
	m.IndexPhrases.Set(float64(st.Phrases))
	m.IndexWords.Set(float64(st.Words))
	m.IndexUnreachable.Set(float64(st.Unreachable))
	m.IndexBuildDuration.Set(p.buildDuration.Seconds())
	m.WatchNormalizerCache(
		func() int64 { return p.normalizer.Stats().Hits },
		func() int64 { return p.normalizer.Stats().Misses },
	)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, reg)
		defer shutdownMetrics(context.Background())
	}

	checker := health.NewChecker()
	checker.Register("index", func(context.Context) health.ComponentHealth {
		if err := p.index.Verify(); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d themes, %d phrases", st.Themes, st.Phrases),
		}
	})

	opts := handler.Options{
		Metrics:         m,
		NormalizerStats: p.normalizer.Stats,
	}

	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, query caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			opts.Cache = cache.New(redisClient, cfg.Redis.CacheTTL, p.index.Fingerprint(), pkgredis.IsNilError)
			checker.Register("redis", health.Ping(redisClient.Ping, false))
			slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, cfg.Kafka.BufferSize, 100, 5*time.Second)
		collector.Start(ctx)
		defer collector.Close()
		opts.Collector = collector
		slog.Info("query analytics enabled", "topic", producer.Topic())
	}

	h := handler.New(p.resolver, opts)
	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m,
		handler.PathQuery,
		handler.PathIndexStats,
		handler.PathCacheStats,
		handler.PathCacheInvalidate,
	)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout + time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("theme searcher listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("theme searcher stopped")
	return nil
}
