// Package handler serves theme queries over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegborzov/themesearcher/internal/analytics"
	"github.com/olegborzov/themesearcher/internal/indexer/index"
	"github.com/olegborzov/themesearcher/internal/indexer/normalizer"
	"github.com/olegborzov/themesearcher/internal/indexer/tokenizer"
	"github.com/olegborzov/themesearcher/internal/searcher/cache"
	"github.com/olegborzov/themesearcher/internal/searcher/resolver"
	apperrors "github.com/olegborzov/themesearcher/pkg/errors"
	"github.com/olegborzov/themesearcher/pkg/logger"
	"github.com/olegborzov/themesearcher/pkg/metrics"
)

// MissingQueryMessage is returned with 400 when the query parameter is
// absent or empty.
const MissingQueryMessage = "Запрос не указан"

// Paths served by the handler.
const (
	PathQuery           = "/"
	PathIndexStats      = "/api/v1/index/stats"
	PathCacheStats      = "/api/v1/cache/stats"
	PathCacheInvalidate = "/api/v1/cache/invalidate"
)

// Resolver is the query side of *resolver.Resolver.
type Resolver interface {
	Tokenize(query string) (tokenizer.WordSet, error)
	MatchWords(query string, words tokenizer.WordSet) *resolver.Match
	Index() *index.Index
}

// Options holds the optional collaborators. Every field may be nil.
type Options struct {
	Cache           *cache.QueryCache
	Collector       *analytics.Collector
	Metrics         *metrics.Metrics
	NormalizerStats func() normalizer.CacheStats
}

type Handler struct {
	resolver Resolver
	opts     Options
	logger   *slog.Logger
}

func New(res Resolver, opts Options) *Handler {
	return &Handler{
		resolver: res,
		opts:     opts,
		logger:   slog.Default().With("component", "query-handler"),
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+PathQuery+"{$}", h.Query)
	mux.HandleFunc("GET "+PathIndexStats, h.IndexStats)
	mux.HandleFunc("GET "+PathCacheStats, h.CacheStats)
	mux.HandleFunc("POST "+PathCacheInvalidate, h.CacheInvalidate)
}

type queryResponse struct {
	Themes []string `json:"themes"`
	Query  string   `json:"query"`
}

type errorResponse struct {
	ErrorMsg string `json:"error_msg"`
}

// Query answers GET /?query=... with the themes the query covers.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("query")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, MissingQueryMessage)
		return
	}

	res, err := h.resolve(ctx, query)
	latency := time.Since(start)
	if err != nil {
		log.Error("query resolution failed", "query", query, "error", err)
		h.observe(metrics.OutcomeError, latency, cacheNone, nil)
		h.track(ctx, analytics.QueryEvent{
			Type:      analytics.EventQueryError,
			Query:     query,
			Themes:    []string{},
			LatencyMs: latency.Milliseconds(),
			Error:     err.Error(),
		})
		status := apperrors.HTTPStatusCode(err)
		msg := err.Error()
		if status >= http.StatusInternalServerError {
			msg = "internal error"
		}
		h.writeError(w, status, msg)
		return
	}

	outcome := metrics.OutcomeMatched
	eventType := analytics.EventQuery
	switch {
	case len(res.words) == 0:
		outcome = metrics.OutcomeEmptyQuery
		eventType = analytics.EventZeroResult
	case len(res.themes) == 0:
		outcome = metrics.OutcomeZeroResult
		eventType = analytics.EventZeroResult
	}
	h.observe(outcome, latency, res.cacheStatus, res.themes)
	h.track(ctx, analytics.QueryEvent{
		Type:      eventType,
		Query:     query,
		Words:     res.words,
		Themes:    res.themes,
		Matched:   res.matched,
		LatencyMs: latency.Milliseconds(),
		CacheHit:  res.cacheStatus == cacheHit,
	})

	log.Info("query resolved",
		"query", query,
		"themes", len(res.themes),
		"cache", res.cacheStatus,
		"latency_us", latency.Microseconds(),
	)
	h.writeJSON(w, http.StatusOK, queryResponse{Themes: res.themes, Query: query})
}

// Values of the cache_status latency label.
const (
	cacheNone = "none"
	cacheHit  = "hit"
	cacheMiss = "miss"
)

type resolution struct {
	words       []string
	themes      []string
	matched     int
	cacheStatus string
}

// resolve tokenizes query first, so queries without words never reach the
// query cache. The cache is consulted only for the coverage step.
func (h *Handler) resolve(ctx context.Context, query string) (resolution, error) {
	words, err := h.resolver.Tokenize(query)
	if err != nil {
		return resolution{}, err
	}
	res := resolution{words: words.Sorted(), themes: []string{}, cacheStatus: cacheNone}
	if len(words) == 0 {
		return res, nil
	}

	if h.opts.Cache == nil {
		m := h.resolver.MatchWords(query, words)
		res.themes, res.matched = m.Themes, len(m.PhraseIDs)
		return res, nil
	}

	cached, hit, err := h.opts.Cache.GetOrCompute(ctx, query, func() (cache.Result, error) {
		m := h.resolver.MatchWords(query, words)
		return cache.Result{Themes: m.Themes, Matched: len(m.PhraseIDs)}, nil
	})
	if err != nil {
		return resolution{}, err
	}
	res.themes, res.matched = cached.Themes, cached.Matched
	res.cacheStatus = cacheMiss
	if hit {
		res.cacheStatus = cacheHit
	}
	return res, nil
}

func (h *Handler) observe(outcome string, latency time.Duration, cacheStatus string, themes []string) {
	m := h.opts.Metrics
	if m == nil {
		return
	}
	m.ResolveTotal.WithLabelValues(outcome).Inc()
	switch cacheStatus {
	case cacheHit:
		m.QueryCacheHits.Inc()
	case cacheMiss:
		m.QueryCacheMisses.Inc()
	}
	m.ResolveLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
	if outcome != metrics.OutcomeError {
		m.ThemesPerQuery.Observe(float64(len(themes)))
	}
}

func (h *Handler) track(ctx context.Context, event analytics.QueryEvent) {
	if h.opts.Collector == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	event.RequestID = logger.RequestID(ctx)
	h.opts.Collector.Track(event)
}

func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.resolver.Index().Stats())
}

type cacheStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
	Len     *int    `json:"len,omitempty"`
	Cap     *int    `json:"capacity,omitempty"`
}

func newCacheStats(hits, misses int64) *cacheStats {
	s := &cacheStats{Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	return s
}

// CacheStats reports the word normalization cache and the query result
// cache. A cache that is not configured is reported as null.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]*cacheStats{"normalizer": nil, "query": nil}
	if h.opts.NormalizerStats != nil {
		ns := h.opts.NormalizerStats()
		s := newCacheStats(ns.Hits, ns.Misses)
		s.Len, s.Cap = &ns.Len, &ns.Capacity
		resp["normalizer"] = s
	}
	if h.opts.Cache != nil {
		resp["query"] = newCacheStats(h.opts.Cache.Stats())
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.opts.Cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "query cache is disabled")
		return
	}
	if err := h.opts.Cache.Invalidate(r.Context()); err != nil {
		logger.FromContext(r.Context()).Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{ErrorMsg: message})
}
