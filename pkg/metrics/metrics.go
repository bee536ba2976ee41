// Package metrics defines the Prometheus collectors of the theme searcher
// and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "themesearcher"

// Resolve outcomes used as the "outcome" label.
const (
	OutcomeMatched    = "matched"
	OutcomeZeroResult = "zero_result"
	OutcomeEmptyQuery = "empty_query"
	OutcomeError      = "error"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	ResolveTotal         *prometheus.CounterVec
	ResolveLatency       *prometheus.HistogramVec
	ThemesPerQuery       prometheus.Histogram
	QueryCacheHits       prometheus.Counter
	QueryCacheMisses     prometheus.Counter
	IndexThemes          prometheus.Gauge
	IndexPhrases         prometheus.Gauge
	IndexWords           prometheus.Gauge
	IndexUnreachable     prometheus.Gauge
	IndexBuildDuration   prometheus.Gauge

	reg prometheus.Registerer
}

// New creates all collectors and registers them with reg. A nil reg means
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds.",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed.",
		}),
		ResolveTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolve_queries_total",
				Help:      "Theme queries by outcome (matched, zero_result, empty_query, error).",
			},
			[]string{"outcome"},
		),
		ResolveLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolve_latency_seconds",
				Help:      "Theme query latency in seconds.",
				Buckets:   []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"cache_status"},
		),
		ThemesPerQuery: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "themes_per_query",
			Help:      "Number of themes returned per query.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 25},
		}),
		QueryCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_cache_hits_total",
			Help:      "Total number of query result cache hits.",
		}),
		QueryCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_cache_misses_total",
			Help:      "Total number of query result cache misses.",
		}),
		IndexThemes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_themes",
			Help:      "Themes in the serving index.",
		}),
		IndexPhrases: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_phrases",
			Help:      "Distinct phrases in the serving index.",
		}),
		IndexWords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_words",
			Help:      "Distinct normalized words in the serving index.",
		}),
		IndexUnreachable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_unreachable_phrases",
			Help:      "Phrases that normalize to no words and can never match.",
		}),
		IndexBuildDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_build_duration_seconds",
			Help:      "Wall time of the last index build.",
		}),
		reg: reg,
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ResolveTotal,
		m.ResolveLatency,
		m.ThemesPerQuery,
		m.QueryCacheHits,
		m.QueryCacheMisses,
		m.IndexThemes,
		m.IndexPhrases,
		m.IndexWords,
		m.IndexUnreachable,
		m.IndexBuildDuration,
	)
	return m
}

// WatchNormalizerCache exports the hit and miss counters of the word
// normalization cache. It may be called once per Metrics.
func (m *Metrics) WatchNormalizerCache(hits, misses func() int64) {
	m.reg.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normalizer_cache_hits_total",
			Help:      "Word normalization cache hits.",
		}, func() float64 { return float64(hits()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normalizer_cache_misses_total",
			Help:      "Word normalization cache misses.",
		}, func() float64 { return float64(misses()) }),
	)
}

// Handler returns the scrape handler for g. A nil g means the default
// gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
