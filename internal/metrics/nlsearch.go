package metrics

import "github.com/prometheus/client_golang/prometheus"

// Natural-language search and catalog metrics.
var (
	NLSearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nlsearch_requests_total",
			Help:      "Natural-language searches by the path that produced the result",
		},
		[]string{"source"}, // "ai" / "keyword"
	)

	NLSearchFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nlsearch_fallback_total",
			Help:      "Natural-language searches served by keyword fallback, by reason",
		},
		[]string{"reason"},
	)

	NLSearchRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "nlsearch_rows",
			Help:      "Rows returned per natural-language search",
			Buckets:   []float64{0, 1, 5, 10, 20, 35, 50},
		},
	)

	IntroCacheLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intro_cache_loads_total",
			Help:      "Introduction file loads",
		},
		[]string{"result"}, // "ok" / "error"
	)

	IntroCacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "intro_cache_entries",
			Help:      "Movie introductions currently cached",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers natural-language search and cache metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(NLSearchRequestsTotal)
	prometheus.MustRegister(NLSearchFallbackTotal)
	prometheus.MustRegister(NLSearchRows)
	prometheus.MustRegister(IntroCacheLoadsTotal)
	prometheus.MustRegister(IntroCacheEntries)
	searchMetricsRegistered = true
}
