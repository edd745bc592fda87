// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hyperjump/namesim/internal/embedding"
)

// Latency buckets in milliseconds.
var latencyBuckets = []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// Metrics holds the collectors, registered on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	SearchLatency     *prometheus.HistogramVec
	SearchResults     prometheus.Histogram
	SkippedCandidates prometheus.Counter
	EmbedCalls        *prometheus.CounterVec
	EmbedLatency      prometheus.Histogram
	EmbeddedTexts     prometheus.Counter
	Vectorized        *prometheus.CounterVec
}

// New creates the collectors. The Go and process collectors are included.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		SearchLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "namesim_search_latency_ms",
			Help:    "Similarity search latency in milliseconds",
			Buckets: latencyBuckets,
		}, []string{"mode"}), // mode is "memory" or "pushdown"
		SearchResults: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "namesim_search_results",
			Help:    "Number of results above the threshold per search",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		SkippedCandidates: f.NewCounter(prometheus.CounterOpts{
			Name: "namesim_search_skipped_candidates_total",
			Help: "Candidates skipped for a dimension mismatch or zero norm",
		}),
		EmbedCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "namesim_embed_calls_total",
			Help: "Embedder calls by outcome",
		}, []string{"outcome"}), // ok, unavailable, error
		EmbedLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "namesim_embed_latency_ms",
			Help:    "Embedder call latency in milliseconds",
			Buckets: latencyBuckets,
		}),
		EmbeddedTexts: f.NewCounter(prometheus.CounterOpts{
			Name: "namesim_embedded_texts_total",
			Help: "Texts sent to the embedder",
		}),
		Vectorized: f.NewCounterVec(prometheus.CounterOpts{
			Name: "namesim_records_vectorized_total",
			Help: "Name records processed by vectorize, by result",
		}, []string{"result"}), // embedded or skipped
	}
}

// ObserveSearch records one search.
func (m *Metrics) ObserveSearch(mode string, elapsed time.Duration, results, skipped int) {
	if m == nil {
		return
	}
	m.SearchLatency.WithLabelValues(mode).Observe(float64(elapsed.Microseconds()) / 1000)
	m.SearchResults.Observe(float64(results))
	m.SkippedCandidates.Add(float64(skipped))
}

// ObserveEmbed implements embedding.Observer.
func (m *Metrics) ObserveEmbed(texts int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	switch {
	case errors.Is(err, embedding.ErrEmbedderUnavailable):
		outcome = "unavailable"
	case err != nil:
		outcome = "error"
	}
	m.EmbedCalls.WithLabelValues(outcome).Inc()
	m.EmbedLatency.Observe(float64(elapsed.Microseconds()) / 1000)
	m.EmbeddedTexts.Add(float64(texts))
}

// ObserveVectorize records the outcome of a vectorize run.
func (m *Metrics) ObserveVectorize(embedded, skipped int) {
	if m == nil {
		return
	}
	m.Vectorized.WithLabelValues("embedded").Add(float64(embedded))
	m.Vectorized.WithLabelValues("skipped").Add(float64(skipped))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
