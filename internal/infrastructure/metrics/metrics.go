// Package metrics collects per-run scrape counters and exports them as a
// prometheus textfile at the end of a run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "zepto_scraper"

// Fetch outcomes used as the "outcome" label.
const (
	OutcomeOK        = "ok"
	OutcomeAuth      = "auth_failure"
	OutcomeFetch     = "fetch_failure"
	OutcomeMalformed = "malformed"
)

// Metrics holds the run's collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FetchTotal      *prometheus.CounterVec
	FetchDuration   prometheus.Histogram
	PagesTotal      *prometheus.CounterVec
	ProductsTotal   *prometheus.CounterVec
	DuplicatesTotal *prometheus.CounterVec
}

// New creates and registers the scrape collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_total",
				Help:      "Search API calls by outcome",
			},
			[]string{"outcome"},
		),
		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Search API call duration in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
			},
		),
		PagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pages_total",
				Help:      "Result pages flattened per store",
			},
			[]string{"store"},
		),
		ProductsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "products_total",
				Help:      "Unique products collected per store",
			},
			[]string{"store"},
		),
		DuplicatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "duplicates_total",
				Help:      "Products skipped because the store already had the variant",
			},
			[]string{"store"},
		),
	}

	m.registry.MustRegister(m.FetchTotal, m.FetchDuration, m.PagesTotal, m.ProductsTotal, m.DuplicatesTotal)
	return m
}

// ObserveFetch records one search API call
func (m *Metrics) ObserveFetch(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(elapsed.Seconds())
}

// ObservePage records one flattened page and how its rows were split
func (m *Metrics) ObservePage(store string, added, duplicates int) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(store).Inc()
	m.ProductsTotal.WithLabelValues(store).Add(float64(added))
	m.DuplicatesTotal.WithLabelValues(store).Add(float64(duplicates))
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all collected metrics in the node_exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
