// Package metrics exposes Prometheus instruments for the valuation pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "valorapro"

// Metrics owns a private registry so tests can build independent instances.
type Metrics struct {
	registry *prometheus.Registry

	Generations      *prometheus.CounterVec
	Extractions      *prometheus.CounterVec
	FallbackValues   prometheus.Counter
	RewriteMisses    *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
	ExternalCalls    *prometheus.CounterVec
}

// New registers every instrument together with the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Report generations by provider and outcome.",
		}, []string{"provider", "outcome"}),
		Extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Figure extraction attempts by figure and result (found, missing).",
		}, []string{"figure", "result"}),
		FallbackValues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_values_total",
			Help:      "Reports whose base value came from the fallback pricing model.",
		}),
		RewriteMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewrite_anchor_misses_total",
			Help:      "Narratives where a rewrite anchor was not found.",
		}, []string{"anchor"}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Time spent post-processing a narrative.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		ExternalCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_call_failures_total",
			Help:      "Failed calls to outside services by service and category.",
		}, []string{"service", "category"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
		m.Generations,
		m.Extractions,
		m.FallbackValues,
		m.RewriteMisses,
		m.PipelineDuration,
		m.ExternalCalls,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObservePipeline records the duration since start.
func (m *Metrics) ObservePipeline(start time.Time) {
	m.PipelineDuration.Observe(time.Since(start).Seconds())
}
