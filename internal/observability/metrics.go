// Package observability holds Prometheus metrics and OpenTelemetry tracing setup.
//
// Metrics are exposed on /metrics. All operations are safe for concurrent use.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "bottleneck"

// Metrics holds the counters and histograms recorded by the analysis path
type Metrics struct {
	// AnalysesTotal counts completed analyses.
	// Labels: verdict (CPU, GPU, RAM, balanced), agreement (true, false)
	AnalysesTotal *prometheus.CounterVec

	// UnknownComponentsTotal counts component names that matched nothing.
	// Labels: kind (cpu, gpu, ram)
	UnknownComponentsTotal *prometheus.CounterVec

	// PredictorRequestsTotal counts calls to the remote predictor.
	// Labels: status (ok, error, cached, undecodable)
	PredictorRequestsTotal *prometheus.CounterVec

	// AnalysisDurationSeconds measures end-to-end analysis latency
	AnalysisDurationSeconds prometheus.Histogram

	// BuildsTotal counts build store mutations.
	// Labels: op (create, delete)
	BuildsTotal *prometheus.CounterVec
}

// NewMetrics registers metrics with reg. Pass prometheus.NewRegistry() in tests
// to avoid duplicate registration against the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "analyses_total",
			Help:      "Completed bottleneck analyses by verdict",
		}, []string{"verdict", "agreement"}),

		UnknownComponentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "unknown_components_total",
			Help:      "Component names that matched no catalog entry",
		}, []string{"kind"}),

		PredictorRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "predictor_requests_total",
			Help:      "Remote predictor lookups by outcome",
		}, []string{"status"}),

		AnalysisDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent producing an analysis, including the predictor hop",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),

		BuildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "builds_total",
			Help:      "Saved build mutations",
		}, []string{"op"}),
	}
}
