package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// bloom evaluation engine.
type Metrics struct {
	EvaluationsTotal    *prometheus.CounterVec // labels: outcome={success,error}
	EvaluationDuration  prometheus.Histogram
	EvaluationsInFlight prometheus.Gauge

	// Provider call metrics.
	ProviderRequests *prometheus.CounterVec   // labels: provider, outcome={success,error}
	ProviderDuration *prometheus.HistogramVec // labels: provider

	// Vegetation task lifecycle metrics.
	VegetationPollAttempts prometheus.Histogram
	VegetationTaskDuration prometheus.Histogram

	ResultsPublished prometheus.Counter
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bloom_eval",
			Name:      "evaluations_total",
			Help:      "Completed bloom evaluations by outcome.",
		}, []string{"outcome"}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bloom_eval",
			Name:      "evaluation_duration_seconds",
			Help:      "End-to-end duration of a bloom evaluation.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 900},
		}),
		EvaluationsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bloom_eval",
			Name:      "evaluations_in_flight",
			Help:      "Number of evaluations currently running.",
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bloom_eval",
			Name:      "provider_requests_total",
			Help:      "External provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bloom_eval",
			Name:      "provider_request_duration_seconds",
			Help:      "External provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),
		VegetationPollAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bloom_eval",
			Name:      "vegetation_poll_attempts",
			Help:      "Status polls needed before a vegetation task completed.",
			Buckets:   []float64{1, 2, 3, 5, 10, 15, 20, 25, 30},
		}),
		VegetationTaskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bloom_eval",
			Name:      "vegetation_task_duration_seconds",
			Help:      "Duration of the submit-poll-download task lifecycle.",
			Buckets:   []float64{10, 30, 60, 120, 240, 420, 600},
		}),
		ResultsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bloom_eval",
			Name:      "results_published_total",
			Help:      "Bloom results published to the sink topic.",
		}),
	}

	prometheus.MustRegister(
		m.EvaluationsTotal,
		m.EvaluationDuration,
		m.EvaluationsInFlight,
		m.ProviderRequests,
		m.ProviderDuration,
		m.VegetationPollAttempts,
		m.VegetationTaskDuration,
		m.ResultsPublished,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		EvaluationsTotal:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "bloom_eval", Name: "evaluations_total"}, []string{"outcome"}),
		EvaluationDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "bloom_eval", Name: "evaluation_duration_seconds"}),
		EvaluationsInFlight:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "bloom_eval", Name: "evaluations_in_flight"}),
		ProviderRequests:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "bloom_eval", Name: "provider_requests_total"}, []string{"provider", "outcome"}),
		ProviderDuration:       prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "bloom_eval", Name: "provider_request_duration_seconds"}, []string{"provider"}),
		VegetationPollAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "bloom_eval", Name: "vegetation_poll_attempts"}),
		VegetationTaskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "bloom_eval", Name: "vegetation_task_duration_seconds"}),
		ResultsPublished:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "bloom_eval", Name: "results_published_total"}),
	}
}
