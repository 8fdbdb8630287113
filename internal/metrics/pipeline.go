package metrics

import "github.com/prometheus/client_golang/prometheus"

// Answer pipeline Prometheus metrics.
var (
	PipelineCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "answerdex",
			Name:      "pipeline_cycles_total",
			Help:      "Completed answer cycles by outcome",
		},
		[]string{"outcome"}, // "answered" / "degraded" / "refused" / "error"
	)

	PipelineReformulationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "answerdex",
			Name:      "pipeline_reformulations_total",
			Help:      "Query reformulation attempts",
		},
	)

	PipelineDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "answerdex",
			Name:      "pipeline_degraded_total",
			Help:      "Cycles served with one retrieval source down",
		},
		[]string{"failed_source"}, // "lexical" / "vector"
	)

	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "answerdex",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Per-stage duration within an answer cycle",
			Buckets:   []float64{0.001, 0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(PipelineCyclesTotal)
	prometheus.MustRegister(PipelineReformulationsTotal)
	prometheus.MustRegister(PipelineDegradedTotal)
	prometheus.MustRegister(PipelineStageDuration)
	pipelineMetricsRegistered = true
}
