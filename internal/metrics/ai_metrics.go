package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Media analysis metrics. Low cardinality: outcome and error code only.

var (
	AnalysisSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_analysis_submitted_total",
			Help: "Uploads accepted for analysis by media type",
		},
		[]string{"media_type"},
	)

	AnalysisCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_analysis_completed_total",
			Help: "Analyses resolved by outcome",
		},
		[]string{"outcome"},
	)

	AnalysisFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_analysis_failed_total",
			Help: "Analyses that failed by error code",
		},
		[]string{"code"},
	)

	AnalysisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arena_analysis_latency_ms",
			Help:    "Time from submit to resolution in milliseconds",
			Buckets: []float64{50, 100, 250, 500, 1000, 2000, 3000, 5000, 10000},
		},
	)

	AnalysisInflight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arena_analysis_inflight",
			Help: "Analyses currently waiting on the analyzer",
		},
	)
)

func RecordSubmitted(mediaType string) {
	AnalysisSubmittedTotal.WithLabelValues(mediaType).Inc()
	AnalysisInflight.Inc()
}

func RecordCompleted(outcome string, latencyMs float64) {
	AnalysisCompletedTotal.WithLabelValues(outcome).Inc()
	AnalysisLatency.Observe(latencyMs)
	AnalysisInflight.Dec()
}

func RecordFailed(code string, latencyMs float64) {
	AnalysisFailedTotal.WithLabelValues(code).Inc()
	AnalysisLatency.Observe(latencyMs)
	AnalysisInflight.Dec()
}
