// Package metrics exports request and analysis counters to Prometheus
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts API requests by route template and status
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lactest_requests_total",
			Help: "Total number of API requests processed",
		},
		[]string{"endpoint", "method", "status"},
	)

	// RequestDuration is API request latency
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lactest_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"endpoint", "method"},
	)

	// AnalysesTotal counts analysis runs by outcome
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lactest_analyses_total",
			Help: "Total number of threshold analyses by outcome",
		},
		[]string{"outcome"},
	)

	// ThresholdMethodTotal counts which method produced each accepted threshold
	ThresholdMethodTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lactest_threshold_method_total",
			Help: "Accepted thresholds by kind and detection method",
		},
		[]string{"kind", "method"},
	)

	// SanityCorrections counts analyses where LT1 had to be moved below LT2
	SanityCorrections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lactest_sanity_corrections_total",
			Help: "Total number of LT1 recomputations after an LT1/LT2 inversion",
		},
	)

	// AnalysisLatency is engine run time, normalization through zones
	AnalysisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lactest_analysis_latency_seconds",
			Help:    "Analysis computation latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05},
		},
	)
)

// Analysis outcomes
const (
	OutcomeOK       = "ok"
	OutcomeNoStages = "no_stages"
	OutcomeFailed   = "failed"
)

// RecordAnalysis updates the engine counters for one run
func RecordAnalysis(outcome string, lt1Method, lt2Method string, corrected bool) {
	AnalysesTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeOK {
		return
	}
	ThresholdMethodTotal.WithLabelValues("LT1", lt1Method).Inc()
	ThresholdMethodTotal.WithLabelValues("LT2", lt2Method).Inc()
	if corrected {
		SanityCorrections.Inc()
	}
}
