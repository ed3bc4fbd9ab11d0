package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval Prometheus metrics.
var (
	RetrievalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "polisearch",
			Name:      "retrieval_requests_total",
			Help:      "Total number of retrieval requests",
		},
		[]string{"domain", "status"}, // domain: "policy" / "sermon"
	)

	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "polisearch",
			Name:      "retrieval_duration_seconds",
			Help:      "End-to-end retrieval duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"domain"},
	)

	RetrievalCandidates = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "polisearch",
			Name:      "retrieval_candidates",
			Help:      "Candidate counts observed at each pipeline stage",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"domain", "stage"}, // stage: "raw" / "profile" / "floor" / "final"
	)

	RetrievalSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "polisearch",
			Name:      "retrieval_skipped_total",
			Help:      "Requests that bypassed retrieval",
		},
		[]string{"reason"}, // "router" / "heuristic"
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers Prometheus retrieval metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(RetrievalRequestsTotal)
	prometheus.MustRegister(RetrievalDuration)
	prometheus.MustRegister(RetrievalCandidates)
	prometheus.MustRegister(RetrievalSkippedTotal)
	retrievalMetricsRegistered = true
}
