package metrics

import "github.com/prometheus/client_golang/prometheus"

// Vector store metrics, labelled by Data API command (find, insertMany, ...).
var (
	VectorRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tribe",
			Name:      "vector_requests_total",
			Help:      "Total number of vector store commands",
		},
		[]string{"command", "status"},
	)

	VectorRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tribe",
			Name:      "vector_request_duration_seconds",
			Help:      "Vector store command duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"command"},
	)

	VectorDocumentsFetched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tribe",
			Name:      "vector_documents_fetched_total",
			Help:      "Documents returned by paginated fetches",
		},
	)
)

var vectorMetricsRegistered bool

// RegisterVectorMetrics registers vector store metrics. Call once from main.
func RegisterVectorMetrics() {
	if vectorMetricsRegistered {
		return
	}
	prometheus.MustRegister(VectorRequestsTotal, VectorRequestDuration, VectorDocumentsFetched)
	vectorMetricsRegistered = true
}
