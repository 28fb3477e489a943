package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding provider metrics. Requests carry status success or error, tokens
// carry type prompt or total, the cache counter carries result hit or miss.
// Query text is never a label.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tribe",
			Subsystem: "embedding",
			Name:      "requests_total",
			Help:      "Embedding provider calls by outcome",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tribe",
			Subsystem: "embedding",
			Name:      "request_duration_seconds",
			Help:      "Embedding provider round-trip duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tribe",
			Subsystem: "embedding",
			Name:      "tokens_total",
			Help:      "Tokens billed by the embedding provider",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tribe",
			Subsystem: "embedding",
			Name:      "cache_total",
			Help:      "Vector cache lookups by result",
		},
		[]string{"result"},
	)

	EmbeddingBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "tribe",
			Subsystem: "embedding",
			Name:      "budget_tokens_remaining",
			Help:      "Tokens left in the current budget period, -1 when unlimited",
		},
		[]string{"provider", "period"},
	)
)

var embMetricsRegistered bool

// RegisterEmbeddingMetrics registers embedding metrics. Call once from main.
func RegisterEmbeddingMetrics() {
	if embMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingTokensTotal,
		EmbeddingCacheTotal,
		EmbeddingBudgetTokensRemaining,
	)
	embMetricsRegistered = true
}
