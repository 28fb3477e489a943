package metrics

import "github.com/prometheus/client_golang/prometheus"

// Flow API metrics. Status is one of success, config_error, transport_error,
// decode_error or flow_error.
var (
	FlowRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tribe",
			Name:      "flow_requests_total",
			Help:      "Total number of flow run requests by outcome",
		},
		[]string{"status"},
	)

	FlowRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tribe",
			Name:      "flow_request_duration_seconds",
			Help:      "Flow run round-trip duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
	)
)

var flowMetricsRegistered bool

// RegisterFlowMetrics registers flow metrics. Call once from main.
func RegisterFlowMetrics() {
	if flowMetricsRegistered {
		return
	}
	prometheus.MustRegister(FlowRequestsTotal, FlowRequestDuration)
	flowMetricsRegistered = true
}
