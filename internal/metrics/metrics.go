package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kukiwrite_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kukiwrite_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kukiwrite_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kukiwrite_ai_requests_total",
			Help: "Total number of AI provider requests.",
		},
		[]string{"provider", "model", "status"},
	)

	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kukiwrite_ai_request_duration_seconds",
			Help:    "AI provider request duration in seconds.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
		[]string{"provider"},
	)

	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kukiwrite_generations_total",
			Help: "Total number of tool invocations by type and outcome.",
		},
		[]string{"type", "status"},
	)

	QuotaDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kukiwrite_quota_denials_total",
			Help: "Total number of tool calls denied by the monthly quota.",
		},
		[]string{"plan"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPRequestsInFlight,
		AIRequestsTotal,
		AIRequestDuration,
		GenerationsTotal,
		QuotaDenialsTotal,
	)
}
