package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the voting core. promauto registers everything
// with the default registry, exposed by the handler's /metrics route.
var (
	// VotesTotal counts vote attempts by outcome: recorded, not_found,
	// already_voted, rate_limited, persistence_error.
	VotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "featuresvote",
			Subsystem: "votes",
			Name:      "total",
			Help:      "Total number of vote attempts by outcome",
		},
		[]string{"outcome"},
	)

	// NotifyTotal counts relay deliveries by result.
	NotifyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "featuresvote",
			Subsystem: "notify",
			Name:      "total",
			Help:      "Total number of vote relay deliveries by result",
		},
		[]string{"result"},
	)

	// RequestDuration tracks HTTP handler latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "featuresvote",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
)
