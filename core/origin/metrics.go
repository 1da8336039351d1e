package origin

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	originRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathwise_origin_requests_total",
			Help: "Requests forwarded to the origin, by method and status code.",
		}, []string{"method", "code"})
	originDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pathwise_origin_request_duration_seconds",
			Help:    "Latency of requests forwarded to the origin.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"})
)

func observe(method, code string, start time.Time) {
	originRequests.WithLabelValues(method, code).Inc()
	originDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
