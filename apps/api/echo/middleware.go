package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/trezcool/pathwise/core/origin"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pathwise_http_requests_total",
			Help: "Gateway requests, by route and status code.",
		}, []string{"method", "route", "code"})
	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pathwise_http_request_duration_seconds",
			Help:    "Gateway request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"})
)

// originRequestIDMiddleware forwards the request id to the origin calls.
func originRequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if id := ctx.Response().Header().Get(echo.HeaderXRequestID); id != "" {
			req := ctx.Request()
			ctx.SetRequest(req.WithContext(origin.WithRequestID(req.Context(), id)))
		}
		return next(ctx)
	}
}

func metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		start := time.Now()
		err := next(ctx)
		if err != nil {
			// let the error handler write the final status
			ctx.Error(err)
		}

		route := ctx.Path()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request().Method
		httpRequests.WithLabelValues(method, route, strconv.Itoa(ctx.Response().Status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return nil
	}
}
