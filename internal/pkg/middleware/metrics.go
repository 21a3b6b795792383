package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "klaus_http_requests_total",
			Help: "Total HTTP requests by path, method and status.",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "klaus_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "klaus_upstream_requests_total",
			Help: "Requests against content upstreams by source and outcome.",
		},
		[]string{"source", "outcome"},
	)
)

// MetricsMiddleware records request counts and latency.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Route template, not raw path, to bound cardinality.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// ObserveUpstream records the outcome of one upstream fetch.
func ObserveUpstream(source string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	upstreamRequestsTotal.WithLabelValues(source, outcome).Inc()
}
