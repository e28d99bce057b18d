// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the Prometheus HTTP collectors. Every series lives under
// the messagely_http_ prefix and is labelled by:
//
//   - method:        GET or POST (plus OPTIONS preflights)
//   - route:         the registered Gin route, e.g. /users/:username/to, or
//     "unmatched" when nothing matched so probes of random URLs stay in one
//     series
//   - status:        numeric status code, e.g. "200", "409"
//   - authenticated: "true" once RequireAuth has accepted a session token
//
// Domain counters (messages sent/read, logins) live in the services package.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "messagely"
	metricsSubsystem = "http"

	// unmatchedPath is the route label for requests that hit no route.
	unmatchedPath = "unmatched"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "requests_total",
			Help:      "HTTP requests by route, status and whether the caller was authenticated.",
		},
		[]string{"method", "route", "status", "authenticated"},
	)

	// Status is left off to keep the histogram small.
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	requestsInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "requests_inflight",
			Help:      "HTTP requests currently being served.",
		},
	)

	// Thread listings are the only large bodies; they rarely pass 256KiB.
	responseBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "response_size_bytes",
			Help:      "HTTP response body size in bytes.",
			Buckets:   prometheus.ExponentialBuckets(128, 4, 7), // 128B..512KiB
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration, requestsInflight, responseBytes)
}

// Metrics returns a Gin middleware that records the collectors above.
// Mount /metrics with gin.WrapH(promhttp.Handler()).
//
// The authenticated label is read after c.Next() because RequireAuth runs
// on route groups, not globally.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestsInflight.Inc()
		defer requestsInflight.Dec()

		c.Next()

		route := routeLabel(c)
		method := c.Request.Method

		requestsTotal.WithLabelValues(
			method,
			route,
			strconv.Itoa(c.Writer.Status()),
			strconv.FormatBool(CurrentUser(c) != ""),
		).Inc()
		requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		// -1 means no body was written (304s, bare statuses).
		if size := c.Writer.Size(); size >= 0 {
			responseBytes.WithLabelValues(method, route).Observe(float64(size))
		}
	}
}

func routeLabel(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return unmatchedPath
}
