// Package gatewaymetrics exposes the gateway's Prometheus instrumentation,
// grounded on internal/registry/handler/metrics.go's counter/histogram/gauge
// layout and promhttp wiring.
package gatewaymetrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_actions_total",
		Help: "Total actions executed by name and outcome.",
	}, []string{"action", "outcome"})

	certVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_certificate_verifications_total",
		Help: "Total certificate verifications by result.",
	}, []string{"result"})

	behaviorBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_behavior_blocks_total",
		Help: "Total mid-session blocks triggered by the behavior tracker.",
	}, []string{"reason"})

	reportDispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_report_dispatch_total",
		Help: "Total fire-and-forget reports dispatched to the station.",
	}, []string{"status"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gateway_active_sessions",
		Help: "Current number of tracked agent sessions.",
	})
)

// Middleware returns a Gin middleware that records per-request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		requestsTotal.WithLabelValues(method, path, status).Inc()
		requestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// Handler serves the /metrics scrape endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordAction records one action execution outcome.
func RecordAction(action string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	actionsTotal.WithLabelValues(action, outcome).Inc()
}

// RecordCertVerification records a certificate verification result.
func RecordCertVerification(valid bool) {
	result := "valid"
	if !valid {
		result = "invalid"
	}
	certVerificationsTotal.WithLabelValues(result).Inc()
}

// RecordBehaviorBlock records a mid-session block by reason.
func RecordBehaviorBlock(reason string) {
	behaviorBlocksTotal.WithLabelValues(reason).Inc()
}

// RecordReportDispatch records a fire-and-forget station report outcome.
func RecordReportDispatch(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	reportDispatchTotal.WithLabelValues(status).Inc()
}

// SetActiveSessions sets the current tracked-session gauge.
func SetActiveSessions(count float64) {
	activeSessions.Set(count)
}
