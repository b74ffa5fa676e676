// Package metrics exposes process-local prometheus counters for the console.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

// Metrics holds the pricebook instrument set.
type Metrics struct {
	MutationsTotal     *prometheus.CounterVec
	MutationsRejected  *prometheus.CounterVec
	ImportRowsTotal    *prometheus.CounterVec
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPRequestSeconds *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		MutationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pricebook_mutations_total",
			Help: "Audited mutations by table and change type.",
		}, []string{"table", "change_type"}),
		MutationsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pricebook_mutations_rejected_total",
			Help: "Mutations rejected before any state change.",
		}, []string{"table"}),
		ImportRowsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pricebook_import_rows_total",
			Help: "Cost import rows by outcome.",
		}, []string{"status"}),
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pricebook_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPRequestSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pricebook_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// GinMiddleware records request counters and latency, and counts writes the
// error mapping turned away before any state change.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		m.HTTPRequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).Inc()
		m.HTTPRequestSeconds.WithLabelValues(route).Observe(time.Since(start).Seconds())

		if c.Request.Method != http.MethodGet && (status == http.StatusBadRequest || status == http.StatusConflict) {
			m.MutationsRejected.WithLabelValues(tableForRoute(route)).Inc()
		}
	}
}

func tableForRoute(route string) string {
	switch {
	case strings.Contains(route, "/analytes"):
		return "analytes"
	case strings.Contains(route, "/kits"):
		return "test_kits"
	case strings.Contains(route, "/costs"):
		return "cost_data"
	default:
		return "unknown"
	}
}

var Module = fx.Module("observability.metrics",
	fx.Provide(New),
)
