package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics exposes per-route request instruments.
type HTTPMetrics struct {
	cfg      Config
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics(cfg Config) *HTTPMetrics {
	cfg = cfg.withDefaults()
	factory := promauto.With(prometheus.DefaultRegisterer)
	return &HTTPMetrics{
		cfg: cfg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "skillpassport_http_requests_total",
			Help: "Number of HTTP requests by route and status.",
		}, []string{"service", "env", "method", "route", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skillpassport_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "env", "method", "route"}),
	}
}

// GinMiddleware records request counts and latencies.
func (m *HTTPMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.requests.With(prometheus.Labels{
			"service": m.cfg.ServiceName,
			"env":     m.cfg.Environment,
			"method":  c.Request.Method,
			"route":   route,
			"status":  strconv.Itoa(c.Writer.Status()),
		}).Inc()
		m.duration.With(prometheus.Labels{
			"service": m.cfg.ServiceName,
			"env":     m.cfg.Environment,
			"method":  c.Request.Method,
			"route":   route,
		}).Observe(time.Since(start).Seconds())
	}
}
