package web

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flakestry/flakestry/internal/cache"
)

const requestIDHeader = "X-Request-ID"

// serverMetrics holds the collectors exported on /metrics. Each server owns its registry.
type serverMetrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newServerMetrics(rc *cache.ReleaseCache) *serverMetrics {
	m := &serverMetrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flakestry_http_requests_total",
				Help: "Total number of HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flakestry_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	cacheStat := func(key string) func() float64 {
		return func() float64 {
			switch v := rc.GetStats()[key].(type) {
			case int:
				return float64(v)
			case int64:
				return float64(v)
			}
			return 0
		}
	}

	m.registry.MustRegister(
		m.requests,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "flakestry_listing_cache_entries",
			Help: "Number of cached release listings",
		}, cacheStat("entries")),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "flakestry_listing_cache_hits_total",
			Help: "Listing cache hits",
		}, cacheStat("hits")),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "flakestry_listing_cache_misses_total",
			Help: "Listing cache misses",
		}, cacheStat("misses")),
	)
	return m
}

// MetricsMiddleware records request counts and latencies per matched route
func (s *WebServer) MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched" // all 404s share one label
		}
		method := c.Request.Method
		s.metrics.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		s.metrics.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// metricsHandler serves the Prometheus exposition format
func (s *WebServer) metricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
}

// RequestIDMiddleware keeps a valid incoming X-Request-ID or assigns a new one
func (s *WebServer) RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
