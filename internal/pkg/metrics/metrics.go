package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "print3dhood",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "print3dhood",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.25, 1, 5, 15, 60, 120},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "print3dhood",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 7),
	}, []string{"method", "path"})

	// Model pipeline metrics
	ModelsBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "print3dhood",
		Subsystem: "model",
		Name:      "builds_total",
		Help:      "Total model builds by outcome",
	}, []string{"outcome"})

	BuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "print3dhood",
		Subsystem: "model",
		Name:      "build_duration_seconds",
		Help:      "Duration of a full scene build and mesh synthesis",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"stage"})

	BuildingsPerModel = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "print3dhood",
		Subsystem: "model",
		Name:      "buildings_per_model",
		Help:      "Number of buildings included per generated model",
		Buckets:   []float64{0, 5, 10, 25, 50, 100, 150, 250},
	})

	BuildsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "print3dhood",
		Subsystem: "model",
		Name:      "builds_in_flight",
		Help:      "Scene builds currently holding a concurrency slot",
	})

	// Upstream fetch metrics
	OverpassRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "print3dhood",
		Subsystem: "overpass",
		Name:      "requests_total",
		Help:      "Total Overpass tile requests by result",
	}, []string{"result"})

	OverpassRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "print3dhood",
		Subsystem: "overpass",
		Name:      "retries_total",
		Help:      "Total Overpass requests retried after throttling or timeouts",
	})

	GeocodeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "print3dhood",
		Subsystem: "geocode",
		Name:      "requests_total",
		Help:      "Total geocoding lookups by result",
	}, []string{"result"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "print3dhood",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "print3dhood",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
