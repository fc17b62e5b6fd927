package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTP metrics. The path label is the Gin route pattern, or unmatchedPath
// when no route matched, and kind is one of htmx, json or page, so
// cardinality stays bounded.
var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route, status and kind.",
	}, []string{"method", "path", "status", "kind"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_inflight",
		Help: "Requests currently being served.",
	})

	// Fragments are a few hundred bytes and the board page stays small.
	httpResponseBytes = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_response_size_bytes",
		Help:    "HTTP response body size by method and route.",
		Buckets: prometheus.ExponentialBuckets(128, 4, 8),
	}, []string{"method", "path"})
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration, httpInFlight, httpResponseBytes)
}

// unmatchedPath labels requests that hit no route. Raw URLs from scanners
// would otherwise mint a series each.
const unmatchedPath = "unmatched"

func metricPath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return unmatchedPath
}

// requestKind is "htmx" for fragment swaps, "json" for API clients and
// "page" for plain browser navigation.
func requestKind(c *gin.Context) string {
	switch {
	case c.GetHeader("HX-Request") == "true":
		return "htmx"
	case c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON:
		return "json"
	default:
		return "page"
	}
}

// Metrics records request count, latency, in-flight requests and response
// size. Serve the registry separately with promhttp.Handler.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start, kind := time.Now(), requestKind(c)

		c.Next()

		method, path := c.Request.Method, metricPath(c)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status()), kind).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		if n := c.Writer.Size(); n >= 0 {
			httpResponseBytes.WithLabelValues(method, path).Observe(float64(n))
		}
	}
}
