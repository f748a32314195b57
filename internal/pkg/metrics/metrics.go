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
		Namespace: "hoply",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hoply",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hoply",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Search metrics
	matchQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hoply",
		Subsystem: "search",
		Name:      "match_queries_total",
		Help:      "Match queries answered, by whether a location filter was active",
	}, []string{"located"})

	matchCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "hoply",
		Subsystem: "search",
		Name:      "match_candidates",
		Help:      "Records fetched from the data source per match query",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 9),
	})

	matchesReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "hoply",
		Subsystem: "search",
		Name:      "matches_returned",
		Help:      "Matches returned per query",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
	})

	geoRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hoply",
		Subsystem: "search",
		Name:      "geo_rejected_total",
		Help:      "Records dropped by the location filter, by stage",
	}, []string{"stage"})

	CitySearches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hoply",
		Subsystem: "search",
		Name:      "city_searches_total",
		Help:      "City prefix searches that reached the data source",
	})

	CatalogUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hoply",
		Subsystem: "catalog",
		Name:      "updates_total",
		Help:      "Match catalog update events received",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hoply",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hoply",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hoply",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hoply",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hoply",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hoply",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// ObserveMatchQuery records the outcome of one match query.
func ObserveMatchQuery(located bool, candidates, boxRejected, distanceRejected, returned int) {
	matchQueries.WithLabelValues(strconv.FormatBool(located)).Inc()
	matchCandidates.Observe(float64(candidates))
	matchesReturned.Observe(float64(returned))
	if located {
		geoRejected.WithLabelValues("bounding_box").Add(float64(boxRejected))
		geoRejected.WithLabelValues("haversine").Add(float64(distanceRejected))
	}
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		// Route pattern, not the raw path, to keep label cardinality bounded.
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
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}

// PoolStat is the subset of pgxpool.Stat the pool gauges read.
type PoolStat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
}

// UpdateDBPoolMetrics copies pool statistics into the pool gauges.
func UpdateDBPoolMetrics(s PoolStat) {
	DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
	DBPoolConnsIdle.Set(float64(s.IdleConns()))
	DBPoolConnsOpen.Set(float64(s.TotalConns()))
}
