// Package observability holds the process-wide Prometheus collectors for
// HTTP, ingestion and cache operations.
package observability

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	ingestRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_records_total",
			Help: "Entities read from the source, by kind.",
		},
		[]string{"kind"},
	)

	dispatchEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_events_total",
			Help: "Dispatch events reached, by event name.",
		},
		[]string{"event"},
	)

	ingestFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_failures_total",
			Help: "Aborted ingestion runs by failure class.",
		},
		[]string{"class"},
	)

	ingestRunSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_run_duration_seconds",
			Help:    "Wall time of one ingestion run.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 20),
		},
		[]string{"outcome"},
	)

	cacheOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Redis operations by op and result.",
		},
		[]string{"op", "result"},
	)

	cacheOpSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Latency of redis operations.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"op"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal, httpRequestDurationSeconds,
		ingestRecordsTotal, dispatchEventsTotal, ingestFailuresTotal, ingestRunSeconds,
		cacheOpsTotal, cacheOpSeconds,
	}
}

var registered sync.Map // prometheus.Registerer -> struct{}

// Register adds the collectors to r. Registering the same registry twice
// is a no-op.
func Register(r prometheus.Registerer) {
	if r == nil {
		return
	}
	if _, loaded := registered.LoadOrStore(r, struct{}{}); loaded {
		return
	}
	r.MustRegister(collectors()...)
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func IncRecord(kind string) {
	ingestRecordsTotal.WithLabelValues(kind).Inc()
}

func IncEvent(event string) {
	dispatchEventsTotal.WithLabelValues(event).Inc()
}

func IncFailure(class string) {
	ingestFailuresTotal.WithLabelValues(class).Inc()
}

func ObserveRun(outcome string, durationSeconds float64) {
	ingestRunSeconds.WithLabelValues(outcome).Observe(durationSeconds)
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	cacheOpsTotal.WithLabelValues(op, result).Inc()
	cacheOpSeconds.WithLabelValues(op).Observe(durationSeconds)
}
