package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// once guards registration; the default registry panics on duplicates.
	once sync.Once

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Count of HTTP requests.",
		},
		// route is the pattern (/api/v1/links/{code}), never the raw path
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	LinksCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkbin_links_created_total",
			Help: "Links created, by content type.",
		},
		[]string{"kind"},
	)

	ResolvesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkbin_resolves_total",
			Help: "Public short-code resolutions, by outcome.",
		},
		[]string{"outcome"},
	)

	SweepDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "linkbin_sweep_deleted_total",
			Help: "Orphan blobs removed by the sweeper.",
		},
	)
)

func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
			LinksCreatedTotal,
			ResolvesTotal,
			SweepDeletedTotal,
		)
	})
}
