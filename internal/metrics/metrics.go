// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is served on /metrics.
var Registry = prometheus.NewRegistry()

var (
	HTTPRequests = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "weighbridge",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "weighbridge",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	ImportRows = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "weighbridge",
		Name:      "import_rows_total",
		Help:      "Imported ticket rows by outcome.",
	}, []string{"outcome"})

	InsightRequests = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "weighbridge",
		Name:      "insight_requests_total",
		Help:      "Narrative insight requests by result.",
	}, []string{"result"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}
