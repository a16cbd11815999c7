package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics bundles the Prometheus collectors the facade exposes on
// /metrics, named the way the teacher's internal/server/metrics.go
// names its pogo_* collectors, here under a parsesvc_ prefix.
// pagePoolInFlight and ocrPoolInFlight are registered, but nothing in
// this service updates them, so they always read 0.
type metrics struct {
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	parseErrorsTotal   *prometheus.CounterVec
	uploadSizeBytes    prometheus.Histogram
	pagePoolInFlight   prometheus.Gauge
	ocrPoolInFlight    prometheus.Gauge
	wsActiveStreams    prometheus.Gauge
}

func newMetrics() *metrics {
	return &metrics{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "parsesvc_requests_total",
			Help: "Total ParseFile requests by format and outcome.",
		}, []string{"format", "outcome"}),
		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "parsesvc_request_duration_seconds",
			Help:    "ParseFile wall-clock duration by format.",
			Buckets: prometheus.DefBuckets,
		}, []string{"format"}),
		parseErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "parsesvc_parse_errors_total",
			Help: "ParseFile failures by error kind.",
		}, []string{"kind"}),
		uploadSizeBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "parsesvc_upload_size_bytes",
			Help:    "Size of uploaded file content.",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		}),
		pagePoolInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "parsesvc_page_pool_in_flight",
			Help: "Page-pool tasks currently submitted and awaiting a result.",
		}),
		ocrPoolInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "parsesvc_ocr_pool_in_flight",
			Help: "OCR-pool tasks currently submitted and awaiting a result.",
		}),
		wsActiveStreams: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "parsesvc_websocket_active_streams",
			Help: "Active progress-stream websocket connections.",
		}),
	}
}
