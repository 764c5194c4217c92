package server

import (
	"time"

	"github.com/MeKo-Tech/docscan/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docscan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docscan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docscan_scans_total",
			Help: "Total number of scan operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	scanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docscan_scan_duration_seconds",
			Help:    "Time spent in the scan pipeline",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"operation"},
	)

	detectionConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docscan_detection_confidence",
			Help:    "Confidence of automatic boundary detections",
			Buckets: []float64{0.1, 0.4, 0.5, 0.7, 0.9, 1},
		},
	)

	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docscan_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"type"},
	)

	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docscan_upload_size_bytes",
			Help:    "Size of uploaded images in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)

	wsConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "docscan_websocket_active_connections",
			Help: "Number of open WebSocket connections",
		},
	)

	wsMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docscan_websocket_messages_total",
			Help: "WebSocket messages by direction",
		},
		[]string{"direction"},
	)
)

// recordScan updates the scan metrics for one pipeline call.
func recordScan(operation string, res *pipeline.ScanResult, err error, elapsed time.Duration) {
	scanDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	scansTotal.WithLabelValues(operation, scanOutcome(res, err)).Inc()
	if err == nil && res != nil && !res.Manual {
		detectionConfidence.Observe(res.Confidence)
	}
}

func scanOutcome(res *pipeline.ScanResult, err error) string {
	switch {
	case err != nil || res == nil:
		return "error"
	case res.Manual:
		return "manual"
	case res.Detected:
		return "detected"
	default:
		return "fallback"
	}
}
