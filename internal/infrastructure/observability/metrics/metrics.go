package metrics

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/entity"
)

// Metrics bundles prometheus collectors of the surveillance pipeline.
// It implements port.PipelineMetrics and port.MetricsPublisher.
type Metrics struct {
	FramesProcessed    *prometheus.CounterVec
	DetectorFailures   *prometheus.CounterVec
	AlertsEmitted      *prometheus.CounterVec
	AlertsDropped      *prometheus.CounterVec
	Deliveries         *prometheus.CounterVec
	DeliveryDuration   *prometheus.HistogramVec
	StorageFailures    *prometheus.CounterVec
	QueueDepthGauge    prometheus.Gauge
	Telemetry          *prometheus.GaugeVec
	RequestsTotal      *prometheus.CounterVec
	RequestDurationSec *prometheus.HistogramVec
	RateLimitDropped   prometheus.Counter
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		FramesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "surveillance_frames_processed_total",
			Help: "Total number of frames processed per camera.",
		}, []string{"camera_id"}),
		DetectorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "surveillance_detector_failures_total",
			Help: "Total number of detector failures per camera.",
		}, []string{"camera_id"}),
		AlertsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "surveillance_alerts_emitted_total",
			Help: "Total number of alerts emitted by camera monitors.",
		}, []string{"camera_id", "category"}),
		AlertsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "surveillance_alerts_dropped_total",
			Help: "Total number of alerts dropped by the dispatcher.",
		}, []string{"category"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "surveillance_deliveries_total",
			Help: "Total number of notification deliveries by transport and result.",
		}, []string{"transport", "result"}),
		DeliveryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "surveillance_delivery_duration_seconds",
			Help:    "Notification delivery duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"transport"}),
		StorageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "surveillance_storage_failures_total",
			Help: "Total number of snapshot, audit and alert log write failures.",
		}, []string{"kind"}),
		QueueDepthGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "surveillance_alert_queue_depth",
			Help: "Current number of alerts waiting in the dispatcher queue.",
		}),
		Telemetry: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "surveillance_telemetry_value",
			Help: "Last collected telemetry value.",
		}, []string{"metric_type", "name", "unit", "camera_id", "transport"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "surveillance_http_requests_total",
			Help: "Total number of status API HTTP requests.",
		}, []string{"route", "method", "status"}),
		RequestDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "surveillance_http_request_duration_seconds",
			Help:    "Status API request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		RateLimitDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "surveillance_http_ratelimit_dropped_total",
			Help: "Total number of status API requests dropped by rate limiter.",
		}),
	}

	registry.MustRegister(
		m.FramesProcessed,
		m.DetectorFailures,
		m.AlertsEmitted,
		m.AlertsDropped,
		m.Deliveries,
		m.DeliveryDuration,
		m.StorageFailures,
		m.QueueDepthGauge,
		m.Telemetry,
		m.RequestsTotal,
		m.RequestDurationSec,
		m.RateLimitDropped,
	)

	return m
}

func (m *Metrics) FrameProcessed(cameraID string) {
	m.FramesProcessed.WithLabelValues(cameraID).Inc()
}

func (m *Metrics) DetectorFailed(cameraID string) {
	m.DetectorFailures.WithLabelValues(cameraID).Inc()
}

func (m *Metrics) AlertEmitted(cameraID, category string) {
	m.AlertsEmitted.WithLabelValues(cameraID, category).Inc()
}

func (m *Metrics) AlertDropped(category string) {
	m.AlertsDropped.WithLabelValues(category).Inc()
}

// DeliveryFinished records one transport attempt. Skipped attempts (zero duration) are not observed.
func (m *Metrics) DeliveryFinished(transport string, success bool, duration time.Duration) {
	result := "failure"
	if success {
		result = "success"
	}
	m.Deliveries.WithLabelValues(transport, result).Inc()
	if duration > 0 {
		m.DeliveryDuration.WithLabelValues(transport).Observe(duration.Seconds())
	}
}

func (m *Metrics) StorageFailed(kind string) {
	m.StorageFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) QueueDepth(depth int) {
	m.QueueDepthGauge.Set(float64(depth))
}

// PublishBatch exposes collected telemetry as gauges.
func (m *Metrics) PublishBatch(_ context.Context, metrics []*entity.Metric) error {
	for _, metric := range metrics {
		if metric == nil {
			continue
		}
		dims := metric.Dimensions()
		m.Telemetry.WithLabelValues(
			metric.Type().String(),
			metric.Name(),
			metric.Value().Unit(),
			dims["camera_id"],
			dims["transport"],
		).Set(metric.Value().Raw())
	}
	return nil
}

// Flush is a no-op: gauges are scraped, not pushed.
func (m *Metrics) Flush(context.Context) error {
	return nil
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.statusCode)
		route := normalizeRoute(r.URL.Path)
		m.RequestsTotal.WithLabelValues(route, r.Method, status).Inc()
		m.RequestDurationSec.WithLabelValues(route, r.Method, status).Observe(time.Since(startedAt).Seconds())
	})
}

func normalizeRoute(path string) string {
	switch {
	case path == "/ws", path == "/healthz", path == "/readyz", path == "/metrics":
		return path
	case path == "/api/v1/cameras" || strings.HasPrefix(path, "/api/v1/cameras/"):
		return "/api/v1/cameras"
	case path == "/api/v1/alerts" || strings.HasPrefix(path, "/api/v1/alerts/"):
		return "/api/v1/alerts/*"
	case path == "/api/v1" || strings.HasPrefix(path, "/api/v1/"):
		return "/api/v1/*"
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Hijack passes websocket upgrades through wrapped ResponseWriter.
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

// Flush keeps streaming behavior for handlers that require it.
func (rw *statusRecorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
