package prometheus

import (
	"net/http"
	"time"

	"vendor-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Entity operation metrics
	VendorOperationsCounter        prometheus.CounterVec
	PurchaseOrderOperationsCounter prometheus.CounterVec

	// Performance recomputation metrics
	MetricRecalculationsCounter prometheus.Counter
	SnapshotsCreatedCounter     prometheus.Counter

	// Notification metrics
	ReportsSentCounter prometheus.Counter
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthSuccessCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful authentications",
		},
	)

	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	VendorOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_vendor_operations_total",
			Help: "Total number of vendor operations",
		},
		[]string{"operation"},
	)

	PurchaseOrderOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_purchase_order_operations_total",
			Help: "Total number of purchase order operations",
		},
		[]string{"operation"},
	)

	MetricRecalculationsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_metric_recalculations_total",
			Help: "Total number of vendor metric recomputations",
		},
	)

	SnapshotsCreatedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_historical_snapshots_total",
			Help: "Total number of historical performance snapshots created",
		},
	)

	ReportsSentCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_performance_reports_sent_total",
			Help: "Total number of performance report emails sent",
		},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordVendorOperation increments the counter for vendor operations
func RecordVendorOperation(operation string) {
	VendorOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordPurchaseOrderOperation increments the counter for purchase order operations
func RecordPurchaseOrderOperation(operation string) {
	PurchaseOrderOperationsCounter.WithLabelValues(operation).Inc()
}

// GetPrometheusHandler returns an HTTP handler for exposing Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
