package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics holds all Prometheus metrics
type PrometheusMetrics struct {
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Warehouse lifecycle metrics
	WarehouseOpsTotal *prometheus.CounterVec
	WarehousesActive  prometheus.Gauge

	// Item operation metrics
	ItemOpsTotal       *prometheus.CounterVec
	ItemOpDuration     *prometheus.HistogramVec
	ItemConflictsTotal *prometheus.CounterVec
}

var (
	metrics *PrometheusMetrics
)

// InitMetrics initializes all Prometheus metrics
func InitMetrics() {
	metrics = &PrometheusMetrics{
		HttpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warehouse_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HttpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warehouse_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		WarehouseOpsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warehouse_lifecycle_operations_total",
				Help: "Total number of warehouse create/drop operations",
			},
			[]string{"operation", "status"},
		),
		WarehousesActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "warehouse_registered_total",
				Help: "Number of currently registered warehouses",
			},
		),
		ItemOpsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warehouse_item_operations_total",
				Help: "Total number of item operations",
			},
			[]string{"warehouse", "operation", "status"},
		),
		ItemOpDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warehouse_item_operation_duration_seconds",
				Help:    "Item operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"warehouse", "operation"},
		),
		ItemConflictsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warehouse_item_write_conflicts_total",
				Help: "Total number of item writes rejected by unique or primary-key constraints",
			},
			[]string{"warehouse"},
		),
	}
}

// GetMetrics returns the initialized metrics
func GetMetrics() *PrometheusMetrics {
	return metrics
}

// PrometheusMiddleware is a Gin middleware that records HTTP metrics
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		endpoint := c.FullPath()

		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		metrics.HttpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		metrics.HttpRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
	}
}

// SetWarehousesActive seeds the active-warehouse gauge from the catalog
// count, so the gauge reflects warehouses registered before this process
// started
func SetWarehousesActive(count int64) {
	if metrics == nil {
		return
	}

	metrics.WarehousesActive.Set(float64(count))
}

// RecordWarehouseOperation records a warehouse create or drop, adjusting the
// active-warehouse gauge on success
func RecordWarehouseOperation(operation, status string) {
	if metrics == nil {
		return
	}

	metrics.WarehouseOpsTotal.WithLabelValues(operation, status).Inc()

	if status == "success" {
		switch operation {
		case "create":
			metrics.WarehousesActive.Inc()
		case "drop":
			metrics.WarehousesActive.Dec()
		}
	}
}

// RecordItemOperation records an item operation outcome
func RecordItemOperation(warehouse, operation, status string) {
	if metrics == nil {
		return
	}

	metrics.ItemOpsTotal.WithLabelValues(warehouse, operation, status).Inc()
}

// RecordItemConflict records an item write rejected by a store constraint
func RecordItemConflict(warehouse string) {
	if metrics == nil {
		return
	}

	metrics.ItemConflictsTotal.WithLabelValues(warehouse).Inc()
}

// ObserveItemOperation records item operation latency
func ObserveItemOperation(warehouse, operation string, duration time.Duration) {
	if metrics == nil {
		return
	}

	metrics.ItemOpDuration.WithLabelValues(warehouse, operation).Observe(duration.Seconds())
}
