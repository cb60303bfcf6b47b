package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	workOrdersCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "work_orders_created_total",
			Help: "Total number of work orders created",
		},
	)

	workOrdersCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "work_orders_completed_total",
			Help: "Total number of work orders completed",
		},
	)

	sessionsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "work_sessions_started_total",
			Help: "Total number of time tracking sessions started",
		},
	)

	sessionsClosedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "work_sessions_closed_total",
			Help: "Total number of time tracking sessions closed",
		},
		[]string{"cause"}, // close, pause, completion
	)

	notificationsDispatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total number of notifications dispatched",
		},
		[]string{"status"}, // sent, failed
	)

	workOrdersByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "work_orders_by_status",
			Help: "Number of work orders by status",
		},
		[]string{"status"},
	)

	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	websocketConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Number of connected WebSocket clients",
		},
	)
)

var once sync.Once

func init() {
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(workOrdersCreatedTotal)
	prometheus.MustRegister(workOrdersCompletedTotal)
	prometheus.MustRegister(sessionsStartedTotal)
	prometheus.MustRegister(sessionsClosedTotal)
	prometheus.MustRegister(notificationsDispatchedTotal)
	prometheus.MustRegister(workOrdersByStatus)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(websocketConnectionsActive)

	once.Do(func() {
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler returns the Prometheus metrics handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest records one API request.
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordWorkOrderCreated records a work order creation.
func RecordWorkOrderCreated() {
	workOrdersCreatedTotal.Inc()
}

// RecordWorkOrderCompleted records a work order completion.
func RecordWorkOrderCompleted() {
	workOrdersCompletedTotal.Inc()
}

// RecordSessionStarted records a session start.
func RecordSessionStarted() {
	sessionsStartedTotal.Inc()
}

// RecordSessionClosed records a session close with its cause.
func RecordSessionClosed(cause string) {
	sessionsClosedTotal.WithLabelValues(cause).Inc()
}

// RecordNotificationDispatched records a notification dispatch outcome.
func RecordNotificationDispatched(status string) {
	notificationsDispatchedTotal.WithLabelValues(status).Inc()
}

// UpdateWorkOrdersByStatus updates the per-status gauge.
func UpdateWorkOrdersByStatus(status string, count float64) {
	workOrdersByStatus.WithLabelValues(status).Set(count)
}

// UpdateWebsocketConnections refreshes the connected-clients gauge.
func UpdateWebsocketConnections(count int) {
	websocketConnectionsActive.Set(float64(count))
}

// UpdateDatabaseConnections refreshes the db pool gauges.
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))

	return nil
}
