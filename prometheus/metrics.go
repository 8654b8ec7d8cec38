package prometheus

import (
	"sync"
	"time"

	"tender-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Authentication metrics
	AuthErrorsCounter prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Lifecycle operation metrics
	TenderOperationsCounter   prometheus.CounterVec
	BidOperationsCounter      prometheus.CounterVec
	ContractOperationsCounter prometheus.CounterVec

	// Notification dispatch metrics
	NotificationsDispatchedCounter prometheus.CounterVec
	NotificationsDuplicateCounter  prometheus.Counter

	// Deadline sweep metrics
	SweepRunsCounter     prometheus.Counter
	SweepClosedCounter   prometheus.Counter
	SweepDurationSeconds prometheus.Histogram
	TendersByStatusGauge prometheus.GaugeVec
	ActiveContractsGauge prometheus.Gauge
)

var initOnce sync.Once

// InitMetrics initializes Prometheus metrics with configuration.
// Collectors register against the default registry once; repeated
// calls are no-ops.
func InitMetrics(config *config.Config) {
	initOnce.Do(func() { initMetrics(config) })
}

func initMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

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

	TenderOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_tender_operations_total",
			Help: "Total number of tender lifecycle operations",
		},
		[]string{"operation"},
	)

	BidOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_bid_operations_total",
			Help: "Total number of bid lifecycle operations",
		},
		[]string{"operation"},
	)

	ContractOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_contract_operations_total",
			Help: "Total number of contract and milestone operations",
		},
		[]string{"operation"},
	)

	NotificationsDispatchedCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_notifications_dispatched_total",
			Help: "Total number of notifications written",
		},
		[]string{"type"},
	)

	NotificationsDuplicateCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_notifications_duplicate_total",
			Help: "Total number of notifications suppressed as duplicates",
		},
	)

	SweepRunsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_deadline_sweep_runs_total",
			Help: "Total number of deadline sweep executions",
		},
	)

	SweepClosedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_deadline_sweep_closed_total",
			Help: "Total number of tenders closed by the deadline sweep",
		},
	)

	SweepDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_deadline_sweep_duration_seconds",
			Help:    "Duration of deadline sweep executions in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	TendersByStatusGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_tenders_by_status",
			Help: "Number of tenders per lifecycle status",
		},
		[]string{"status"},
	)

	ActiveContractsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_active_contracts",
			Help: "Number of contracts currently active",
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

// RecordAuthError increments the counter for authentication errors
func RecordAuthError() {
	AuthErrorsCounter.Inc()
}

// RecordTenderOperation increments the counter for tender operations
func RecordTenderOperation(operation string) {
	TenderOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordBidOperation increments the counter for bid operations
func RecordBidOperation(operation string) {
	BidOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordContractOperation increments the counter for contract operations
func RecordContractOperation(operation string) {
	ContractOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordNotificationDispatched increments the counter for dispatched notifications
func RecordNotificationDispatched(notificationType string) {
	NotificationsDispatchedCounter.WithLabelValues(notificationType).Inc()
}

// RecordNotificationDuplicate increments the duplicate suppression counter
func RecordNotificationDuplicate() {
	NotificationsDuplicateCounter.Inc()
}

// RecordSweepRun records one deadline sweep execution
func RecordSweepRun(closed int, startTime time.Time) {
	SweepRunsCounter.Inc()
	SweepClosedCounter.Add(float64(closed))
	SweepDurationSeconds.Observe(time.Since(startTime).Seconds())
}

// UpdateTendersByStatus updates the gauge for tenders per status
func UpdateTendersByStatus(status string, count int64) {
	TendersByStatusGauge.WithLabelValues(status).Set(float64(count))
}

// UpdateActiveContracts updates the active contracts gauge
func UpdateActiveContracts(count int64) {
	ActiveContractsGauge.Set(float64(count))
}
