package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediator_transactions_total",
			Help: "Total number of transaction operations by type and outcome status",
		},
		[]string{"type", "status"},
	)

	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediator_gateway_request_duration_seconds",
			Help:    "Duration of outbound gateway calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediator_notifications_total",
			Help: "Total number of reconciled webhook notifications by result",
		},
		[]string{"result"},
	)

	storageInconsistencies = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediator_storage_inconsistencies_total",
			Help: "Gateway calls that succeeded but could not be durably recorded",
		},
	)
)

// RecordTransaction counts a finished transaction operation
func RecordTransaction(txType, status string) {
	transactionsTotal.WithLabelValues(txType, status).Inc()
}

// ObserveGatewayCall records the duration of one outbound gateway call
func ObserveGatewayCall(operation string, start time.Time) {
	gatewayRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordNotification counts a reconciled notification by result:
// processed, error, unresolved, malformed
func RecordNotification(result string) {
	notificationsTotal.WithLabelValues(result).Inc()
}

// RecordStorageInconsistency counts the known-hard failure case: the gateway
// accepted the call but the local write failed
func RecordStorageInconsistency() {
	storageInconsistencies.Inc()
}
