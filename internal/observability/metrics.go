package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threads_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// OperationTotal counts service operations by name and outcome code.
	OperationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threads_operations_total",
		Help: "Total number of service operations by name and result",
	}, []string{"operation", "result"})

	// OperationLatency records service operation latency.
	OperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "threads_operation_latency_seconds",
		Help:    "Service operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// CascadeDeleteSize records how many threads one cascade delete removed.
	CascadeDeleteSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "threads_cascade_delete_size",
		Help:    "Number of threads removed by a single cascading delete",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 1000},
	})

	// ReconcileRepairs counts repairs applied by the reconciler by kind.
	ReconcileRepairs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threads_reconcile_repairs_total",
		Help: "Total number of consistency repairs applied by the reconciler",
	}, []string{"kind"})
)

// ObserveOperation records one finished service operation.
func ObserveOperation(operation, result string, start time.Time) {
	OperationTotal.WithLabelValues(operation, result).Inc()
	OperationLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
