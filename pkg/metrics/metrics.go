package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OperationsTotal counts engine operations by name and outcome.
	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydranet_operations_total",
			Help: "Total number of engine operations",
		},
		[]string{"operation", "status"},
	)

	// OperationDuration observes engine operation latency.
	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hydranet_operation_duration_seconds",
			Help:    "Engine operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// DatasetDedupHits counts dataset inserts resolved by hash reuse.
	DatasetDedupHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hydranet_dataset_dedup_hits_total",
			Help: "Dataset inserts satisfied by an existing row with the same hash",
		},
	)

	// DatasetDedupMisses counts dataset inserts that created a new row.
	DatasetDedupMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hydranet_dataset_dedup_misses_total",
			Help: "Dataset inserts that created a new row",
		},
	)

	// DatasetCompressed counts payloads stored zlib-compressed.
	DatasetCompressed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hydranet_dataset_compressed_total",
			Help: "Dataset payloads stored compressed",
		},
	)

	// ScenariosCloned counts scenario clone operations.
	ScenariosCloned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hydranet_scenarios_cloned_total",
			Help: "Total number of scenario clones",
		},
	)
)

func init() {
	prometheus.MustRegister(
		OperationsTotal,
		OperationDuration,
		DatasetDedupHits,
		DatasetDedupMisses,
		DatasetCompressed,
		ScenariosCloned,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
