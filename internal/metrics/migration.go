package metrics

import "github.com/prometheus/client_golang/prometheus"

// Migration Prometheus metrics.
var (
	MigrationPagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "migration_pages_total",
			Help:      "Source pages exported",
		},
	)

	MigrationRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "migration_records_total",
			Help:      "Records written to the hybrid collection",
		},
		[]string{"result"}, // "loaded" / "failed"
	)

	MigrationBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "migration_batch_duration_seconds",
			Help:      "Duration of one batch upsert",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	MigrationRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "migration_runs_total",
			Help:      "Finished migration runs",
		},
		[]string{"kind", "status"}, // kind: full/incremental; status: ok/partial/error
	)

	MigrationRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "migration_run_duration_seconds",
			Help:      "Duration of a migration run including the settle wait",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 9),
		},
		[]string{"kind"},
	)
)

var migrationMetricsRegistered bool

// RegisterMigrationMetrics registers Prometheus migration metrics. Must be called once from main.
func RegisterMigrationMetrics() {
	if migrationMetricsRegistered {
		return
	}
	prometheus.MustRegister(MigrationPagesTotal)
	prometheus.MustRegister(MigrationRecordsTotal)
	prometheus.MustRegister(MigrationBatchDuration)
	prometheus.MustRegister(MigrationRunsTotal)
	prometheus.MustRegister(MigrationRunDuration)
	migrationMetricsRegistered = true
}
