package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the ingestion worker

var (
	// Provider call metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "f1_provider_calls_total",
			Help: "Total number of data provider API calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "f1_provider_call_duration_seconds",
			Help:    "Duration of provider API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Database metrics
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "f1_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "table", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "f1_db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "f1_db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "f1_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	// Job metrics
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "f1_job_runs_total",
			Help: "Total number of scheduled job runs",
		},
		[]string{"job", "status"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "f1_job_duration_seconds",
			Help:    "Duration of job runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"job"},
	)

	LastSuccessfulJob = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "f1_job_last_success_timestamp",
			Help: "Timestamp of the last successful run per job",
		},
		[]string{"job"},
	)

	// Ingestion metrics
	EntitiesSynced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "f1_entities_synced_total",
			Help: "Total number of provider entities written during synchronization",
		},
		[]string{"entity"},
	)

	ResultsReconciled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "f1_results_reconciled_total",
			Help: "Total number of race results created",
		},
	)

	ReconcileSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "f1_reconcile_skips_total",
			Help: "Total number of sessions skipped by the reconciler",
		},
		[]string{"reason"},
	)

	// Scoring metrics
	PredictionsGraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "f1_predictions_graded_total",
			Help: "Total number of predictions graded",
		},
		[]string{"outcome"},
	)

	PointsAwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "f1_points_awarded_total",
			Help: "Total number of points credited to users",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "f1_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordAPICall records a provider call metric
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table, status string, duration float64) {
	DBQueriesTotal.WithLabelValues(operation, table, status).Inc()
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration)
}

// RecordJob records a job run
func RecordJob(job, status string, duration float64) {
	JobRunsTotal.WithLabelValues(job, status).Inc()
	JobDuration.WithLabelValues(job).Observe(duration)

	if status == "success" {
		LastSuccessfulJob.WithLabelValues(job).SetToCurrentTime()
	}
}

// RecordSynced records entities written by a synchronizer
func RecordSynced(entity string, count int) {
	EntitiesSynced.WithLabelValues(entity).Add(float64(count))
}

// RecordReconciled records a created result
func RecordReconciled() {
	ResultsReconciled.Inc()
}

// RecordReconcileSkip records a session the reconciler passed over
func RecordReconcileSkip(reason string) {
	ReconcileSkips.WithLabelValues(reason).Inc()
}

// RecordGraded records one graded prediction and the points it earned
func RecordGraded(points int) {
	outcome := "miss"
	if points > 0 {
		outcome = "hit"
		PointsAwarded.Add(float64(points))
	}
	PredictionsGraded.WithLabelValues(outcome).Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// UpdateDBConnectionStats updates database connection pool statistics
func UpdateDBConnectionStats(active, idle int32) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
