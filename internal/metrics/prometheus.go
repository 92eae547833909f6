package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the spread pool service

var (
	// Scoreboard feed metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spreadpool_scoreboard_calls_total",
			Help: "Total number of scoreboard feed requests",
		},
		[]string{"variant", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spreadpool_scoreboard_call_duration_seconds",
			Help:    "Duration of scoreboard feed requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"variant"},
	)

	// Resolution chain metrics
	TierFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spreadpool_tier_fetches_total",
			Help: "Total number of tier fetches by outcome",
		},
		[]string{"chain", "tier", "result"},
	)

	TierSaveErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spreadpool_tier_save_errors_total",
			Help: "Total number of failed tier saves",
		},
		[]string{"chain", "tier"},
	)

	// Database metrics
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spreadpool_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "table", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spreadpool_db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spreadpool_db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spreadpool_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spreadpool_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"prefix"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spreadpool_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"prefix"},
	)

	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spreadpool_cache_operation_duration_seconds",
			Help:    "Duration of cache operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// Mail ingestion metrics
	MailIngestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spreadpool_mail_ingestions_total",
			Help: "Total number of pick emails processed by outcome",
		},
		[]string{"status"},
	)

	// Scheduled job metrics
	SyncOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spreadpool_jobs_total",
			Help: "Total number of scheduled job runs",
		},
		[]string{"type", "status"},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spreadpool_job_duration_seconds",
			Help:    "Duration of scheduled job runs in seconds",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60},
		},
		[]string{"type"},
	)

	LastSuccessfulSync = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spreadpool_last_successful_job_timestamp",
			Help: "Timestamp of last successful scheduled job",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spreadpool_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spreadpool_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)
)

// RecordAPICall records a scoreboard feed request
func RecordAPICall(variant, status string, duration float64) {
	APICallsTotal.WithLabelValues(variant, status).Inc()
	APICallDuration.WithLabelValues(variant).Observe(duration)
}

// RecordTierFetch records the outcome of one tier fetch: hit, miss or error
func RecordTierFetch(chain, tier, result string) {
	TierFetchesTotal.WithLabelValues(chain, tier, result).Inc()
}

// RecordTierSaveError records a failed tier save
func RecordTierSaveError(chain, tier string) {
	TierSaveErrorsTotal.WithLabelValues(chain, tier).Inc()
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table, status string, duration float64) {
	DBQueriesTotal.WithLabelValues(operation, table, status).Inc()
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration)
}

// RecordCacheHit records a cache hit
func RecordCacheHit(prefix string) {
	CacheHitsTotal.WithLabelValues(prefix).Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(prefix string) {
	CacheMissesTotal.WithLabelValues(prefix).Inc()
}

// RecordCacheOperation records a cache operation duration
func RecordCacheOperation(operation string, duration float64) {
	CacheOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordMailIngestion records the outcome of a pick email
func RecordMailIngestion(status string) {
	MailIngestionsTotal.WithLabelValues(status).Inc()
}

// RecordSync records a scheduled job run
func RecordSync(jobType, status string, duration float64) {
	SyncOperationsTotal.WithLabelValues(jobType, status).Inc()
	SyncDuration.WithLabelValues(jobType).Observe(duration)

	if status == "success" {
		LastSuccessfulSync.SetToCurrentTime()
	}
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
