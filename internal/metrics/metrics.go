package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "disk_indexer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "disk_indexer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "disk_indexer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "disk_indexer_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "disk_indexer_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "disk_indexer_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"result"},
	)

	DBRowsAffected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "disk_indexer_db_rows_affected",
			Help:    "Rows affected by write operations",
			Buckets: []float64{0, 1, 10, 100, 500, 1000, 10000, 100000},
		},
		[]string{"operation"},
	)

	DBBusyRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "disk_indexer_db_busy_retries_total",
			Help: "Write attempts retried because the database was busy or locked",
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "disk_indexer_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBSchemaVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "disk_indexer_db_schema_version",
			Help: "Schema version reported by the database after migrations",
		},
	)

	DBSchemaDegraded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "disk_indexer_db_schema_degraded",
			Help: "Whether optional progress columns are missing (1 = legacy schema)",
		},
	)
)

// Scanner metrics
var (
	ScanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "disk_indexer_scan_runs_total",
			Help: "Total number of scans by outcome",
		},
		[]string{"outcome"}, // "done", "error", "cancelled"
	)

	ScansInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "disk_indexer_scans_in_progress",
			Help: "Number of scans currently running",
		},
	)

	ScanRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "disk_indexer_scan_rejected_total",
			Help: "Scan requests rejected before starting",
		},
		[]string{"reason"}, // "missing_fields", "in_progress"
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "disk_indexer_scan_duration_seconds",
			Help:    "Duration of completed scans in seconds",
			Buckets: []float64{0.1, 1, 5, 30, 60, 300, 900, 1800, 3600, 7200, 21600},
		},
	)

	ScanFilesIndexed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "disk_indexer_scan_files_indexed_total",
			Help: "Total number of file records written by scans",
		},
	)

	ScanBytesIndexed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "disk_indexer_scan_bytes_indexed_total",
			Help: "Total size in bytes of files indexed by scans",
		},
	)

	ScanEntriesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "disk_indexer_scan_entries_skipped_total",
			Help: "Filesystem entries skipped during walks",
		},
		[]string{"reason"},
	)

	ScanSegmentsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "disk_indexer_scan_segments_completed_total",
			Help: "Total number of scan segments completed",
		},
	)

	ScanBatchFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "disk_indexer_scan_batch_flush_duration_seconds",
			Help:    "Duration of batch flush transactions in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	ScanStateWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "disk_indexer_scan_state_write_failures_total",
			Help: "Failures to persist a terminal error state for a scan",
		},
	)
)

// Index library metrics
var (
	IndexDisksTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "disk_indexer_disks",
			Help: "Number of known disks by status",
		},
		[]string{"status"},
	)

	IndexFilesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "disk_indexer_files",
			Help: "Number of indexed file records",
		},
	)

	IndexBytesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "disk_indexer_bytes",
			Help: "Total size in bytes of indexed files",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "disk_indexer_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "disk_indexer_filesystem_operation_errors_total",
			Help: "Filesystem operations that returned an error",
		},
		[]string{"operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "disk_indexer_filesystem_retry_attempts_total",
			Help: "Filesystem operation retries after stale file handle errors",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "disk_indexer_filesystem_retry_success_total",
			Help: "Filesystem operations that succeeded after retrying",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "disk_indexer_filesystem_retry_failures_total",
			Help: "Filesystem operations that failed after exhausting retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "disk_indexer_filesystem_stale_errors_total",
			Help: "Stale file handle errors observed",
		},
		[]string{"operation"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "disk_indexer_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
