// Package metrics provides Prometheus instrumentation for the disk indexer.
//
// All metrics are prefixed with "disk_indexer_" and registered through
// promauto at package initialization.
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//
// ## Database Metrics
//   - DBQueryTotal / DBQueryDuration by operation
//   - DBTransactionDuration by commit/rollback
//   - DBBusyRetries: writes retried because SQLite reported busy or locked
//   - DBSchemaVersion / DBSchemaDegraded: migration outcome at startup
//
// ## Scanner Metrics
//   - ScanRunsTotal by outcome, ScansInProgress, ScanDuration
//   - ScanFilesIndexed / ScanBytesIndexed
//   - ScanEntriesSkipped by reason (stat, readdir, not_regular)
//   - ScanBatchFlushDuration, ScanSegmentsCompleted
//   - ScanStateWriteFailures: terminal error states that could not be stored
//
// ## Index Metrics
//   - IndexDisksTotal by status, IndexFilesTotal, IndexBytesTotal,
//     refreshed by the Collector.
//
// ## Filesystem Metrics
//   - FilesystemOperation* and FilesystemRetry* recorded through the
//     filesystem.Observer implementation returned by NewFilesystemObserver.
package metrics
