package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, op := range []string{"stat", "lstat", "readdir"} {
		FilesystemOperationDuration.WithLabelValues(op)
		FilesystemOperationErrors.WithLabelValues(op)
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}

	for _, op := range []string{"begin_scan", "set_message", "flush_batch", "complete_segment",
		"finish_scan", "fail_scan", "list_disks", "get_disk", "count_files", "search_files", "calculate_stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
		DBBusyRetries.WithLabelValues(op)
	}

	for _, r := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(r)
	}

	for _, op := range []string{"insert_files", "delete_files"} {
		DBRowsAffected.WithLabelValues(op)
	}

	for _, outcome := range []string{"done", "error", "cancelled"} {
		ScanRunsTotal.WithLabelValues(outcome)
	}

	for _, reason := range []string{"missing_fields", "in_progress"} {
		ScanRejectedTotal.WithLabelValues(reason)
	}

	for _, reason := range []string{"stat", "readdir", "not_regular"} {
		ScanEntriesSkipped.WithLabelValues(reason)
	}

	for _, status := range []string{"idle", "indexing", "done", "error"} {
		IndexDisksTotal.WithLabelValues(status)
	}
}
