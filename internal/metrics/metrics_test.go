package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestScannerMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"ScanRunsTotal", ScanRunsTotal},
		{"ScansInProgress", ScansInProgress},
		{"ScanRejectedTotal", ScanRejectedTotal},
		{"ScanDuration", ScanDuration},
		{"ScanFilesIndexed", ScanFilesIndexed},
		{"ScanBytesIndexed", ScanBytesIndexed},
		{"ScanEntriesSkipped", ScanEntriesSkipped},
		{"ScanSegmentsCompleted", ScanSegmentsCompleted},
		{"ScanBatchFlushDuration", ScanBatchFlushDuration},
		{"ScanStateWriteFailures", ScanStateWriteFailures},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestInitializeMetricsPopulatesLabels(t *testing.T) {
	InitializeMetrics()

	if got := testutil.CollectAndCount(ScanRunsTotal); got < 3 {
		t.Errorf("ScanRunsTotal series = %d, want at least 3", got)
	}
	if got := testutil.CollectAndCount(IndexDisksTotal); got < 4 {
		t.Errorf("IndexDisksTotal series = %d, want at least 4", got)
	}
}

func TestFilesystemObserver(t *testing.T) {
	obs := NewFilesystemObserver()

	before := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("lstat"))
	obs.ObserveOperation("lstat", 0.001, errors.New("boom"))
	obs.ObserveOperation("lstat", 0.001, nil)
	after := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("lstat"))

	if after-before != 1 {
		t.Errorf("lstat error counter delta = %v, want 1", after-before)
	}

	staleBefore := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("stat"))
	obs.ObserveStaleError("stat")
	obs.ObserveRetryAttempt("stat")
	obs.ObserveRetrySuccess("stat")
	obs.ObserveRetryFailure("stat")
	if got := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("stat")) - staleBefore; got != 1 {
		t.Errorf("stale error counter delta = %v, want 1", got)
	}
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.0.0", "abc123", "go1.25")

	if got := testutil.ToFloat64(AppInfo.WithLabelValues("1.0.0", "abc123", "go1.25")); got != 1 {
		t.Errorf("AppInfo = %v, want 1", got)
	}
}
