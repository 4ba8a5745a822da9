package database

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
)

// TestRecordQuery tests the recordQuery helper function.
func TestRecordQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		operation string
		err       error
	}{
		{name: "successful query", operation: "list_disks", err: nil},
		{name: "failed query", operation: "list_disks", err: errors.New("test error")},
		{name: "empty operation name", operation: "", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			// Must not panic for any label combination
			recordQuery(tt.operation, time.Now(), tt.err)
		})
	}
}

func TestIsBusy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "generic", err: errors.New("boom"), want: false},
		{name: "sqlite busy", err: sqlite3.Error{Code: sqlite3.ErrBusy}, want: true},
		{name: "sqlite locked", err: sqlite3.Error{Code: sqlite3.ErrLocked}, want: true},
		{name: "sqlite constraint", err: sqlite3.Error{Code: sqlite3.ErrConstraint}, want: false},
		{name: "wrapped busy", err: fmt.Errorf("flush: %w", sqlite3.Error{Code: sqlite3.ErrBusy}), want: true},
		{name: "store busy sentinel", err: fmt.Errorf("flush_batch: %w", ErrStoreBusy), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsBusy(tt.err); got != tt.want {
				t.Errorf("IsBusy(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultRetryConfig()
	if cfg.MaxRetries <= 0 {
		t.Errorf("MaxRetries = %d, want > 0", cfg.MaxRetries)
	}
	if cfg.InitialBackoff >= cfg.MaxBackoff {
		t.Errorf("InitialBackoff %v should be below MaxBackoff %v", cfg.InitialBackoff, cfg.MaxBackoff)
	}
}

func TestDefaultTimeoutConstant(t *testing.T) {
	t.Parallel()

	if defaultTimeout != 5*time.Second {
		t.Errorf("defaultTimeout = %v, want 5s", defaultTimeout)
	}
	if DefaultBusyTimeout < time.Second {
		t.Errorf("DefaultBusyTimeout = %v, should allow a flush to finish", DefaultBusyTimeout)
	}
}

func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 9, 14, 5, 7, 123456000, time.Local)
	if got, want := FormatTimestamp(ts), "2024-03-09T14:05:07.123456"; got != want {
		t.Errorf("FormatTimestamp() = %q, want %q", got, want)
	}

	// Lexical order must match chronological order for range filters
	earlier := FormatTimestamp(ts.Add(-time.Microsecond))
	if earlier >= FormatTimestamp(ts) {
		t.Errorf("timestamps do not sort lexically: %q >= %q", earlier, FormatTimestamp(ts))
	}
}

func TestProgressAdd(t *testing.T) {
	t.Parallel()

	p := Progress{Files: 1, Bytes: 100, Skipped: 2}.Add(Progress{Files: 2, Bytes: 50, Skipped: 1})
	if p != (Progress{Files: 3, Bytes: 150, Skipped: 3}) {
		t.Errorf("Progress.Add() = %+v", p)
	}
}

func TestSchemaDegraded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		schema Schema
		want   bool
	}{
		{Schema{Version: 0, Progress: false}, true},
		{Schema{Version: 1, Progress: true}, false},
		{Schema{Version: 2, Progress: true, Skips: true}, false},
	}

	for _, tt := range tests {
		if got := tt.schema.Degraded(); got != tt.want {
			t.Errorf("%+v.Degraded() = %v, want %v", tt.schema, got, tt.want)
		}
	}
}

func TestStatusesComplete(t *testing.T) {
	t.Parallel()

	seen := make(map[ScanStatus]bool)
	for _, s := range Statuses {
		seen[s] = true
	}
	for _, s := range []ScanStatus{"idle", "indexing", "done", "error"} {
		if !seen[s] {
			t.Errorf("Statuses missing %q", s)
		}
	}
}

func TestSchemaVersionMatchesMigrations(t *testing.T) {
	t.Parallel()

	for i, m := range migrations {
		if m.version != i+1 {
			t.Errorf("migration %d has version %d, want %d", i, m.version, i+1)
		}
		if len(m.columns) == 0 {
			t.Errorf("migration v%d adds no columns", m.version)
		}
	}
	if SchemaVersion != len(migrations) {
		t.Errorf("SchemaVersion = %d, want %d", SchemaVersion, len(migrations))
	}
}

func BenchmarkRecordQuery(b *testing.B) {
	start := time.Now()
	for i := 0; i < b.N; i++ {
		recordQuery("benchmark_operation", start, nil)
	}
}
