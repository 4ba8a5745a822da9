package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a migrated test database in a temp directory.
func setupTestDB(t testing.TB, opts ...*Options) (db *Database, dbPath string) {
	t.Helper()

	dbPath = filepath.Join(t.TempDir(), "test.db")

	var dbOpts *Options
	if len(opts) > 0 {
		dbOpts = opts[0]
	}

	db, err := New(context.Background(), dbPath, dbOpts)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db, dbPath
}

// createLegacyDB writes a database with only the base disks columns, as
// produced by releases that predate scan progress tracking.
func createLegacyDB(t *testing.T) string {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "legacy.db")
	raw, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer raw.Close()

	_, err = raw.Exec(`
		CREATE TABLE files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			disk_name TEXT, folder TEXT, file_name TEXT,
			size INTEGER, created_at TEXT, modified_at TEXT
		);
		CREATE TABLE disks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			disk_name TEXT UNIQUE,
			last_scan_date TEXT
		);
		INSERT INTO disks (disk_name, last_scan_date) VALUES ('old', '2020-01-01T00:00:00.000000');
		INSERT INTO disks (disk_name) VALUES ('never');
	`)
	require.NoError(t, err)
	return dbPath
}

func testRecords(disk string, n int) []FileRecord {
	records := make([]FileRecord, n)
	for i := range records {
		records[i] = FileRecord{
			DiskName:   disk,
			Folder:     "/data/sub",
			FileName:   fmt.Sprintf("file-%04d.txt", i),
			Size:       int64(i),
			CreatedAt:  "2024-01-01T00:00:00.000000",
			ModifiedAt: "2024-01-02T00:00:00.000000",
		}
	}
	return records
}

func TestNewDatabase(t *testing.T) {
	db, dbPath := setupTestDB(t)

	_, err := os.Stat(dbPath)
	require.NoError(t, err, "database file was not created")
	assert.Equal(t, dbPath, db.Path())

	schema := db.Schema()
	assert.Equal(t, SchemaVersion, schema.Version)
	assert.True(t, schema.Progress)
	assert.True(t, schema.Skips)
	assert.False(t, schema.Degraded())
}

func TestNewDatabaseIsIdempotent(t *testing.T) {
	_, dbPath := setupTestDB(t)

	db2, err := New(context.Background(), dbPath, nil)
	require.NoError(t, err)
	defer db2.Close()

	assert.Equal(t, SchemaVersion, db2.Schema().Version)
}

func TestNewDatabaseMissingDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing", "test.db")

	_, err := New(context.Background(), dbPath, nil)
	assert.Error(t, err)
}

func TestScanLifecycle(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.BeginScan(ctx, "backup", 3))

	state, err := db.GetDisk(ctx, "backup")
	require.NoError(t, err)
	assert.Equal(t, StatusIndexing, state.Status)
	assert.Equal(t, PreparingMessage, state.Message)
	assert.Equal(t, 3, state.SegmentsTotal)
	assert.Equal(t, 0, state.SegmentsDone)
	assert.Zero(t, state.ProcessedFiles)
	require.NotNil(t, state.LastScanDate)

	require.NoError(t, db.SetMessage(ctx, "backup", "Indexing root folder... (1/3)"))

	records := testRecords("backup", 10)
	progress := Progress{Files: 10, Bytes: 45, Skipped: 1}
	require.NoError(t, db.FlushBatch(ctx, "backup", records, progress, "Indexing... 10 files"))

	state, err = db.GetDisk(ctx, "backup")
	require.NoError(t, err)
	assert.Equal(t, int64(10), state.ProcessedFiles)
	assert.Equal(t, int64(45), state.ProcessedBytes)
	assert.Equal(t, int64(1), state.SkippedEntries)
	assert.Equal(t, "Indexing... 10 files", state.Message)

	require.NoError(t, db.CompleteSegment(ctx, "backup", 1, "Completed 1/3: root"))
	require.NoError(t, db.FinishScan(ctx, "backup", "Scan complete"))

	state, err = db.GetDisk(ctx, "backup")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, state.Status)
	assert.Equal(t, "Scan complete", state.Message)
	assert.Equal(t, 1, state.SegmentsDone)

	count, err := db.CountFiles(ctx, "backup")
	require.NoError(t, err)
	assert.Equal(t, int64(10), count)
}

func TestBeginScanPurgesOnlyThatDisk(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	for _, disk := range []string{"a", "b"} {
		require.NoError(t, db.BeginScan(ctx, disk, 1))
		require.NoError(t, db.FlushBatch(ctx, disk, testRecords(disk, 5), Progress{Files: 5}, ""))
		require.NoError(t, db.FinishScan(ctx, disk, "Scan complete"))
	}

	require.NoError(t, db.BeginScan(ctx, "a", 1))

	countA, err := db.CountFiles(ctx, "a")
	require.NoError(t, err)
	countB, err := db.CountFiles(ctx, "b")
	require.NoError(t, err)

	assert.Zero(t, countA)
	assert.Equal(t, int64(5), countB)

	state, err := db.GetDisk(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, StatusIndexing, state.Status)
	assert.Zero(t, state.ProcessedFiles)
}

func TestFailScanWithoutPriorRow(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.FailScan(ctx, "ghost", "RootNotFound: /nope"))

	state, err := db.GetDisk(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, StatusError, state.Status)
	assert.Equal(t, "RootNotFound: /nope", state.Message)
	assert.Equal(t, 0, state.SegmentsTotal)
	require.NotNil(t, state.LastScanDate)
}

func TestGetDiskNotFound(t *testing.T) {
	db, _ := setupTestDB(t)

	_, err := db.GetDisk(context.Background(), "nope")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestListDisksOrdering(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	_, err := db.db.Exec(`
		INSERT INTO disks (disk_name, last_scan_date) VALUES
			('never', NULL),
			('older', '2023-01-01T00:00:00.000000'),
			('newer', '2024-06-01T00:00:00.000000')`)
	require.NoError(t, err)

	disks, err := db.ListDisks(ctx)
	require.NoError(t, err)
	require.Len(t, disks, 3)

	assert.Equal(t, "newer", disks[0].DiskName)
	assert.Equal(t, "older", disks[1].DiskName)
	assert.Equal(t, "never", disks[2].DiskName)
	assert.Nil(t, disks[2].LastScanDate)

	// NULL optional columns come back as defaults
	for _, d := range disks {
		assert.Equal(t, StatusIdle, d.Status)
		assert.Equal(t, "", d.Message)
		assert.Zero(t, d.ProcessedFiles)
	}
}

func TestListDisksEmpty(t *testing.T) {
	db, _ := setupTestDB(t)

	disks, err := db.ListDisks(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, disks)
	assert.Empty(t, disks)
}

func TestLegacySchemaDegradedMode(t *testing.T) {
	dbPath := createLegacyDB(t)
	ctx := context.Background()

	db, err := New(ctx, dbPath, &Options{SkipMigrations: true})
	require.NoError(t, err)
	defer db.Close()

	schema := db.Schema()
	assert.True(t, schema.Degraded())
	assert.Equal(t, 0, schema.Version)

	// Every scan-state write succeeds with only the guaranteed columns
	require.NoError(t, db.BeginScan(ctx, "legacy", 2))
	require.NoError(t, db.SetMessage(ctx, "legacy", "ignored"))
	require.NoError(t, db.FlushBatch(ctx, "legacy", testRecords("legacy", 3), Progress{Files: 3}, "ignored"))
	require.NoError(t, db.CompleteSegment(ctx, "legacy", 1, "ignored"))
	require.NoError(t, db.FinishScan(ctx, "legacy", "Scan complete"))
	require.NoError(t, db.FailScan(ctx, "other", "Error: boom"))

	count, err := db.CountFiles(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count, "records must be stored even without progress columns")

	disks, err := db.ListDisks(ctx)
	require.NoError(t, err)
	require.Len(t, disks, 4)
	for _, d := range disks {
		assert.Equal(t, StatusIdle, d.Status)
		assert.Equal(t, "", d.Message)
		assert.Zero(t, d.SegmentsTotal)
	}
	assert.Equal(t, "never", disks[len(disks)-1].DiskName)

	stats, err := db.CalculateStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.DisksByStatus[StatusIdle])
}

func TestLegacySchemaMigrates(t *testing.T) {
	dbPath := createLegacyDB(t)
	ctx := context.Background()

	db, err := New(ctx, dbPath, nil)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, SchemaVersion, db.Schema().Version)
	assert.False(t, db.Schema().Degraded())

	state, err := db.GetDisk(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, state.Status)
	require.NotNil(t, state.LastScanDate)
	assert.Equal(t, "2020-01-01T00:00:00.000000", *state.LastScanDate)
}

func TestMigrationToleratesExistingColumns(t *testing.T) {
	dbPath := createLegacyDB(t)

	// A layout with v1 columns but no recorded user_version
	raw, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	for _, col := range progressColumns {
		_, err := raw.Exec(col.ddl)
		require.NoError(t, err)
	}
	require.NoError(t, raw.Close())

	db, err := New(context.Background(), dbPath, nil)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, Schema{Version: SchemaVersion, Progress: true, Skips: true}, db.Schema())
}

func TestProgressWithoutSkipColumn(t *testing.T) {
	dbPath := createLegacyDB(t)

	raw, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	for _, col := range progressColumns {
		_, err := raw.Exec(col.ddl)
		require.NoError(t, err)
	}
	_, err = raw.Exec("PRAGMA user_version = 1")
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	ctx := context.Background()
	db, err := New(ctx, dbPath, &Options{SkipMigrations: true})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, Schema{Version: 1, Progress: true, Skips: false}, db.Schema())

	require.NoError(t, db.BeginScan(ctx, "v1", 1))
	require.NoError(t, db.FlushBatch(ctx, "v1", testRecords("v1", 2), Progress{Files: 2, Bytes: 1, Skipped: 9}, "msg"))

	state, err := db.GetDisk(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), state.ProcessedFiles)
	assert.Zero(t, state.SkippedEntries)
}

func TestFlushBatchIsAtomic(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.BeginScan(ctx, "atomic", 1))

	ctxCancelled, cancel := context.WithCancel(ctx)
	cancel()

	err := db.FlushBatch(ctxCancelled, "atomic", testRecords("atomic", 50), Progress{Files: 50}, "msg")
	require.Error(t, err)

	count, err := db.CountFiles(ctx, "atomic")
	require.NoError(t, err)
	assert.Zero(t, count)

	state, err := db.GetDisk(ctx, "atomic")
	require.NoError(t, err)
	assert.Zero(t, state.ProcessedFiles)
}

func TestWriteRetriesWhileBusy(t *testing.T) {
	db, dbPath := setupTestDB(t, &Options{
		BusyTimeout: 20 * time.Millisecond,
		Retry: RetryConfig{
			MaxRetries:     20,
			InitialBackoff: 10 * time.Millisecond,
			MaxBackoff:     40 * time.Millisecond,
		},
	})
	ctx := context.Background()
	require.NoError(t, db.BeginScan(ctx, "busy", 1))

	locker, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=1000")
	require.NoError(t, err)
	defer locker.Close()

	conn, err := locker.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.ExecContext(ctx, "BEGIN IMMEDIATE")
	require.NoError(t, err)

	released := make(chan struct{})
	go func() {
		time.Sleep(150 * time.Millisecond)
		_, _ = conn.ExecContext(ctx, "COMMIT")
		close(released)
	}()

	err = db.FlushBatch(ctx, "busy", testRecords("busy", 3), Progress{Files: 3}, "msg")
	<-released
	require.NoError(t, err)

	count, err := db.CountFiles(ctx, "busy")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestWriteReturnsStoreBusy(t *testing.T) {
	db, dbPath := setupTestDB(t, &Options{
		BusyTimeout: 10 * time.Millisecond,
		Retry: RetryConfig{
			MaxRetries:     2,
			InitialBackoff: 5 * time.Millisecond,
			MaxBackoff:     10 * time.Millisecond,
		},
	})
	ctx := context.Background()

	locker, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer locker.Close()

	conn, err := locker.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.ExecContext(ctx, "BEGIN IMMEDIATE")
	require.NoError(t, err)
	defer func() { _, _ = conn.ExecContext(ctx, "ROLLBACK") }()

	err = db.FailScan(ctx, "busy", "Error: boom")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreBusy)
	assert.True(t, IsBusy(err))
}

func TestReadsDuringOpenWrite(t *testing.T) {
	db, dbPath := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.BeginScan(ctx, "wal", 1))

	writer, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer writer.Close()

	tx, err := writer.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec("UPDATE disks SET message = 'uncommitted' WHERE disk_name = 'wal'")
	require.NoError(t, err)

	// Readers are not blocked and do not see uncommitted state
	state, err := db.GetDisk(ctx, "wal")
	require.NoError(t, err)
	assert.Equal(t, PreparingMessage, state.Message)
}

func TestCalculateStats(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.BeginScan(ctx, "one", 1))
	require.NoError(t, db.FlushBatch(ctx, "one", testRecords("one", 4), Progress{Files: 4}, ""))
	require.NoError(t, db.FinishScan(ctx, "one", "Scan complete"))
	require.NoError(t, db.FailScan(ctx, "two", "Error: boom"))

	require.NoError(t, db.RefreshStats())
	stats := db.GetStats()

	assert.Equal(t, 2, stats.TotalDisks)
	assert.Equal(t, int64(4), stats.TotalFiles)
	assert.Equal(t, int64(0+1+2+3), stats.TotalBytes)
	assert.Equal(t, 1, stats.DisksByStatus[StatusDone])
	assert.Equal(t, 1, stats.DisksByStatus[StatusError])
	assert.NotEmpty(t, stats.LastScan)

	ms := MetricsProvider{DB: db}.GetStats()
	assert.Equal(t, 1, ms.DisksByStatus["done"])
	assert.Equal(t, int64(4), ms.TotalFiles)
}
