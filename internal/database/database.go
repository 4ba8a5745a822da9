package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"disk-indexer/internal/logging"
	"disk-indexer/internal/metrics"
)

// Default timeout for read operations
const defaultTimeout = 5 * time.Second

// DefaultBusyTimeout is how long SQLite waits on a locked database before
// reporting SQLITE_BUSY.
const DefaultBusyTimeout = 30 * time.Second

// Options tune how the store is opened.
type Options struct {
	// BusyTimeout is passed to SQLite as _busy_timeout. Zero means DefaultBusyTimeout.
	BusyTimeout time.Duration

	// SkipMigrations opens the schema as found. Used by tooling that must not
	// alter a database and by tests that exercise legacy layouts.
	SkipMigrations bool

	// Retry controls how writes that hit SQLITE_BUSY are retried.
	// Zero value means DefaultRetryConfig.
	Retry RetryConfig
}

// Database manages all index storage: file records and per-disk scan state.
type Database struct {
	db     *sql.DB
	dbPath string
	schema Schema
	retry  RetryConfig

	// writeMu serializes writers inside this process. Readers never take it,
	// WAL lets them proceed while a flush is in flight.
	writeMu sync.Mutex

	stats   IndexStats
	statsMu sync.RWMutex
}

// New creates a new Database instance.
// dbPath is the full path to the database FILE; its parent directory must
// already exist and be writable.
func New(ctx context.Context, dbPath string, opts *Options) (*Database, error) {
	if opts == nil {
		opts = &Options{}
	}
	busyTimeout := opts.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = DefaultBusyTimeout
	}
	retry := opts.Retry
	if retry.MaxRetries == 0 && retry.InitialBackoff == 0 {
		retry = DefaultRetryConfig()
	}

	logging.Info("Database path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=%d",
		dbPath, busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
		retry:  retry,
	}

	if err := d.initialize(ctx, opts.SkipMigrations); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	metrics.DBSchemaVersion.Set(float64(d.schema.Version))
	if d.schema.Degraded() {
		metrics.DBSchemaDegraded.Set(1)
		logging.Warn("Database schema is missing progress columns; scan state will be limited to last_scan_date")
	} else {
		metrics.DBSchemaDegraded.Set(0)
	}

	logging.Info("Database initialized successfully at %s (schema v%d)", dbPath, d.schema.Version)
	return d, nil
}

func (d *Database) initialize(ctx context.Context, skipMigrations bool) error {
	// Base layout. Optional state columns are added by migrations so that a
	// database written by an older release keeps working.
	schema := `
	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		disk_name TEXT,
		folder TEXT,
		file_name TEXT,
		size INTEGER,
		created_at TEXT,
		modified_at TEXT
	);

	CREATE TABLE IF NOT EXISTS disks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		disk_name TEXT UNIQUE,
		last_scan_date TEXT
	);
	`

	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	if !skipMigrations {
		if err := d.runMigrations(ctx); err != nil {
			return err
		}
	}

	schemaInfo, err := d.detectSchema(ctx)
	if err != nil {
		return fmt.Errorf("failed to detect schema: %w", err)
	}
	d.schema = schemaInfo

	indexes := `
	CREATE INDEX IF NOT EXISTS idx_files_disk ON files(disk_name);
	CREATE INDEX IF NOT EXISTS idx_files_folder ON files(folder);
	CREATE INDEX IF NOT EXISTS idx_files_name ON files(file_name);
	CREATE INDEX IF NOT EXISTS idx_files_size ON files(size);
	CREATE INDEX IF NOT EXISTS idx_files_ctime ON files(created_at);
	CREATE INDEX IF NOT EXISTS idx_files_mtime ON files(modified_at);
	`
	_, err = d.db.ExecContext(ctx, indexes)
	return err
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Ping checks that the database file is still reachable.
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return d.db.PingContext(ctx)
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// Schema returns the capabilities detected when the database was opened.
func (d *Database) Schema() Schema {
	return d.schema
}

// batch is one write transaction and the time it started, for metrics.
type batch struct {
	tx    *sql.Tx
	start time.Time
}

// beginBatch starts a write transaction. The caller must hold writeMu and
// must call endBatch.
func (d *Database) beginBatch(ctx context.Context) (*batch, error) {
	start := time.Now()
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &batch{tx: tx, start: start}, nil
}

// endBatch commits or rolls back a transaction.
func (d *Database) endBatch(b *batch, err error) error {
	duration := time.Since(b.start).Seconds()

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		if rbErr := b.tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
	return b.tx.Commit()
}

// write runs fn inside a short transaction, retrying the whole transaction
// when SQLite reports the database busy or locked.
func (d *Database) write(ctx context.Context, operation string, fn func(tx *sql.Tx) error) error {
	start := time.Now()
	err := d.withBusyRetry(ctx, operation, func() error {
		d.writeMu.Lock()
		defer d.writeMu.Unlock()

		b, err := d.beginBatch(ctx)
		if err != nil {
			return err
		}
		return d.endBatch(b, fn(b.tx))
	})
	recordQuery(operation, start, err)
	return err
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}

	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", path, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 == 0 {
			logging.Warn("%s is read-only! Mode: %v - this will cause write failures", filepath.Base(path), info.Mode())
		}
	}

	return nil
}
