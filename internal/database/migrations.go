package database

import (
	"context"
	"fmt"

	"disk-indexer/internal/logging"
)

// column is one additive, nullable column on the disks table.
type column struct {
	name string
	ddl  string
}

// migration brings the schema to version by adding columns. Columns that
// already exist are left alone, so databases created before user_version was
// tracked migrate cleanly.
type migration struct {
	version int
	name    string
	columns []column
}

// progressColumns are the optional scan-state fields on disks.
var progressColumns = []column{
	{"status", "ALTER TABLE disks ADD COLUMN status TEXT"},
	{"message", "ALTER TABLE disks ADD COLUMN message TEXT"},
	{"total_files", "ALTER TABLE disks ADD COLUMN total_files INTEGER"},
	{"total_bytes", "ALTER TABLE disks ADD COLUMN total_bytes INTEGER"},
	{"processed_files", "ALTER TABLE disks ADD COLUMN processed_files INTEGER"},
	{"processed_bytes", "ALTER TABLE disks ADD COLUMN processed_bytes INTEGER"},
	{"segments_total", "ALTER TABLE disks ADD COLUMN segments_total INTEGER"},
	{"segments_done", "ALTER TABLE disks ADD COLUMN segments_done INTEGER"},
}

var skipColumns = []column{
	{"skipped_entries", "ALTER TABLE disks ADD COLUMN skipped_entries INTEGER"},
}

var migrations = []migration{
	{version: 1, name: "scan progress columns", columns: progressColumns},
	{version: 2, name: "skipped entry counter", columns: skipColumns},
}

// SchemaVersion is the version a fully migrated database reports.
var SchemaVersion = migrations[len(migrations)-1].version

// runMigrations applies pending migrations in order. A migration that fails
// to add a column is logged and stops the sequence without failing startup;
// detectSchema then reports the missing capability.
func (d *Database) runMigrations(ctx context.Context) error {
	current, err := d.userVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		logging.Info("Migrating database to v%d: %s", m.version, m.name)

		applied := true
		for _, col := range m.columns {
			exists, err := d.columnExists(ctx, "disks", col.name)
			if err != nil {
				return fmt.Errorf("failed to check for %s column: %w", col.name, err)
			}
			if exists {
				continue
			}
			if _, err := d.db.ExecContext(ctx, col.ddl); err != nil {
				logging.Error("Migration v%d: failed to add %s column: %v", m.version, col.name, err)
				applied = false
				break
			}
		}

		if !applied {
			logging.Warn("Database left at schema v%d", current)
			return nil
		}

		// PRAGMA does not accept bound parameters
		if _, err := d.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return fmt.Errorf("failed to record schema version %d: %w", m.version, err)
		}
		current = m.version
		logging.Info("Migration complete: schema v%d", m.version)
	}

	return nil
}

func (d *Database) userVersion(ctx context.Context) (int, error) {
	var version int
	if err := d.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func (d *Database) columnExists(ctx context.Context, table, name string) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) > 0
		FROM pragma_table_info(?)
		WHERE name = ?
	`, table, name).Scan(&exists)
	return exists, err
}

func (d *Database) hasColumns(ctx context.Context, table string, cols []column) (bool, error) {
	for _, col := range cols {
		ok, err := d.columnExists(ctx, table, col.name)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// detectSchema inspects the live layout once so that every later read and
// write can branch on a fixed capability instead of probing columns.
func (d *Database) detectSchema(ctx context.Context) (Schema, error) {
	version, err := d.userVersion(ctx)
	if err != nil {
		return Schema{}, err
	}

	progress, err := d.hasColumns(ctx, "disks", progressColumns)
	if err != nil {
		return Schema{}, err
	}

	skips := false
	if progress {
		skips, err = d.hasColumns(ctx, "disks", skipColumns)
		if err != nil {
			return Schema{}, err
		}
	}

	return Schema{Version: version, Progress: progress, Skips: skips}, nil
}
