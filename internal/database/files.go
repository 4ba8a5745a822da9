package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"disk-indexer/internal/metrics"
)

// insertFiles bulk-inserts records through one prepared statement.
func insertFiles(ctx context.Context, tx *sql.Tx, records []FileRecord) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO files (disk_name, folder, file_name, size, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		if _, err := stmt.ExecContext(ctx, r.DiskName, r.Folder, r.FileName, r.Size, r.CreatedAt, r.ModifiedAt); err != nil {
			return fmt.Errorf("insert %s: %w", r.FileName, err)
		}
	}

	metrics.DBRowsAffected.WithLabelValues("insert_files").Observe(float64(len(records)))
	return nil
}

// CountFiles returns how many records are stored for a disk.
func (d *Database) CountFiles(ctx context.Context, disk string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count_files", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int64
	err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files WHERE disk_name = ?", disk).Scan(&count)
	return count, err
}
