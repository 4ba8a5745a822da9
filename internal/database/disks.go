package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"disk-indexer/internal/logging"
	"disk-indexer/internal/metrics"
)

// PreparingMessage is the state message written when a scan starts.
const PreparingMessage = "Preparing..."

// BeginScan purges the disk's previous records and resets its state row to
// indexing with zeroed counters, in one transaction. On a degraded schema
// only the disk name and last scan timestamp are written.
func (d *Database) BeginScan(ctx context.Context, disk string, segmentsTotal int) error {
	now := FormatTimestamp(time.Now())

	return d.write(ctx, "begin_scan", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM files WHERE disk_name = ?", disk)
		switch {
		case IsBusy(err):
			return err
		case err != nil:
			logging.Warn("Failed to purge previous records for disk %s: %v", disk, err)
		default:
			if rows, _ := res.RowsAffected(); rows > 0 {
				metrics.DBRowsAffected.WithLabelValues("delete_files").Observe(float64(rows))
				logging.Debug("Purged %d previous records for disk %s", rows, disk)
			}
		}

		if !d.schema.Progress {
			return upsertMinimal(ctx, tx, disk, now)
		}

		skipped := ""
		if d.schema.Skips {
			skipped = ", skipped_entries = 0"
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO disks (disk_name, last_scan_date, status, message, segments_total, segments_done,
			                   total_files, total_bytes, processed_files, processed_bytes)
			VALUES (?, ?, ?, ?, ?, 0, 0, 0, 0, 0)
			ON CONFLICT(disk_name) DO UPDATE SET
				last_scan_date = excluded.last_scan_date,
				status = excluded.status,
				message = excluded.message,
				segments_total = excluded.segments_total,
				segments_done = 0,
				total_files = 0, total_bytes = 0,
				processed_files = 0, processed_bytes = 0`+skipped,
			disk, now, StatusIndexing, PreparingMessage, segmentsTotal)
		return err
	})
}

// SetMessage replaces the progress message for a disk.
func (d *Database) SetMessage(ctx context.Context, disk, msg string) error {
	if !d.schema.Progress {
		return nil
	}

	return d.write(ctx, "set_message", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "UPDATE disks SET message = ? WHERE disk_name = ?", msg, disk)
		return err
	})
}

// FlushBatch inserts records and publishes the cumulative progress in one
// transaction. Readers see either the whole batch with its counters or
// neither. On a degraded schema only the inserts happen.
func (d *Database) FlushBatch(ctx context.Context, disk string, records []FileRecord, progress Progress, msg string) error {
	start := time.Now()
	defer func() { metrics.ScanBatchFlushDuration.Observe(time.Since(start).Seconds()) }()

	return d.write(ctx, "flush_batch", func(tx *sql.Tx) error {
		if len(records) > 0 {
			if err := insertFiles(ctx, tx, records); err != nil {
				return err
			}
		}

		if !d.schema.Progress {
			return nil
		}

		query := "UPDATE disks SET processed_files = ?, processed_bytes = ?, message = ? WHERE disk_name = ?"
		args := []any{progress.Files, progress.Bytes, msg, disk}
		if d.schema.Skips {
			query = "UPDATE disks SET processed_files = ?, processed_bytes = ?, skipped_entries = ?, message = ? WHERE disk_name = ?"
			args = []any{progress.Files, progress.Bytes, progress.Skipped, msg, disk}
		}

		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
}

// CompleteSegment records that done segments have been fully flushed.
func (d *Database) CompleteSegment(ctx context.Context, disk string, done int, msg string) error {
	if !d.schema.Progress {
		return nil
	}

	return d.write(ctx, "complete_segment", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"UPDATE disks SET segments_done = ?, message = ? WHERE disk_name = ?",
			done, msg, disk)
		return err
	})
}

// FinishScan marks the scan done and refreshes the last scan timestamp.
func (d *Database) FinishScan(ctx context.Context, disk, msg string) error {
	now := FormatTimestamp(time.Now())

	return d.write(ctx, "finish_scan", func(tx *sql.Tx) error {
		if !d.schema.Progress {
			_, err := tx.ExecContext(ctx, "UPDATE disks SET last_scan_date = ? WHERE disk_name = ?", now, disk)
			return err
		}
		_, err := tx.ExecContext(ctx,
			"UPDATE disks SET last_scan_date = ?, status = ?, message = ? WHERE disk_name = ?",
			now, StatusDone, msg, disk)
		return err
	})
}

// FailScan records a terminal error for the disk. The row is created if the
// scan failed before BeginScan ran.
func (d *Database) FailScan(ctx context.Context, disk, msg string) error {
	now := FormatTimestamp(time.Now())

	return d.write(ctx, "fail_scan", func(tx *sql.Tx) error {
		if !d.schema.Progress {
			return upsertMinimal(ctx, tx, disk, now)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO disks (disk_name, last_scan_date, status, message)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(disk_name) DO UPDATE SET
				last_scan_date = excluded.last_scan_date,
				status = excluded.status,
				message = excluded.message`,
			disk, now, StatusError, msg)
		return err
	})
}

func upsertMinimal(ctx context.Context, tx *sql.Tx, disk, now string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO disks (disk_name, last_scan_date)
		VALUES (?, ?)
		ON CONFLICT(disk_name) DO UPDATE SET last_scan_date = excluded.last_scan_date`,
		disk, now)
	return err
}

// diskColumns returns the SELECT list for disks. Optional columns are
// coalesced to their defaults so NULLs never reach callers.
func (d *Database) diskColumns() string {
	if !d.schema.Progress {
		return "id, disk_name, last_scan_date"
	}
	cols := `id, disk_name, last_scan_date,
		COALESCE(status, 'idle'), COALESCE(message, ''),
		COALESCE(total_files, 0), COALESCE(total_bytes, 0),
		COALESCE(processed_files, 0), COALESCE(processed_bytes, 0),
		COALESCE(segments_total, 0), COALESCE(segments_done, 0)`
	if d.schema.Skips {
		cols += ", COALESCE(skipped_entries, 0)"
	}
	return cols
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (d *Database) scanDisk(row rowScanner) (DiskState, error) {
	var (
		state    DiskState
		name     sql.NullString
		lastScan sql.NullString
	)

	dest := []any{&state.ID, &name, &lastScan}
	if d.schema.Progress {
		dest = append(dest, &state.Status, &state.Message,
			&state.TotalFiles, &state.TotalBytes,
			&state.ProcessedFiles, &state.ProcessedBytes,
			&state.SegmentsTotal, &state.SegmentsDone)
		if d.schema.Skips {
			dest = append(dest, &state.SkippedEntries)
		}
	}

	if err := row.Scan(dest...); err != nil {
		return DiskState{}, err
	}

	state.DiskName = name.String
	if lastScan.Valid {
		state.LastScanDate = &lastScan.String
	}
	if state.Status == "" {
		state.Status = StatusIdle
	}
	return state, nil
}

// ListDisks returns every disk row, never-scanned disks last and otherwise
// most recent scan first.
func (d *Database) ListDisks(ctx context.Context) ([]DiskState, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_disks", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM disks
		ORDER BY (last_scan_date IS NULL) ASC, last_scan_date DESC`, d.diskColumns())

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	disks := []DiskState{}
	for rows.Next() {
		var state DiskState
		state, err = d.scanDisk(rows)
		if err != nil {
			return nil, err
		}
		disks = append(disks, state)
	}
	err = rows.Err()
	return disks, err
}

// GetDisk returns the state row for one disk, or sql.ErrNoRows.
func (d *Database) GetDisk(ctx context.Context, disk string) (*DiskState, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_disk", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM disks WHERE disk_name = ?", d.diskColumns())

	var state DiskState
	state, err = d.scanDisk(d.db.QueryRowContext(ctx, query, disk))
	if err != nil {
		return nil, err
	}
	return &state, nil
}
