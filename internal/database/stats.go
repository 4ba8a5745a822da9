package database

import (
	"context"
	"database/sql"
	"time"

	"disk-indexer/internal/metrics"
)

// CalculateStats computes index-wide totals.
func (d *Database) CalculateStats(ctx context.Context) (IndexStats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("calculate_stats", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stats := IndexStats{
		DisksByStatus: make(map[ScanStatus]int, len(Statuses)),
		Schema:        d.schema,
	}

	err = d.db.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(SUM(size), 0) FROM files").
		Scan(&stats.TotalFiles, &stats.TotalBytes)
	if err != nil {
		return stats, err
	}

	var lastScan sql.NullString
	err = d.db.QueryRowContext(ctx, "SELECT COUNT(*), MAX(last_scan_date) FROM disks").
		Scan(&stats.TotalDisks, &lastScan)
	if err != nil {
		return stats, err
	}
	stats.LastScan = lastScan.String

	if !d.schema.Progress {
		stats.DisksByStatus[StatusIdle] = stats.TotalDisks
		return stats, nil
	}

	rows, err := d.db.QueryContext(ctx, "SELECT COALESCE(status, 'idle'), COUNT(*) FROM disks GROUP BY 1")
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status ScanStatus
			count  int
		)
		if err = rows.Scan(&status, &count); err != nil {
			return stats, err
		}
		stats.DisksByStatus[status] = count
	}
	err = rows.Err()
	return stats, err
}

// RefreshStats recalculates and caches the index statistics.
func (d *Database) RefreshStats() error {
	stats, err := d.CalculateStats(context.Background())
	if err != nil {
		return err
	}
	d.UpdateStats(stats)
	return nil
}

// UpdateStats updates the cached statistics.
func (d *Database) UpdateStats(stats IndexStats) {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	d.stats = stats
}

// GetStats returns the cached index statistics.
func (d *Database) GetStats() IndexStats {
	d.statsMu.RLock()
	defer d.statsMu.RUnlock()
	return d.stats
}

// MetricsProvider adapts the cached statistics to the metrics collector.
type MetricsProvider struct {
	DB *Database
}

// GetStats implements metrics.StatsProvider.
func (p MetricsProvider) GetStats() metrics.Stats {
	s := p.DB.GetStats()
	byStatus := make(map[string]int, len(s.DisksByStatus))
	for status, n := range s.DisksByStatus {
		byStatus[string(status)] = n
	}
	return metrics.Stats{
		DisksByStatus: byStatus,
		TotalFiles:    s.TotalFiles,
		TotalBytes:    s.TotalBytes,
	}
}
