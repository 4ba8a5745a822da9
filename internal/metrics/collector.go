package metrics

import (
	"time"

	"disk-indexer/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current index statistics
type Stats struct {
	DisksByStatus map[string]int
	TotalFiles    int64
	TotalBytes    int64
}

// Refresher recomputes the statistics a StatsProvider serves. It is invoked
// before every collection when set.
type Refresher interface {
	RefreshStats() error
	UpdateDBMetrics()
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	refresher     Refresher
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, refresher Refresher, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		refresher:     refresher,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.refresher != nil {
		if err := c.refresher.RefreshStats(); err != nil {
			logging.Warn("Failed to refresh index statistics: %v", err)
		}
		c.refresher.UpdateDBMetrics()
	}

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	for _, status := range []string{"idle", "indexing", "done", "error"} {
		IndexDisksTotal.WithLabelValues(status).Set(float64(stats.DisksByStatus[status]))
	}
	IndexFilesTotal.Set(float64(stats.TotalFiles))
	IndexBytesTotal.Set(float64(stats.TotalBytes))

	logging.Debug("Metrics collected: files=%d, bytes=%d, disks=%v",
		stats.TotalFiles, stats.TotalBytes, stats.DisksByStatus)
}
