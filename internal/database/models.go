package database

import "time"

// TimestampLayout is the ISO-8601 layout used for every stored timestamp.
// Values are local time with microsecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// FormatTimestamp renders t in local time using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// ScanStatus is the lifecycle state of a disk's most recent scan.
type ScanStatus string

const (
	StatusIdle     ScanStatus = "idle"
	StatusIndexing ScanStatus = "indexing"
	StatusDone     ScanStatus = "done"
	StatusError    ScanStatus = "error"
)

// Statuses lists every ScanStatus value.
var Statuses = []ScanStatus{StatusIdle, StatusIndexing, StatusDone, StatusError}

// FileRecord is one indexed file.
type FileRecord struct {
	ID         int64  `json:"id"`
	DiskName   string `json:"disk_name"`
	Folder     string `json:"folder"`
	FileName   string `json:"file_name"`
	Size       int64  `json:"size"`
	CreatedAt  string `json:"created_at"`
	ModifiedAt string `json:"modified_at"`
}

// DiskState is the per-disk scan status row. Optional columns that are
// absent or NULL are returned as their defaults.
type DiskState struct {
	ID             int64      `json:"id"`
	DiskName       string     `json:"disk_name"`
	LastScanDate   *string    `json:"last_scan_date"`
	Status         ScanStatus `json:"status"`
	Message        string     `json:"message"`
	TotalFiles     int64      `json:"total_files"`
	TotalBytes     int64      `json:"total_bytes"`
	ProcessedFiles int64      `json:"processed_files"`
	ProcessedBytes int64      `json:"processed_bytes"`
	SegmentsTotal  int        `json:"segments_total"`
	SegmentsDone   int        `json:"segments_done"`
	SkippedEntries int64      `json:"skipped_entries"`
}

// Progress is the running total for one scan, merged into the disk row at
// every flush.
type Progress struct {
	Files   int64 `json:"files"`
	Bytes   int64 `json:"bytes"`
	Skipped int64 `json:"skipped"`
}

// Add returns p with the counts from o added.
func (p Progress) Add(o Progress) Progress {
	return Progress{
		Files:   p.Files + o.Files,
		Bytes:   p.Bytes + o.Bytes,
		Skipped: p.Skipped + o.Skipped,
	}
}

// Schema describes which optional columns the opened database carries.
type Schema struct {
	Version  int  `json:"version"`
	Progress bool `json:"progress"`
	Skips    bool `json:"skips"`
}

// Degraded reports whether scan state writes are limited to the disk name
// and last scan timestamp.
func (s Schema) Degraded() bool {
	return !s.Progress
}

// SearchOptions filters and pages a file record query. Empty fields are
// ignored.
type SearchOptions struct {
	Q            string
	Disk         string
	Folder       string
	Name         string
	Ext          string
	SizeMin      *int64
	SizeMax      *int64
	CreatedFrom  string
	CreatedTo    string
	ModifiedFrom string
	ModifiedTo   string
	OrderBy      string
	Limit        int
	Offset       int
}

// SearchResult is one page of matching records plus the unpaged total.
type SearchResult struct {
	Total int64        `json:"total"`
	Items []FileRecord `json:"items"`
}

// IndexStats summarizes the whole index.
type IndexStats struct {
	TotalDisks    int                `json:"totalDisks"`
	DisksByStatus map[ScanStatus]int `json:"disksByStatus"`
	TotalFiles    int64              `json:"totalFiles"`
	TotalBytes    int64              `json:"totalBytes"`
	LastScan      string             `json:"lastScan,omitempty"`
	Schema        Schema             `json:"schema"`
}
