package scanner

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"disk-indexer/internal/database"
	"disk-indexer/internal/metrics"
)

// DefaultBatchSize is the number of records buffered before a flush.
const DefaultBatchSize = 500

// FlushStore persists one batch of records together with scan progress.
type FlushStore interface {
	FlushBatch(ctx context.Context, disk string, records []database.FileRecord, progress database.Progress, msg string) error
}

// BatchWriter buffers records for one scan and flushes them with the
// cumulative progress. Progress is owned by the writer, not shared.
type BatchWriter struct {
	store    FlushStore
	disk     string
	size     int
	prefix   string
	buffer   []database.FileRecord
	progress database.Progress
	flushed  database.Progress
	flushes  int
}

// NewBatchWriter returns a writer flushing every size records. A size below
// one means DefaultBatchSize.
func NewBatchWriter(store FlushStore, disk string, size int) *BatchWriter {
	if size < 1 {
		size = DefaultBatchSize
	}
	return &BatchWriter{
		store:  store,
		disk:   disk,
		size:   size,
		prefix: "Indexing...",
		buffer: make([]database.FileRecord, 0, size),
	}
}

// SetPrefix sets the leading text of flush progress messages.
func (b *BatchWriter) SetPrefix(prefix string) {
	b.prefix = prefix
}

// Add buffers rec and flushes when the buffer is full.
func (b *BatchWriter) Add(ctx context.Context, rec database.FileRecord) error {
	b.buffer = append(b.buffer, rec)
	b.progress.Files++
	b.progress.Bytes += rec.Size

	if len(b.buffer) >= b.size {
		return b.Flush(ctx)
	}
	return nil
}

// Skip counts an entry the walker could not index.
func (b *BatchWriter) Skip(s Skip) {
	b.progress.Skipped++
	metrics.ScanEntriesSkipped.WithLabelValues(s.Reason).Inc()
}

// Flush writes the buffered records and current progress in one
// transaction. The buffer is cleared only when the write succeeds, so a
// failed flush can be retried without losing records. Flushing with nothing
// new to report is a no-op.
func (b *BatchWriter) Flush(ctx context.Context) error {
	if len(b.buffer) == 0 && b.progress == b.flushed {
		return nil
	}

	if err := b.store.FlushBatch(ctx, b.disk, b.buffer, b.progress, b.message()); err != nil {
		return err
	}

	metrics.ScanFilesIndexed.Add(float64(len(b.buffer)))
	metrics.ScanBytesIndexed.Add(float64(b.progress.Bytes - b.flushed.Bytes))

	b.buffer = b.buffer[:0]
	b.flushed = b.progress
	b.flushes++
	return nil
}

func (b *BatchWriter) message() string {
	return fmt.Sprintf("%s %s files (%s)", b.prefix,
		humanize.Comma(b.progress.Files), humanize.IBytes(uint64(max(b.progress.Bytes, 0))))
}

// Buffered returns the number of records waiting for a flush.
func (b *BatchWriter) Buffered() int {
	return len(b.buffer)
}

// Flushes returns the number of successful flushes.
func (b *BatchWriter) Flushes() int {
	return b.flushes
}

// Progress returns the running totals, including buffered records.
func (b *BatchWriter) Progress() database.Progress {
	return b.progress
}
