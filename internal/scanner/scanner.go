package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"disk-indexer/internal/database"
	"disk-indexer/internal/filesystem"
	"disk-indexer/internal/logging"
	"disk-indexer/internal/metrics"
)

// CompleteMessage is the state message of a finished scan.
const CompleteMessage = "Scan complete"

// Store is the persistence the scanner drives. *database.Database
// implements it.
type Store interface {
	FlushStore
	BeginScan(ctx context.Context, disk string, segmentsTotal int) error
	SetMessage(ctx context.Context, disk, msg string) error
	CompleteSegment(ctx context.Context, disk string, done int, msg string) error
	FinishScan(ctx context.Context, disk, msg string) error
	FailScan(ctx context.Context, disk, msg string) error
}

// Config tunes a Scanner.
type Config struct {
	// BatchSize is the flush threshold. Zero means DefaultBatchSize.
	BatchSize int

	// Retry applies to every filesystem call made while walking.
	Retry filesystem.RetryConfig
}

// Result summarizes one scan.
type Result struct {
	ScanID       string              `json:"scan_id,omitempty"`
	Disk         string              `json:"disk_name"`
	Root         string              `json:"folder"`
	Status       database.ScanStatus `json:"status"`
	Message      string              `json:"message"`
	Segments     int                 `json:"segments_total"`
	SegmentsDone int                 `json:"segments_done"`
	Progress     database.Progress   `json:"progress"`
	Flushes      int                 `json:"flushes"`
	Duration     time.Duration       `json:"duration"`
}

// Scanner indexes one root folder into the store.
type Scanner struct {
	store Store
	cfg   Config
}

// New creates a Scanner writing to store.
func New(store Store, cfg Config) *Scanner {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Retry == (filesystem.RetryConfig{}) {
		cfg.Retry = filesystem.DefaultRetryConfig()
	}
	return &Scanner{store: store, cfg: cfg}
}

// Run scans root as disk, synchronously. The disk's state moves to indexing,
// then to done or error. Failures after the scan starts are also recorded
// in the disk's state; the returned error is the same failure.
func (s *Scanner) Run(ctx context.Context, disk, root string) (Result, error) {
	start := time.Now()
	metrics.ScansInProgress.Inc()
	defer metrics.ScansInProgress.Dec()

	res := Result{Disk: disk, Root: filepath.Clean(root)}

	logging.Info("Starting scan of disk %q at %s", disk, res.Root)

	err := s.run(ctx, &res)
	res.Duration = time.Since(start)

	if err != nil {
		res.Status = database.StatusError
		res.Message = FailureMessage(err)
		s.recordFailure(ctx, disk, res.Message)

		outcome := "error"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = "cancelled"
		}
		metrics.ScanRunsTotal.WithLabelValues(outcome).Inc()
		logging.Error("Scan of disk %q failed after %v: %s", disk, res.Duration, res.Message)
		return res, err
	}

	res.Status = database.StatusDone
	res.Message = CompleteMessage
	metrics.ScanRunsTotal.WithLabelValues("done").Inc()
	metrics.ScanDuration.Observe(res.Duration.Seconds())
	logging.Info("Scan of disk %q complete: files=%d bytes=%d skipped=%d segments=%d/%d flushes=%d in %v",
		disk, res.Progress.Files, res.Progress.Bytes, res.Progress.Skipped,
		res.SegmentsDone, res.Segments, res.Flushes, res.Duration)
	return res, nil
}

func (s *Scanner) run(ctx context.Context, res *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Validate before touching the store so a bad root never purges records
	if err := validateRoot(res.Root, s.cfg.Retry); err != nil {
		return err
	}

	segments := Segments(res.Root)
	res.Segments = len(segments)

	if err := s.store.BeginScan(ctx, res.Disk, len(segments)); err != nil {
		return storeError("begin scan", err)
	}

	walker := Walker{Disk: res.Disk, Retry: s.cfg.Retry}
	batch := NewBatchWriter(s.store, res.Disk, s.cfg.BatchSize)
	defer func() {
		res.Progress = batch.Progress()
		res.Flushes = batch.Flushes()
	}()

	total := len(segments)
	for i, seg := range segments {
		n := i + 1

		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.store.SetMessage(ctx, res.Disk, startMessage(seg, n, total)); err != nil {
			return storeError("set message", err)
		}

		if seg.Root {
			batch.SetPrefix("Indexing root folder...")
		} else {
			batch.SetPrefix(fmt.Sprintf("Indexing %s...", seg.Label))
		}

		if err := s.walkSegment(ctx, walker, seg, batch); err != nil {
			return err
		}

		// segments_done only moves once the segment's records are durable
		if err := batch.Flush(ctx); err != nil {
			return storeError("flush batch", err)
		}

		msg := fmt.Sprintf("Completed %d/%d: %s", n, total, seg.DisplayName())
		if err := s.store.CompleteSegment(ctx, res.Disk, n, msg); err != nil {
			return storeError("complete segment", err)
		}
		res.SegmentsDone = n
		metrics.ScanSegmentsCompleted.Inc()
		logging.Debug("Disk %q: %s", res.Disk, msg)
	}

	if err := s.store.FinishScan(ctx, res.Disk, CompleteMessage); err != nil {
		return storeError("finish scan", err)
	}
	return nil
}

func (s *Scanner) walkSegment(ctx context.Context, walker Walker, seg Segment, batch *BatchWriter) error {
	for entry := range walker.Walk(ctx, seg) {
		if entry.Skip != nil {
			batch.Skip(*entry.Skip)
			logging.Debug("Skipped %s (%s): %v", entry.Skip.Path, entry.Skip.Reason, entry.Skip.Err)
			continue
		}
		if err := batch.Add(ctx, *entry.Record); err != nil {
			return storeError("flush batch", err)
		}
	}
	// The walk ends early when ctx is cancelled
	return ctx.Err()
}

// recordFailure writes the error state. A failure here has nowhere left to
// go, so it is only logged and counted.
func (s *Scanner) recordFailure(ctx context.Context, disk, msg string) {
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
	defer cancel()

	if err := s.store.FailScan(failCtx, disk, msg); err != nil {
		metrics.ScanStateWriteFailures.Inc()
		logging.Error("FATAL: could not record scan failure for disk %q: %v", disk, err)
	}
}

func startMessage(seg Segment, n, total int) string {
	if seg.Root {
		return fmt.Sprintf("Indexing root folder... (%d/%d)", n, total)
	}
	return fmt.Sprintf("Indexing %s... (%d/%d)", seg.Label, n, total)
}

func validateRoot(root string, retry filesystem.RetryConfig) error {
	info, err := filesystem.StatWithRetry(root, retry)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrRootNotFound, root)
	case err != nil:
		return fmt.Errorf("%w: %w", ErrRootInaccessible, err)
	case !info.IsDir():
		return fmt.Errorf("%w: %s", ErrRootNotDir, root)
	}
	return nil
}
