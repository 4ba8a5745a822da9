package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"disk-indexer/internal/logging"
	"disk-indexer/internal/metrics"
)

// ErrStoreBusy is returned when a write could not acquire the database lock
// within the busy timeout and all retries. It is retryable.
var ErrStoreBusy = errors.New("database busy")

// RetryConfig configures retries of writes that fail with SQLITE_BUSY or
// SQLITE_LOCKED.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the retry policy used when Options.Retry is unset.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     5,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
	}
}

// IsBusy reports whether err is SQLite lock contention, either raw from the
// driver or already wrapped as ErrStoreBusy.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStoreBusy) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// withBusyRetry runs fn, retrying with exponential backoff while it fails
// with a busy error. Other errors are returned immediately.
func (d *Database) withBusyRetry(ctx context.Context, operation string, fn func() error) error {
	backoff := d.retry.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= d.retry.MaxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil || !IsBusy(lastErr) {
			return lastErr
		}

		if attempt == d.retry.MaxRetries {
			break
		}

		metrics.DBBusyRetries.WithLabelValues(operation).Inc()
		logging.Debug("Database busy during %s, retrying in %v (attempt %d/%d)",
			operation, backoff, attempt+1, d.retry.MaxRetries)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w: %w", operation, ErrStoreBusy, ctx.Err())
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > d.retry.MaxBackoff {
			backoff = d.retry.MaxBackoff
		}
	}

	logging.Warn("Database busy during %s after %d retries: %v", operation, d.retry.MaxRetries, lastErr)
	return fmt.Errorf("%s: %w: %w", operation, ErrStoreBusy, lastErr)
}
