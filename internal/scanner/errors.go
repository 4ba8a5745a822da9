package scanner

import (
	"context"
	"errors"
	"fmt"

	"disk-indexer/internal/database"
)

var (
	// ErrMissingFields is returned when a scan request lacks a disk name or folder.
	ErrMissingFields = errors.New("disk_name and folder are required")

	// ErrScanInProgress is returned when the disk is already being scanned,
	// by this process or another one sharing the lock directory.
	ErrScanInProgress = errors.New("scan already in progress")

	// ErrManagerClosed is returned by Start after Shutdown.
	ErrManagerClosed = errors.New("scan manager is shut down")

	// ErrRootNotFound is returned when the root folder does not exist.
	ErrRootNotFound = errors.New("root folder does not exist")

	// ErrRootNotDir is returned when the root path is not a directory.
	ErrRootNotDir = errors.New("root path is not a directory")

	// ErrRootInaccessible is returned when the root folder cannot be stat'ed.
	ErrRootInaccessible = errors.New("root folder is not accessible")

	// ErrStore wraps store failures that abort a scan.
	ErrStore = errors.New("store write failed")
)

// storeError tags a failed store operation.
func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

// Classify returns the error class recorded in a failed scan's message.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Cancelled"
	case errors.Is(err, ErrRootNotFound):
		return "RootNotFound"
	case errors.Is(err, ErrRootNotDir):
		return "RootNotDir"
	case errors.Is(err, ErrRootInaccessible):
		return "RootInaccessible"
	case database.IsBusy(err):
		return "StoreBusy"
	case errors.Is(err, ErrStore):
		return "StoreError"
	default:
		return "Error"
	}
}

// FailureMessage formats err as "<Class>: <detail>".
func FailureMessage(err error) string {
	return fmt.Sprintf("%s: %v", Classify(err), err)
}
