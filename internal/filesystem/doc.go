/*
Package filesystem provides resilient filesystem operations with automatic retry logic
for NFS stale file handle errors.

# Purpose

Disks handed to the scanner are frequently network mounts. This package wraps
os.Stat, os.Lstat and os.ReadDir with retry logic for ESTALE (stale file
handle) errors, which show up when an NFS export is remounted or the server
replaces a directory while a walk is in progress.

# Usage

	info, err := filesystem.LstatWithRetry("/mnt/disk/file.bin", filesystem.DefaultRetryConfig())
	if err != nil {
	    return err
	}

	entries, err := filesystem.ReadDirWithRetry("/mnt/disk", filesystem.DefaultRetryConfig())

# Retry Behavior

The retry logic implements exponential backoff with the following defaults:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

Only ESTALE triggers retries. All other errors fail immediately.

# Metrics

Every call is reported to the Observer installed with SetObserver. The
metrics package supplies the production implementation; with no observer
installed nothing is recorded.
*/
package filesystem
