// Package database provides SQLite storage for the disk index.
//
// It holds two tables:
//   - files: one row per indexed file, bulk-inserted during scans and purged
//     per disk when a new scan of that disk begins
//   - disks: one row per disk name carrying scan status and progress
//
// The database uses WAL mode so that readers are never blocked by the short
// per-batch write transactions a scan issues. Busy and locked errors are
// retried with backoff and surface as ErrStoreBusy when retries run out.
//
// Progress columns on disks are added by versioned migrations tracked in
// PRAGMA user_version. The detected Schema decides, once at open, whether
// state writes include progress fields or degrade to the disk name and last
// scan timestamp.
package database
