// Package scanner indexes a disk's folder tree into the database.
//
// A scan is planned as a fixed list of segments: the files directly in the
// root, then one segment per immediate subdirectory covering its whole
// subtree. Segments are walked in order; records stream through a
// BatchWriter that flushes every 500 records, each flush being one
// transaction that inserts the records and publishes cumulative progress.
// A segment is reported complete only after its last flush.
//
// Entries that cannot be read are yielded as skips and counted, never
// aborting the scan. Only a missing or unreadable root, a store failure or
// cancellation ends a scan in the error state.
//
// Manager runs scans in the background with one scan per disk name, using a
// file lock per disk so that separate processes sharing a database respect
// the same rule.
package scanner
