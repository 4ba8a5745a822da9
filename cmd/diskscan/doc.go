// Command diskscan indexes and inspects disks from the command line, against
// the same database and lock directory as the server.
//
// Usage:
//
//	diskscan <command> [flags]
//
// Commands:
//
//	scan <disk> <folder>   Index folder as disk and wait for the result.
//	                       On a terminal, progress is redrawn in place.
//	disks                  List every known disk with its scan state.
//	search [query]         Search indexed files.
//	migrate                Bring the database schema up to date.
//	version                Print build information.
//
// Scans honor the per-disk lock files, so a disk that the server is scanning
// is rejected here as well.
//
// Configuration is read the same way as the server: defaults, an optional
// config file (--config or CONFIG_FILE), then environment variables such as
// DATABASE_DIR and LOCK_DIR.
package main
