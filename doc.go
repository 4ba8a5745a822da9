// Command disk-indexer serves the disk index over HTTP.
//
// A scan walks one root folder of a removable or network disk and replaces
// that disk's file records in a SQLite database. The root is split into
// segments (loose files in the root, then each top-level subfolder) so that
// progress can be reported while a scan runs. Scans run in the background;
// their state is polled through the disk endpoints.
//
// # Startup
//
//  1. Configuration: defaults, optional config file, environment
//  2. Database: opens SQLite in WAL mode and applies migrations
//  3. Metrics: filesystem observer, pre-populated labels, stats collector
//  4. Scan manager: bounded concurrency with per-disk lock files
//  5. HTTP servers: API and, when enabled, Prometheus metrics
//
// # Endpoints
//
//   - POST /scan                 start a scan of {disk_name, folder}
//   - POST /scan/{disk}/cancel   cancel a running scan
//   - GET  /scans                scans accepted by this process
//   - GET  /disks, /disks/{disk} scan state per disk
//   - GET  /search               paged file search
//   - GET  /stats                index totals
//   - GET  /health, /livez, /readyz, /version
//
// # Environment Variables
//
//   - CONFIG_FILE: optional YAML/TOML/JSON config file
//   - DATABASE_DIR: directory for disk-index.db (default: /database)
//   - LOCK_DIR: per-disk scan lock files (default: DATABASE_DIR/locks)
//   - PORT: API port (default: 8080)
//   - METRICS_PORT, METRICS_ENABLED: Prometheus server
//   - SCAN_BATCH_SIZE: records per flush (default: 500)
//   - SCAN_CONCURRENCY: concurrent scans (default: 2 per CPU, at most 8)
//   - DB_BUSY_TIMEOUT, SKIP_MIGRATIONS: database tuning
//   - MEMORY_LIMIT, MEMORY_RATIO: container limit used to size GOMEMLIMIT
//   - LOG_LEVEL, LOG_FILE, LOG_HEALTH_CHECKS: logging
//
// # Graceful Shutdown
//
// On SIGINT or SIGTERM the API server stops accepting requests, running scans
// are cancelled and record "Cancelled" in their disk state, then the metrics
// collector and metrics server stop and the database is closed.
//
// The diskscan command in cmd/diskscan drives the same scanner from a shell.
package main
