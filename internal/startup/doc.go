// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is read with viper from defaults, an optional config file
// (CONFIG_FILE, YAML, TOML or JSON by extension) and the environment, in increasing
// precedence. File keys are the lower case forms of the variables below.
//
//   - DATABASE_DIR: Directory holding the index database (default: /database)
//   - LOCK_DIR: Directory for per-disk scan lock files (default: DATABASE_DIR/locks)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - STATS_INTERVAL: Index statistics refresh interval (default: 1m)
//   - SCAN_BATCH_SIZE: Records per flush transaction (default: 500)
//   - SCAN_CONCURRENCY: Concurrent scans, 0 for automatic (default: 0)
//   - DB_BUSY_TIMEOUT: SQLite busy timeout (default: 30s)
//   - SKIP_MIGRATIONS: Open legacy databases without upgrading them (default: false)
//   - MEMORY_LIMIT: Container memory limit, bytes or units like 512MiB (default: none)
//   - MEMORY_RATIO: Share of MEMORY_LIMIT used for GOMEMLIMIT (default: 0.85)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - LOG_FILE: Rotated log file, in addition to stderr (default: none)
//   - LOG_MAX_SIZE_MB, LOG_MAX_BACKUPS, LOG_MAX_AGE_DAYS, LOG_COMPRESS: rotation
//
// [Load] only reads configuration. [LoadConfig] also prints the banner,
// logs the configuration and prepares the directories, for the server.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
