package startup

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/spf13/viper"

	"disk-indexer/internal/database"
	"disk-indexer/internal/logging"
	"disk-indexer/internal/scanner"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// DatabaseFile is the index file name inside DatabaseDir.
const DatabaseFile = "disk-index.db"

// Configuration keys. Each is read from the environment under its upper
// case name, or from the optional config file.
const (
	KeyConfigFile      = "config_file"
	KeyDatabaseDir     = "database_dir"
	KeyLockDir         = "lock_dir"
	KeyPort            = "port"
	KeyMetricsPort     = "metrics_port"
	KeyMetricsEnabled  = "metrics_enabled"
	KeyStatsInterval   = "stats_interval"
	KeyScanBatchSize   = "scan_batch_size"
	KeyScanConcurrency = "scan_concurrency"
	KeyDBBusyTimeout   = "db_busy_timeout"
	KeySkipMigrations  = "skip_migrations"
	KeyMemoryLimit     = "memory_limit"
	KeyMemoryRatio     = "memory_ratio"
	KeyLogLevel        = "log_level"
	KeyLogHealthChecks = "log_health_checks"
	KeyLogFile         = "log_file"
	KeyLogMaxSizeMB    = "log_max_size_mb"
	KeyLogMaxBackups   = "log_max_backups"
	KeyLogMaxAgeDays   = "log_max_age_days"
	KeyLogCompress     = "log_compress"
)

// Config holds all application configuration
type Config struct {
	ConfigFile      string
	DatabaseDir     string
	LockDir         string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StatsInterval   time.Duration
	ScanBatchSize   int
	ScanConcurrency int
	DBBusyTimeout   time.Duration
	SkipMigrations  bool
	MemoryLimit     int64
	MemoryRatio     float64
	LogHealthChecks bool
	Log             logging.FileConfig

	// Derived paths
	DatabasePath string
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabaseDir, "/database")
	v.SetDefault(KeyLockDir, "")
	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeyMetricsPort, "9090")
	v.SetDefault(KeyMetricsEnabled, true)
	v.SetDefault(KeyStatsInterval, "1m")
	v.SetDefault(KeyScanBatchSize, scanner.DefaultBatchSize)
	v.SetDefault(KeyScanConcurrency, 0)
	v.SetDefault(KeyDBBusyTimeout, database.DefaultBusyTimeout.String())
	v.SetDefault(KeySkipMigrations, false)
	v.SetDefault(KeyMemoryLimit, "")
	v.SetDefault(KeyMemoryRatio, 0)
	v.SetDefault(KeyLogHealthChecks, true)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyLogMaxSizeMB, logging.DefaultMaxSizeMB)
	v.SetDefault(KeyLogMaxBackups, logging.DefaultMaxBackups)
	v.SetDefault(KeyLogMaxAgeDays, logging.DefaultMaxAgeDays)
	v.SetDefault(KeyLogCompress, false)
}

// Load reads configuration from defaults, the optional config file and the
// environment, in increasing precedence. configFile overrides CONFIG_FILE.
// It has no side effects beyond reading.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)
	v.AutomaticEnv()

	if configFile == "" {
		configFile = v.GetString(KeyConfigFile)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	databaseDir, err := filepath.Abs(v.GetString(KeyDatabaseDir))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}

	lockDir := v.GetString(KeyLockDir)
	if lockDir == "" {
		lockDir = filepath.Join(databaseDir, "locks")
	}
	if lockDir, err = filepath.Abs(lockDir); err != nil {
		return nil, fmt.Errorf("failed to resolve lock directory path: %w", err)
	}

	cfg := &Config{
		ConfigFile:      configFile,
		DatabaseDir:     databaseDir,
		LockDir:         lockDir,
		Port:            v.GetString(KeyPort),
		MetricsPort:     v.GetString(KeyMetricsPort),
		MetricsEnabled:  v.GetBool(KeyMetricsEnabled),
		StatsInterval:   durationOr(v, KeyStatsInterval, time.Minute),
		ScanBatchSize:   v.GetInt(KeyScanBatchSize),
		ScanConcurrency: v.GetInt(KeyScanConcurrency),
		DBBusyTimeout:   durationOr(v, KeyDBBusyTimeout, database.DefaultBusyTimeout),
		SkipMigrations:  v.GetBool(KeySkipMigrations),
		MemoryLimit:     bytesOr(v, KeyMemoryLimit),
		MemoryRatio:     v.GetFloat64(KeyMemoryRatio),
		LogHealthChecks: v.GetBool(KeyLogHealthChecks),
		Log: logging.FileConfig{
			Path:       v.GetString(KeyLogFile),
			MaxSizeMB:  v.GetInt(KeyLogMaxSizeMB),
			MaxBackups: v.GetInt(KeyLogMaxBackups),
			MaxAgeDays: v.GetInt(KeyLogMaxAgeDays),
			Compress:   v.GetBool(KeyLogCompress),
		},
		DatabasePath: filepath.Join(databaseDir, DatabaseFile),
	}

	if cfg.ScanBatchSize < 1 {
		logging.Warn("Invalid %s %d, using default: %d", strings.ToUpper(KeyScanBatchSize), cfg.ScanBatchSize, scanner.DefaultBatchSize)
		cfg.ScanBatchSize = scanner.DefaultBatchSize
	}
	if cfg.ScanConcurrency < 0 {
		cfg.ScanConcurrency = 0
	}

	// An explicit level in the config file applies even without LOG_LEVEL
	if v.IsSet(KeyLogLevel) && os.Getenv("DEBUG") == "" {
		logging.SetLevel(logging.ParseLevel(v.GetString(KeyLogLevel)))
	}

	return cfg, nil
}

// bytesOr reads key as a byte count with optional units ("512MiB", "2G").
// Missing or malformed values yield 0.
func bytesOr(v *viper.Viper, key string) int64 {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0
	}
	n, err := humanize.ParseBytes(raw)
	if err != nil || n > math.MaxInt64 {
		logging.Warn("Invalid %s %q, ignoring", strings.ToUpper(key), raw)
		return 0
	}
	return int64(n)
}

// durationOr reads key as a duration, falling back to def when the value is
// missing, malformed or not positive.
func durationOr(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logging.Warn("Invalid %s %q, using default: %v", strings.ToUpper(key), raw, def)
		return def
	}
	return d
}

// LoadConfig loads configuration for the server, logs it, and prepares the
// database and lock directories.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	cfg, err := Load("")
	if err != nil {
		return nil, err
	}

	logging.ConfigureFile(cfg.Log)
	LogConfig(cfg)

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if err := PrepareDirectories(cfg); err != nil {
		return nil, err
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:    ENABLED (required)")
	logging.Info("    Scan locks:  %s", cfg.LockDir)
	logging.Info("    Metrics:     %s", enabledString(cfg.MetricsEnabled))
	logging.Info("    Log file:    %s", valueOrNone(cfg.Log.Path))

	return cfg, nil
}

// PrepareDirectories creates the database and lock directories and checks
// that both are writable.
func PrepareDirectories(cfg *Config) error {
	if err := ensureDirectory(cfg.DatabaseDir, "database"); err != nil {
		return fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(cfg.DatabaseDir); err != nil {
		return fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	if err := ensureDirectory(cfg.LockDir, "lock"); err != nil {
		return fmt.Errorf("lock directory error: %w", err)
	}
	if err := testWriteAccess(cfg.LockDir); err != nil {
		return fmt.Errorf("lock directory is not writable (required for scan locks): %w", err)
	}
	logging.Info("  [OK] Lock directory is writable")
	return nil
}

// LogConfig logs the effective configuration.
func LogConfig(cfg *Config) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  CONFIG_FILE:         %s", valueOrNone(cfg.ConfigFile))
	logging.Info("  DATABASE_DIR:        %s", cfg.DatabaseDir)
	logging.Info("  LOCK_DIR:            %s", cfg.LockDir)
	logging.Info("  PORT:                %s", cfg.Port)
	logging.Info("  METRICS_PORT:        %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", cfg.MetricsEnabled)
	logging.Info("  STATS_INTERVAL:      %v", cfg.StatsInterval)
	logging.Info("  SCAN_BATCH_SIZE:     %s", humanize.Comma(int64(cfg.ScanBatchSize)))
	logging.Info("  SCAN_CONCURRENCY:    %s", concurrencyString(cfg.ScanConcurrency))
	logging.Info("  DB_BUSY_TIMEOUT:     %v", cfg.DBBusyTimeout)
	logging.Info("  SKIP_MIGRATIONS:     %v", cfg.SkipMigrations)
	if cfg.MemoryLimit > 0 {
		logging.Info("  MEMORY_LIMIT:        %s", humanize.IBytes(uint64(cfg.MemoryLimit)))
	}
	logging.Info("  LOG_HEALTH_CHECKS:   %v", cfg.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())
	if cfg.Log.Path != "" {
		logging.Info("  LOG_FILE:            %s (rotate at %d MB, keep %d, %d days)",
			cfg.Log.Path, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays)
	}
}

func concurrencyString(n int) string {
	if n == 0 {
		return "auto"
	}
	return fmt.Sprintf("%d", n)
}

func valueOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration, schema database.Schema) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
	logging.Info("  Schema version: %d (progress columns: %v, skip counter: %v)",
		schema.Version, schema.Progress, schema.Skips)
	if schema.Degraded() {
		logging.Warn("  Legacy schema: scan progress will not be recorded")
	}
}

// LogScannerInit logs scan manager initialization
func LogScannerInit(cfg *Config) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SCANNER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Batch size:  %s records", humanize.Comma(int64(cfg.ScanBatchSize)))
	logging.Info("  Concurrency: %s", concurrencyString(cfg.ScanConcurrency))
	logging.Info("  Lock dir:    %s", cfg.LockDir)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			logging.Debug("  [%s]", group)
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup returns the first path segment, or "root".
func getRouteGroup(path string) string {
	first, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if first == "" {
		return "root"
	}
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
    ____  _      __      ____          __
   / __ \(_)____/ /__   /  _/___  ____/ /__  _  _____  _____
  / / / / / ___/ //_/   / // __ \/ __  / _ \| |/_/ _ \/ ___/
 / /_/ / (__  ) ,<    _/ // / / / /_/ /  __/>  </  __/ /
/_____/_/____/_/|_|  /___/_/ /_/\__,_/\___/_/|_|\___/_/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}
