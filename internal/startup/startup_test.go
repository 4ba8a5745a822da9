package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disk-indexer/internal/database"
	"disk-indexer/internal/scanner"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	assert.NotEmpty(t, info.Version)
	assert.Equal(t, GoVersion, info.GoVersion)
	assert.NotEmpty(t, info.OS)
	assert.NotEmpty(t, info.Arch)
}

// clearEnv unsets every configuration variable for the duration of a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "DATABASE_DIR", "LOCK_DIR", "PORT", "METRICS_PORT", "METRICS_ENABLED",
		"STATS_INTERVAL", "SCAN_BATCH_SIZE", "SCAN_CONCURRENCY", "DB_BUSY_TIMEOUT",
		"SKIP_MIGRATIONS", "LOG_HEALTH_CHECKS", "LOG_FILE", "LOG_MAX_SIZE_MB",
		"MEMORY_LIMIT", "MEMORY_RATIO",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/database", cfg.DatabaseDir)
	assert.Equal(t, filepath.Join("/database", "locks"), cfg.LockDir)
	assert.Equal(t, filepath.Join("/database", DatabaseFile), cfg.DatabasePath)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "9090", cfg.MetricsPort)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, time.Minute, cfg.StatsInterval)
	assert.Equal(t, scanner.DefaultBatchSize, cfg.ScanBatchSize)
	assert.Equal(t, 0, cfg.ScanConcurrency)
	assert.Equal(t, database.DefaultBusyTimeout, cfg.DBBusyTimeout)
	assert.False(t, cfg.SkipMigrations)
	assert.True(t, cfg.LogHealthChecks)
	assert.Empty(t, cfg.Log.Path)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("DATABASE_DIR", dir)
	t.Setenv("LOCK_DIR", filepath.Join(dir, "l"))
	t.Setenv("PORT", "5000")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("SCAN_BATCH_SIZE", "250")
	t.Setenv("SCAN_CONCURRENCY", "3")
	t.Setenv("DB_BUSY_TIMEOUT", "5s")
	t.Setenv("SKIP_MIGRATIONS", "true")
	t.Setenv("LOG_FILE", filepath.Join(dir, "app.log"))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DatabaseDir)
	assert.Equal(t, filepath.Join(dir, "l"), cfg.LockDir)
	assert.Equal(t, "5000", cfg.Port)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, 250, cfg.ScanBatchSize)
	assert.Equal(t, 3, cfg.ScanConcurrency)
	assert.Equal(t, 5*time.Second, cfg.DBBusyTimeout)
	assert.True(t, cfg.SkipMigrations)
	assert.Equal(t, filepath.Join(dir, "app.log"), cfg.Log.Path)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCAN_BATCH_SIZE", "0")
	t.Setenv("SCAN_CONCURRENCY", "-2")
	t.Setenv("DB_BUSY_TIMEOUT", "soon")
	t.Setenv("STATS_INTERVAL", "-1s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, scanner.DefaultBatchSize, cfg.ScanBatchSize)
	assert.Equal(t, 0, cfg.ScanConcurrency)
	assert.Equal(t, database.DefaultBusyTimeout, cfg.DBBusyTimeout)
	assert.Equal(t, time.Minute, cfg.StatsInterval)
}

func TestLoadMemoryLimit(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{"", 0},
		{"1073741824", 1 << 30},
		{"512MiB", 512 << 20},
		{"2G", 2_000_000_000},
		{"plenty", 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("MEMORY_LIMIT", tt.raw)
			t.Setenv("MEMORY_RATIO", "0.7")

			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.MemoryLimit)
			assert.Equal(t, 0.7, cfg.MemoryRatio)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "indexer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_dir: `+dir+`
port: "7000"
scan_batch_size: 100
db_busy_timeout: 10s
`), 0o644))

	t.Run("explicit path", func(t *testing.T) {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, path, cfg.ConfigFile)
		assert.Equal(t, dir, cfg.DatabaseDir)
		assert.Equal(t, "7000", cfg.Port)
		assert.Equal(t, 100, cfg.ScanBatchSize)
		assert.Equal(t, 10*time.Second, cfg.DBBusyTimeout)
	})

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", path)
		t.Setenv("PORT", "7001")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "7001", cfg.Port)
		assert.Equal(t, 100, cfg.ScanBatchSize)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestPrepareDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		DatabaseDir: filepath.Join(dir, "db"),
		LockDir:     filepath.Join(dir, "db", "locks"),
	}

	require.NoError(t, PrepareDirectories(cfg))
	assert.DirExists(t, cfg.DatabaseDir)
	assert.DirExists(t, cfg.LockDir)
	assert.NoFileExists(t, filepath.Join(cfg.DatabaseDir, ".write-test"))

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, PrepareDirectories(&Config{DatabaseDir: file, LockDir: dir}))
}

func TestGetRoutes(t *testing.T) {
	r := mux.NewRouter()
	noop := func(http.ResponseWriter, *http.Request) {}
	r.HandleFunc("/scan", noop).Methods(http.MethodPost)
	r.HandleFunc("/scan/{disk}/cancel", noop).Methods(http.MethodPost)
	r.HandleFunc("/disks", noop).Methods(http.MethodGet, http.MethodHead)

	routes, err := GetRoutes(r)
	require.NoError(t, err)

	assert.Contains(t, routes, RouteInfo{Method: http.MethodPost, Path: "/scan/{disk}/cancel"})
	assert.Contains(t, routes, RouteInfo{Method: http.MethodHead, Path: "/disks"})
	assert.Len(t, routes, 4)
}

func TestGetRouteGroup(t *testing.T) {
	assert.Equal(t, "scan", getRouteGroup("/scan/{disk}/cancel"))
	assert.Equal(t, "disks", getRouteGroup("/disks"))
	assert.Equal(t, "root", getRouteGroup("/"))
}

func TestConcurrencyString(t *testing.T) {
	assert.Equal(t, "auto", concurrencyString(0))
	assert.Equal(t, "4", concurrencyString(4))
}
