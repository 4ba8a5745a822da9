package memory

import (
	"math"
	"os"
	"runtime/debug"

	"github.com/dustin/go-humanize"

	"disk-indexer/internal/logging"
)

// DefaultRatio is the share of the container limit given to the Go heap.
// The rest covers SQLite, goroutine stacks and cgo allocations.
const DefaultRatio = 0.85

// Sources of an applied limit.
const (
	SourceEnv       = "GOMEMLIMIT"
	SourceContainer = "MEMORY_LIMIT"
	SourceNone      = "none"
)

// Limit reports what Apply did.
type Limit struct {
	// Configured is true when a soft limit is in effect.
	Configured bool

	// Source is one of SourceEnv, SourceContainer or SourceNone.
	Source string

	// ContainerLimit is the container memory limit in bytes, 0 if unknown.
	ContainerLimit int64

	// GoMemLimit is the effective soft limit in bytes, 0 if none.
	GoMemLimit int64

	// Ratio is the share of ContainerLimit used, 0 if not applicable.
	Ratio float64
}

// Apply sets the runtime soft memory limit to ratio of containerLimit. An
// explicit GOMEMLIMIT in the environment wins and is only reported. A ratio
// outside (0, 1] falls back to DefaultRatio. Call it early in main, before
// significant allocations.
func Apply(containerLimit int64, ratio float64) Limit {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		result := Limit{Source: SourceEnv}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		return result
	}

	if containerLimit <= 0 {
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT will not be configured automatically")
		return Limit{Source: SourceNone}
	}

	if ratio <= 0 || ratio > 1 {
		if ratio != 0 {
			logging.Warn("MEMORY_RATIO %.2f out of range (0.0-1.0], using default %.2f", ratio, DefaultRatio)
		}
		ratio = DefaultRatio
	}

	goMemLimit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		humanize.IBytes(uint64(goMemLimit)), ratio*100, humanize.IBytes(uint64(containerLimit)))

	return Limit{
		Configured:     true,
		Source:         SourceContainer,
		ContainerLimit: containerLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}
