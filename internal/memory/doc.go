// Package memory sizes the Go runtime's soft memory limit for containers.
//
// Scans hold at most one batch of records in memory, but SQLite page cache
// and large directory listings still grow the heap. When the service runs
// under a container memory limit, setting GOMEMLIMIT below that limit makes
// the garbage collector work harder before the kernel OOM killer steps in.
//
// The limit comes from, in order:
//
//   - GOMEMLIMIT, applied by the runtime itself and only reported here
//   - MEMORY_LIMIT, the container limit (for example from the Kubernetes
//     Downward API), scaled by MEMORY_RATIO (default 0.85)
//
// Without either, the runtime default (no limit) is kept.
package memory
