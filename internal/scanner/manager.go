package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"disk-indexer/internal/logging"
	"disk-indexer/internal/metrics"
	"disk-indexer/internal/workers"
)

// lockNamespace derives stable lock file names from arbitrary disk names.
var lockNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("disk-indexer/scan-lock"))

// ManagerConfig tunes a Manager.
type ManagerConfig struct {
	// LockDir holds one lock file per disk so that processes sharing a
	// database do not scan the same disk at once. Empty disables file locks.
	LockDir string

	// Concurrency caps how many scans run at once. Zero sizes the pool from
	// available CPUs.
	Concurrency int
}

// maxConcurrency bounds the automatically sized pool.
const maxConcurrency = 8

// Handle tracks one accepted scan.
type Handle struct {
	ID        string
	Disk      string
	Root      string
	StartedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	result Result
	err    error
}

// HandleInfo is the serializable view of a running scan.
type HandleInfo struct {
	ID        string    `json:"scan_id"`
	Disk      string    `json:"disk_name"`
	Root      string    `json:"folder"`
	StartedAt time.Time `json:"started_at"`
}

// Done is closed when the scan has finished and its state is recorded.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Cancel asks the scan to stop. The disk ends in the error state.
func (h *Handle) Cancel() {
	h.cancel()
}

// Result returns the outcome. It is only meaningful after Done is closed.
func (h *Handle) Result() (Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err
}

// Info returns the serializable view of h.
func (h *Handle) Info() HandleInfo {
	return HandleInfo{ID: h.ID, Disk: h.Disk, Root: h.Root, StartedAt: h.StartedAt}
}

// Manager runs scans in the background, at most one per disk name.
type Manager struct {
	scanner *Scanner
	lockDir string
	sem     chan struct{}

	ctx       context.Context
	cancelAll context.CancelFunc

	mu     sync.Mutex
	active map[string]*Handle
	closed bool
	wg     sync.WaitGroup
}

// NewManager creates a Manager running scans with s.
func NewManager(s *Scanner, cfg ManagerConfig) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	n := workers.Resolve(cfg.Concurrency, maxConcurrency)
	logging.Info("Scan manager: concurrency=%d lockDir=%q", n, cfg.LockDir)

	return &Manager{
		scanner:   s,
		lockDir:   cfg.LockDir,
		sem:       make(chan struct{}, n),
		ctx:       ctx,
		cancelAll: cancel,
		active:    make(map[string]*Handle),
	}
}

// Start accepts a scan of root as disk and returns immediately. It fails
// with ErrMissingFields for blank input and ErrScanInProgress when the disk
// is already being scanned.
func (m *Manager) Start(disk, root string) (*Handle, error) {
	disk = strings.TrimSpace(disk)
	root = strings.TrimSpace(root)
	if disk == "" || root == "" {
		metrics.ScanRejectedTotal.WithLabelValues("missing_fields").Inc()
		return nil, ErrMissingFields
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}
	if _, busy := m.active[disk]; busy {
		metrics.ScanRejectedTotal.WithLabelValues("in_progress").Inc()
		return nil, fmt.Errorf("%w: %s", ErrScanInProgress, disk)
	}

	lock, err := m.lock(disk)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(m.ctx)
	h := &Handle{
		ID:        uuid.NewString(),
		Disk:      disk,
		Root:      root,
		StartedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	m.active[disk] = h
	m.wg.Add(1)
	go m.run(ctx, h, lock)

	logging.Info("Accepted scan %s for disk %q at %s", h.ID, disk, root)
	return h, nil
}

// lock takes the cross-process lock for disk. A nil lock means file locking
// is disabled.
func (m *Manager) lock(disk string) (*flock.Flock, error) {
	if m.lockDir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(m.lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	fl := flock.New(filepath.Join(m.lockDir, lockFileName(disk)))

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock disk %q: %w", disk, err)
	}
	if !locked {
		metrics.ScanRejectedTotal.WithLabelValues("in_progress").Inc()
		return nil, fmt.Errorf("%w: %s (held by another process)", ErrScanInProgress, disk)
	}
	return fl, nil
}

// lockFileName maps a disk name, which may contain any character, to a
// safe file name.
func lockFileName(disk string) string {
	return uuid.NewSHA1(lockNamespace, []byte(disk)).String() + ".lock"
}

func (m *Manager) run(ctx context.Context, h *Handle, lock *flock.Flock) {
	defer m.wg.Done()
	defer h.cancel()

	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	case <-ctx.Done():
		// Run records the cancellation
	}

	res, err := m.scanner.Run(ctx, h.Disk, h.Root)
	res.ScanID = h.ID

	if lock != nil {
		if uerr := lock.Unlock(); uerr != nil {
			logging.Warn("Failed to release scan lock for disk %q: %v", h.Disk, uerr)
		}
	}

	h.mu.Lock()
	h.result, h.err = res, err
	h.mu.Unlock()

	m.mu.Lock()
	delete(m.active, h.Disk)
	m.mu.Unlock()

	close(h.done)
}

// Cancel stops the running scan of disk. It reports whether one was running.
func (m *Manager) Cancel(disk string) bool {
	m.mu.Lock()
	h, ok := m.active[disk]
	m.mu.Unlock()

	if ok {
		logging.Info("Cancelling scan %s for disk %q", h.ID, disk)
		h.Cancel()
	}
	return ok
}

// Get returns the running scan of disk, if any.
func (m *Manager) Get(disk string) (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.active[disk]
	return h, ok
}

// Active lists running scans, oldest first.
func (m *Manager) Active() []HandleInfo {
	m.mu.Lock()
	infos := make([]HandleInfo, 0, len(m.active))
	for _, h := range m.active {
		infos = append(infos, h.Info())
	}
	m.mu.Unlock()

	slices.SortFunc(infos, func(a, b HandleInfo) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
	return infos
}

// Wait blocks until every accepted scan has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Shutdown rejects new scans, cancels running ones and waits for them to
// record their final state, or for ctx to expire.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	running := len(m.active)
	m.mu.Unlock()

	if running > 0 {
		logging.Info("Cancelling %d running scan(s)", running)
	}
	m.cancelAll()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
