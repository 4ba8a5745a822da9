package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"disk-indexer/internal/database"
)

// newTestDB opens a migrated database in a temp directory.
func newTestDB(t *testing.T) *database.Database {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "index.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// writeFile creates path with size bytes, creating parent directories.
func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

// stateEvent is one observed store call.
type stateEvent struct {
	op           string
	segmentsDone int
	records      int
	progress     database.Progress
	msg          string
}

// recordingStore wraps a Store and records every call.
type recordingStore struct {
	Store

	mu     sync.Mutex
	events []stateEvent

	// fail makes the named operation return the error without reaching
	// the wrapped store
	fail map[string]error

	// after runs once the named operation has succeeded
	after map[string]func(stateEvent)
}

func (r *recordingStore) add(e stateEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.fail[e.op]
}

func (r *recordingStore) done(e stateEvent, err error) error {
	if err == nil {
		if fn := r.after[e.op]; fn != nil {
			fn(e)
		}
	}
	return err
}

func (r *recordingStore) BeginScan(ctx context.Context, disk string, total int) error {
	e := stateEvent{op: "begin"}
	if err := r.add(e); err != nil {
		return err
	}
	return r.done(e, r.Store.BeginScan(ctx, disk, total))
}

func (r *recordingStore) SetMessage(ctx context.Context, disk, msg string) error {
	e := stateEvent{op: "message", msg: msg}
	if err := r.add(e); err != nil {
		return err
	}
	return r.done(e, r.Store.SetMessage(ctx, disk, msg))
}

func (r *recordingStore) FlushBatch(ctx context.Context, disk string, records []database.FileRecord, p database.Progress, msg string) error {
	e := stateEvent{op: "flush", records: len(records), progress: p, msg: msg}
	if err := r.add(e); err != nil {
		return err
	}
	return r.done(e, r.Store.FlushBatch(ctx, disk, records, p, msg))
}

func (r *recordingStore) CompleteSegment(ctx context.Context, disk string, done int, msg string) error {
	e := stateEvent{op: "complete", segmentsDone: done, msg: msg}
	if err := r.add(e); err != nil {
		return err
	}
	return r.done(e, r.Store.CompleteSegment(ctx, disk, done, msg))
}

func (r *recordingStore) FinishScan(ctx context.Context, disk, msg string) error {
	e := stateEvent{op: "finish", msg: msg}
	if err := r.add(e); err != nil {
		return err
	}
	return r.done(e, r.Store.FinishScan(ctx, disk, msg))
}

func (r *recordingStore) FailScan(ctx context.Context, disk, msg string) error {
	e := stateEvent{op: "fail", msg: msg}
	if err := r.add(e); err != nil {
		return err
	}
	return r.done(e, r.Store.FailScan(ctx, disk, msg))
}

func (r *recordingStore) ops(op string) []stateEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []stateEvent
	for _, e := range r.events {
		if e.op == op {
			out = append(out, e)
		}
	}
	return out
}

func (r *recordingStore) sequence() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.op
	}
	return out
}
