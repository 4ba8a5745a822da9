package scanner

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"

	"disk-indexer/internal/database"
	"disk-indexer/internal/filesystem"
)

// Skip reasons
const (
	ReasonStat       = "stat"
	ReasonReadDir    = "readdir"
	ReasonNotRegular = "not_regular"
)

// SkipReasons lists every reason a walk can skip an entry.
var SkipReasons = []string{ReasonStat, ReasonReadDir, ReasonNotRegular}

// Skip describes an entry the walker could not index.
type Skip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Entry is one walk result. Exactly one of Record and Skip is set.
type Entry struct {
	Record *database.FileRecord
	Skip   *Skip
}

// Walker turns segments into file records for one disk.
type Walker struct {
	Disk  string
	Retry filesystem.RetryConfig
}

// Walk lazily yields an Entry for every file in seg. Each call walks the
// filesystem again. Per-entry and per-directory failures are yielded as
// skips and never end the walk; a cancelled ctx does.
func (w Walker) Walk(ctx context.Context, seg Segment) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		if seg.Root {
			w.walkRoot(ctx, seg.Path, yield)
			return
		}
		w.walkTree(ctx, seg.Path, yield)
	}
}

// walkRoot yields the regular files directly inside dir. Subdirectories are
// their own segments; symlinks are not followed.
func (w Walker) walkRoot(ctx context.Context, dir string, yield func(Entry) bool) {
	entries, err := filesystem.ReadDirWithRetry(dir, w.Retry)
	if err != nil {
		yield(skipped(dir, ReasonReadDir, err))
		return
	}

	for _, e := range entries {
		if ctx.Err() != nil {
			return
		}
		if e.IsDir() {
			continue
		}

		path := filepath.Join(dir, e.Name())
		if !e.Type().IsRegular() {
			if !yield(skipped(path, ReasonNotRegular, nil)) {
				return
			}
			continue
		}

		info, err := filesystem.LstatWithRetry(path, w.Retry)
		var entry Entry
		switch {
		case err != nil:
			entry = skipped(path, ReasonStat, err)
		case !info.Mode().IsRegular():
			// replaced between listing and stat
			entry = skipped(path, ReasonNotRegular, nil)
		default:
			entry = w.record(dir, e.Name(), info)
		}
		if !yield(entry) {
			return
		}
	}
}

// walkTree yields every file below dir, depth first with each directory's
// files before its subdirectories. Symlinks to files are indexed with the
// target's metadata; symlinks to directories are not descended.
func (w Walker) walkTree(ctx context.Context, dir string, yield func(Entry) bool) {
	stack := []string{dir}

	for len(stack) > 0 {
		if ctx.Err() != nil {
			return
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := filesystem.ReadDirWithRetry(current, w.Retry)
		if err != nil {
			if !yield(skipped(current, ReasonReadDir, err)) {
				return
			}
			continue
		}

		var subdirs []string
		for _, e := range entries {
			if ctx.Err() != nil {
				return
			}

			path := filepath.Join(current, e.Name())
			if e.IsDir() {
				subdirs = append(subdirs, path)
				continue
			}

			if !yield(w.treeEntry(current, e, path)) {
				return
			}
		}

		// Reverse so the stack pops subdirectories in name order
		slices.Reverse(subdirs)
		stack = append(stack, subdirs...)
	}
}

func (w Walker) treeEntry(dir string, e fs.DirEntry, path string) Entry {
	info, err := filesystem.StatWithRetry(path, w.Retry)
	if err != nil {
		// broken symlinks land here too
		return skipped(path, ReasonStat, err)
	}
	// symlinks to directories are not regular either
	if !info.Mode().IsRegular() {
		return skipped(path, ReasonNotRegular, nil)
	}
	return w.record(dir, e.Name(), info)
}

func (w Walker) record(dir, name string, info os.FileInfo) Entry {
	return Entry{Record: &database.FileRecord{
		DiskName:   w.Disk,
		Folder:     dir,
		FileName:   name,
		Size:       info.Size(),
		CreatedAt:  database.FormatTimestamp(changeTime(info)),
		ModifiedAt: database.FormatTimestamp(info.ModTime()),
	}}
}

func skipped(path, reason string, err error) Entry {
	return Entry{Skip: &Skip{Path: path, Reason: reason, Err: err}}
}
