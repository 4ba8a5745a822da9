package scanner

import (
	"path/filepath"

	"disk-indexer/internal/filesystem"
	"disk-indexer/internal/logging"
)

// RootLabel labels the segment holding the files directly inside the root.
const RootLabel = "<ROOT_FILES>"

// Segment is one unit of scan work: either the root's own files (Root set,
// not recursive) or the full subtree of one immediate subdirectory.
type Segment struct {
	Label string `json:"label"`
	Path  string `json:"path"`
	Root  bool   `json:"root"`
}

// DisplayName is the label used in progress messages.
func (s Segment) DisplayName() string {
	if s.Root {
		return "root"
	}
	return s.Label
}

// Segments plans a scan of root. The root segment always comes first,
// followed by one segment per immediate subdirectory. Symlinked directories
// are not segments. If root cannot be listed only the root segment is
// returned.
func Segments(root string) []Segment {
	segments := []Segment{{Label: RootLabel, Path: root, Root: true}}

	entries, err := filesystem.ReadDirWithRetry(root, filesystem.DefaultRetryConfig())
	if err != nil {
		logging.Warn("Could not list %s for segmentation, scanning root files only: %v", root, err)
		return segments
	}

	for _, entry := range entries {
		if entry.IsDir() {
			segments = append(segments, Segment{
				Label: entry.Name(),
				Path:  filepath.Join(root, entry.Name()),
			})
		}
	}

	return segments
}
