//go:build !linux && !darwin

package scanner

import (
	"os"
	"time"
)

// changeTime falls back to the modification time on platforms without a
// portable inode change time.
func changeTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
