package scanner

import (
	"os"
	"syscall"
	"time"
)

// changeTime returns the inode change time, falling back to the
// modification time when the platform data is unavailable.
func changeTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctimespec.Sec, st.Ctimespec.Nsec)
	}
	return info.ModTime()
}
