//go:build linux

package discover

import (
	"os"
	"syscall"
	"time"
)

// creationTime returns the inode change time, the closest Linux has to a
// portable creation time.
func creationTime(info os.FileInfo) time.Time {
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(int64(sys.Ctim.Sec), int64(sys.Ctim.Nsec))
}
