//go:build darwin

package discover

import (
	"os"
	"syscall"
	"time"
)

// creationTime returns the inode change time.
// On macOS, Stat_t has Ctimespec (not Ctim like Linux).
func creationTime(info os.FileInfo) time.Time {
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(sys.Ctimespec.Sec, sys.Ctimespec.Nsec)
}
