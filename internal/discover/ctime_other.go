//go:build !linux && !darwin && !windows

package discover

import (
	"os"
	"time"
)

// creationTime falls back to the modification time where the platform
// exposes nothing better.
func creationTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
