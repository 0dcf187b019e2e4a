//go:build !windows

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// lockPollInterval is how often a contended lock is retried.
const lockPollInterval = 10 * time.Millisecond

// FileLock provides advisory file locking for cross-process synchronization.
// This uses flock(2) which is available on Unix-like systems.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a file lock. The lock is not acquired until Lock() or RLock() is called.
// The lock file will be created at path + ".lock" and is left in place after Unlock.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path + ".lock"}
}

// Lock acquires an exclusive lock with the specified timeout.
// Returns an error wrapping ErrLockTimeout if the lock cannot be acquired within the timeout.
func (l *FileLock) Lock(timeout time.Duration) error {
	return l.acquire(unix.LOCK_EX, timeout)
}

// RLock acquires a shared lock with the specified timeout.
func (l *FileLock) RLock(timeout time.Duration) error {
	return l.acquire(unix.LOCK_SH, timeout)
}

func (l *FileLock) acquire(how int, timeout time.Duration) error {
	if l.file != nil {
		return &StorageError{Op: "lock", Entity: "file", ID: l.path, Err: fmt.Errorf("%w: lock already held", ErrInvalidInput)}
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return &StorageError{Op: "lock", Entity: "file", ID: l.path, Err: err}
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return &StorageError{Op: "lock", Entity: "file", ID: l.path, Err: err}
	}

	deadline := time.Now().Add(timeout)
	for {
		err = unix.Flock(int(f.Fd()), how|unix.LOCK_NB)
		if err == nil {
			l.file = f
			return nil
		}
		if err != unix.EWOULDBLOCK && err != unix.EINTR {
			f.Close()
			return &StorageError{Op: "lock", Entity: "file", ID: l.path, Err: err}
		}
		if !time.Now().Before(deadline) {
			break
		}
		time.Sleep(lockPollInterval)
	}

	f.Close()
	return &StorageError{Op: "lock", Entity: "file", ID: l.path, Err: fmt.Errorf("%w after %v", ErrLockTimeout, timeout)}
}

// Unlock releases the lock.
func (l *FileLock) Unlock() error {
	if l.file == nil {
		return nil
	}
	unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	return err
}
