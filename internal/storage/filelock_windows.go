//go:build windows

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/windows"
)

// lockPollInterval is how often a contended lock is retried.
const lockPollInterval = 10 * time.Millisecond

// FileLock provides advisory file locking for cross-process synchronization.
// This uses LockFileEx on Windows.
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
	return l.acquire(windows.LOCKFILE_EXCLUSIVE_LOCK, timeout)
}

// RLock acquires a shared lock with the specified timeout.
func (l *FileLock) RLock(timeout time.Duration) error {
	return l.acquire(0, timeout)
}

func (l *FileLock) acquire(flags uint32, timeout time.Duration) error {
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
		if err = lockFile(f, flags); err == nil {
			l.file = f
			return nil
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
	unlockFile(l.file)
	err := l.file.Close()
	l.file = nil
	return err
}

// lockFile tries once to take a lock on the first byte of the file.
func lockFile(f *os.File, flags uint32) error {
	var overlapped windows.Overlapped
	return windows.LockFileEx(
		windows.Handle(f.Fd()),
		flags|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0,
		1,
		0,
		&overlapped,
	)
}

func unlockFile(f *os.File) error {
	var overlapped windows.Overlapped
	return windows.UnlockFileEx(
		windows.Handle(f.Fd()),
		0,
		1,
		0,
		&overlapped,
	)
}
