// Package storage provides the persistent section/key cache used by ytupload.
//
// The cache is a single YAML file holding a two-level mapping of section name to
// key to value. It is read lazily, mutated in memory and written back wholesale,
// guarded by an advisory lock so several ytupload processes can share one file.
package storage

import (
	"errors"
	"fmt"
)

// Sentinel errors for common storage conditions.
var (
	// ErrStorageCorrupt indicates the cache file exists but cannot be parsed.
	ErrStorageCorrupt = errors.New("storage: data corruption detected")
	// ErrLockTimeout indicates a timeout acquiring a file lock.
	ErrLockTimeout = errors.New("storage: lock acquisition timeout")
	// ErrInvalidInput indicates invalid or malformed input was provided.
	ErrInvalidInput = errors.New("storage: invalid input")
)

// StorageError wraps storage errors with operation and entity context.
// Use errors.As() to extract this error type and get operation details:
//
//	var storErr *storage.StorageError
//	if errors.As(err, &storErr) {
//		fmt.Printf("Failed to %s %s %s: %v\n", storErr.Op, storErr.Entity, storErr.ID, storErr.Err)
//	}
type StorageError struct {
	// Op is the operation that failed ("read", "write", "lock", "encode", "decode").
	Op string
	// Entity is the entity type ("cache", "file", "entry").
	Entity string
	// ID is the path or section/key if applicable.
	ID string
	// Hint is an optional instruction for the operator.
	Hint string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the storage error.
func (e *StorageError) Error() string {
	msg := fmt.Sprintf("storage: %s %s: %v", e.Op, e.Entity, e.Err)
	if e.ID != "" {
		msg = fmt.Sprintf("storage: %s %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StorageError) Unwrap() error { return e.Err }

// IsCorrupt reports whether err was caused by an unparseable cache file.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrStorageCorrupt)
}
