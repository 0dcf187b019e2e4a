package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultLockTimeout bounds how long Load and Flush wait for the file lock.
const DefaultLockTimeout = 30 * time.Second

// corruptHint is attached to ErrStorageCorrupt so operators know the way out.
const corruptHint = "the cache YAML file looks broken, consider removing it and retrying"

// sections is the in-memory form of the cache file: section -> key -> value.
// Values are kept as YAML nodes so any serializable type round-trips and
// a stored null stays distinguishable from a missing key.
type sections map[string]map[string]yaml.Node

// Cache is a two-level (section, key) -> value store backed by a single YAML file.
//
// The file is read once, lazily, on the first Get or Update (see EnsureLoaded)
// or explicitly via Load. Update only touches memory; Flush writes the whole
// mapping back. Load holds a shared lock on the sidecar lock file while reading
// and Flush holds an exclusive lock for its read-merge-write cycle, so readers
// never see a half-written file and writers never interleave.
//
// A Cache is safe for concurrent use.
type Cache struct {
	path        string
	lockTimeout time.Duration
	logger      *zap.Logger

	mu      sync.RWMutex
	loaded  bool
	loadErr error // latched corruption error; the instance is unusable once set
	data    sections
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLockTimeout overrides DefaultLockTimeout.
func WithLockTimeout(d time.Duration) CacheOption {
	return func(c *Cache) { c.lockTimeout = d }
}

// WithLogger sets the logger used for cache lifecycle messages.
func WithLogger(logger *zap.Logger) CacheOption {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCache returns a cache bound to path. Nothing is read until first use.
func NewCache(path string, opts ...CacheOption) *Cache {
	c := &Cache{
		path:        path,
		lockTimeout: DefaultLockTimeout,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("cache", path))
	return c
}

// Path returns the backing file path.
func (c *Cache) Path() string { return c.path }

// Load reads the backing file, replacing any in-memory state.
// A missing file yields an empty cache. A file that cannot be parsed yields
// ErrStorageCorrupt; the file is left untouched for manual recovery and the
// cache instance refuses all further use.
func (c *Cache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked()
}

// EnsureLoaded performs Load exactly once. Get and Update call it implicitly;
// calling it up front surfaces corruption or lock errors early.
func (c *Cache) EnsureLoaded() error {
	c.mu.RLock()
	if c.loaded || c.loadErr != nil {
		err := c.loadErr
		c.mu.RUnlock()
		return err
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded || c.loadErr != nil {
		return c.loadErr
	}
	return c.loadLocked()
}

func (c *Cache) loadLocked() error {
	if c.loadErr != nil {
		return c.loadErr
	}

	c.logger.Info("reading the cache from the disk")

	lock := NewFileLock(c.path)
	if err := lock.RLock(c.lockTimeout); err != nil {
		return err
	}
	defer lock.Unlock()

	data, err := c.readFile()
	if err != nil {
		if IsCorrupt(err) {
			c.loadErr = err
		}
		return err
	}
	if data == nil {
		c.logger.Warn("cache does not exist, starting empty")
		data = make(sections)
	}

	c.data = data
	c.loaded = true
	return nil
}

// readFile returns the parsed file, or nil when it does not exist.
// Callers must hold the file lock.
func (c *Cache) readFile() (sections, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &StorageError{Op: "read", Entity: "cache", ID: c.path, Err: err}
	}

	data := make(sections)
	if len(bytes.TrimSpace(raw)) == 0 {
		return data, nil
	}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, &StorageError{
			Op:     "read",
			Entity: "cache",
			ID:     c.path,
			Hint:   corruptHint,
			Err:    fmt.Errorf("%w: %v", ErrStorageCorrupt, err),
		}
	}
	return data, nil
}

// Get decodes the value stored at (section, key) into out and reports whether
// it was present. A missing section or key is not an error. A present null
// value reports true and leaves out untouched. out may be nil to only test
// for presence.
func (c *Cache) Get(section, key string, out any) (bool, error) {
	if err := c.EnsureLoaded(); err != nil {
		return false, err
	}

	c.mu.RLock()
	node, ok := c.data[section][key]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if out == nil {
		return true, nil
	}

	if err := node.Decode(out); err != nil {
		return true, &StorageError{Op: "decode", Entity: "entry", ID: section + "/" + key, Err: err}
	}
	return true, nil
}

// Sections returns the names of all sections, sorted.
func (c *Cache) Sections() ([]string, error) {
	if err := c.EnsureLoaded(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.data))
	for name := range c.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Update stores value at (section, key), creating the section if needed and
// overwriting any previous value. It does not write to disk.
func (c *Cache) Update(section, key string, value any) error {
	if err := c.EnsureLoaded(); err != nil {
		return err
	}

	var node yaml.Node
	if err := node.Encode(value); err != nil {
		return &StorageError{Op: "encode", Entity: "entry", ID: section + "/" + key, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data[section] == nil {
		c.data[section] = make(map[string]yaml.Node)
	}
	c.data[section][key] = node
	return nil
}

// Flush writes the whole mapping back to disk.
//
// Under an exclusive lock it re-reads the file, keeps any section/key written
// there by another process that this instance does not have, and replaces the
// file through replaceFile. Entries held in memory win. A corrupt file on disk
// is reported as ErrStorageCorrupt and not overwritten. Flush on a cache that
// was never loaded is a no-op.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loadErr != nil {
		return c.loadErr
	}
	if !c.loaded {
		return nil
	}

	c.logger.Debug("flushing the cache to the disk", zap.String("path", c.path))

	lock := NewFileLock(c.path)
	if err := lock.Lock(c.lockTimeout); err != nil {
		return err
	}
	defer lock.Unlock()

	onDisk, err := c.readFile()
	if err != nil {
		return err
	}
	merged := c.mergeLocked(onDisk)
	if merged > 0 {
		c.logger.Debug("merged entries written by another process", zap.Int("entries", merged))
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(c.data); err != nil {
		return &StorageError{Op: "encode", Entity: "cache", ID: c.path, Err: err}
	}
	if err := encoder.Close(); err != nil {
		return &StorageError{Op: "encode", Entity: "cache", ID: c.path, Err: err}
	}

	if err := replaceFile(c.path, buf.Bytes()); err != nil {
		return &StorageError{Op: "write", Entity: "cache", ID: c.path, Err: err}
	}
	return nil
}

// replaceFile writes data next to path and renames it over path, so the
// file is never truncated in place: readers see either the old or the new
// content, never a mix. The mode of an existing file is kept.
func replaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ytupload-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if info, err := os.Stat(path); err == nil {
		if err := tmp.Chmod(info.Mode().Perm()); err != nil {
			return fmt.Errorf("chmod: %w", err)
		}
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	committed = true
	return nil
}

// mergeLocked copies entries from other that are missing in memory and
// returns how many were added.
func (c *Cache) mergeLocked(other sections) int {
	added := 0
	for section, keys := range other {
		for key, node := range keys {
			if _, ok := c.data[section][key]; ok {
				continue
			}
			if c.data[section] == nil {
				c.data[section] = make(map[string]yaml.Node)
			}
			c.data[section][key] = node
			added++
		}
	}
	return added
}
