// Package hasher computes content digests of local files, memoized in the
// persistent cache.
package hasher

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"ytupload/internal/logging"
	"ytupload/internal/metrics"
	"ytupload/internal/storage"
)

// BlockSize is the read size used while streaming a file through the digest.
const BlockSize = 64 * 1024

// Store is the subset of *storage.Cache the hasher needs.
type Store interface {
	Get(section, key string, out any) (bool, error)
	Update(section, key string, value any) error
	Flush() error
}

// Hasher returns MD5 digests of files, reading each file at most once per
// cache lifetime. Cached digests are trusted as-is: a file rewritten in place
// under the same path keeps its old digest until the entry is removed.
type Hasher struct {
	cache   Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Hasher.
type Option func(*Hasher)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Hasher) { h.logger = logging.OrNop(logger) }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hasher) { h.metrics = m }
}

// New creates a Hasher backed by cache.
func New(cache Store, opts ...Option) *Hasher {
	h := &Hasher{
		cache:  cache,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// MD5 returns the lowercase hex MD5 of the file at path.
//
// A cached digest is returned without touching the file. Otherwise the file is
// streamed in BlockSize chunks, and the result is stored and flushed on a
// best-effort basis: failing to persist it is logged, never returned. Errors
// reading the cache itself (corruption, lock timeout) are returned.
func (h *Hasher) MD5(path string) (string, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	cached, err := h.fromCache(key)
	if err != nil {
		return "", err
	}
	if cached != "" {
		h.logger.Debug("found hash in the cache", zap.String("path", key))
		h.metrics.RecordHash(true)
		return cached, nil
	}

	h.logger.Info("calculating hash", zap.String("path", key))
	sum, err := Compute(key)
	if err != nil {
		return "", err
	}
	h.metrics.RecordHash(false)

	h.save(key, sum)
	return sum, nil
}

func (h *Hasher) fromCache(key string) (string, error) {
	var entry storage.HashEntry
	found, err := h.cache.Get(storage.SectionFileHashes, key, &entry)
	if err != nil {
		var storErr *storage.StorageError
		if errors.As(err, &storErr) && storErr.Op == "decode" {
			h.logger.Warn("ignoring unreadable hash cache entry", zap.String("path", key), zap.Error(err))
			return "", nil
		}
		return "", err
	}
	if !found {
		return "", nil
	}
	return entry.MD5, nil
}

func (h *Hasher) save(key, sum string) {
	entry := storage.HashEntry{MD5: sum, CalculatedAt: h.now()}
	if err := h.cache.Update(storage.SectionFileHashes, key, entry); err != nil {
		h.logger.Warn("unable to save hashing result into the cache", zap.String("path", key), zap.Error(err))
		return
	}
	if err := h.cache.Flush(); err != nil {
		h.logger.Warn("unable to flush hashing result to the cache file", zap.String("path", key), zap.Error(err))
	}
}

// Compute streams the file at path through MD5 without caching.
func Compute(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	digest := md5.New()
	buf := make([]byte, BlockSize)
	for {
		n, err := f.Read(buf)
		digest.Write(buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}
