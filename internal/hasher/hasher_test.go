package hasher

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"ytupload/internal/storage"
)

// countingStore wraps a Cache and counts calls, optionally failing writes.
type countingStore struct {
	*storage.Cache
	gets, updates, flushes int
	updateErr, flushErr    error
}

func (s *countingStore) Get(section, key string, out any) (bool, error) {
	s.gets++
	return s.Cache.Get(section, key, out)
}

func (s *countingStore) Update(section, key string, value any) error {
	s.updates++
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.Cache.Update(section, key, value)
}

func (s *countingStore) Flush() error {
	s.flushes++
	if s.flushErr != nil {
		return s.flushErr
	}
	return s.Cache.Flush()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompute(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"empty", "", "d41d8cd98f00b204e9800998ecf8427e"},
		{"hello", "hello world", "5eb63bbbe01eeed093cb22bb8f5acdc3"},
		{"spans blocks", strings.Repeat("a", BlockSize*2+17), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name+".mp4", tt.content)
			got, err := Compute(path)
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if len(got) != 32 {
				t.Errorf("Compute() = %q, want 32 hex chars", got)
			}
			if tt.want != "" && got != tt.want {
				t.Errorf("Compute() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompute_MissingFile(t *testing.T) {
	if _, err := Compute(filepath.Join(t.TempDir(), "nope.mp4")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Compute() error = %v, want os.ErrNotExist", err)
	}
}

func TestHasher_SecondCallIsCacheHit(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "video.mp4", "hello world")
	store := &countingStore{Cache: storage.NewCache(filepath.Join(dir, "cache.yaml"))}
	h := New(store, WithLogger(zaptest.NewLogger(t)))

	first, err := h.MD5(path)
	if err != nil {
		t.Fatalf("MD5() error = %v", err)
	}
	if store.updates != 1 || store.flushes != 1 {
		t.Errorf("after first call updates = %d, flushes = %d, want 1 and 1", store.updates, store.flushes)
	}

	// Remove the file: a cache hit must not touch it.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	second, err := h.MD5(path)
	if err != nil {
		t.Fatalf("MD5() second call error = %v", err)
	}
	if first != second {
		t.Errorf("MD5() = %q then %q, want identical", first, second)
	}
	if store.updates != 1 {
		t.Errorf("second call computed again, updates = %d", store.updates)
	}
}

func TestHasher_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "video.mp4", "hello world")
	cachePath := filepath.Join(dir, "cache.yaml")

	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	h := New(storage.NewCache(cachePath))
	h.now = func() time.Time { return fixed }
	if _, err := h.MD5(path); err != nil {
		t.Fatal(err)
	}

	abs, _ := filepath.Abs(path)
	var entry storage.HashEntry
	found, err := storage.NewCache(cachePath).Get(storage.SectionFileHashes, abs, &entry)
	if err != nil || !found {
		t.Fatalf("Get() found = %v, error = %v", found, err)
	}
	if entry.MD5 != "5eb63bbbe01eeed093cb22bb8f5acdc3" || !entry.CalculatedAt.Equal(fixed) {
		t.Errorf("entry = %+v", entry)
	}
}

func TestHasher_StaleEntryIsTrusted(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "video.mp4", "original")
	h := New(storage.NewCache(filepath.Join(dir, "cache.yaml")))

	first, err := h.MD5(path)
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "video.mp4", "rewritten in place")

	second, err := h.MD5(path)
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Errorf("MD5() after rewrite = %q, want the cached %q", second, first)
	}
}

func TestHasher_PersistFailureIsIgnored(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "video.mp4", "hello world")

	tests := []struct {
		name  string
		store *countingStore
	}{
		{"update fails", &countingStore{updateErr: errors.New("disk full")}},
		{"flush fails", &countingStore{flushErr: errors.New("disk full")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.store.Cache = storage.NewCache(filepath.Join(t.TempDir(), "cache.yaml"))
			got, err := New(tt.store, WithLogger(zaptest.NewLogger(t))).MD5(path)
			if err != nil {
				t.Fatalf("MD5() error = %v, want persistence failure swallowed", err)
			}
			if got != "5eb63bbbe01eeed093cb22bb8f5acdc3" {
				t.Errorf("MD5() = %q", got)
			}
		})
	}
}

func TestHasher_CorruptCacheIsReturned(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "video.mp4", "hello world")
	cachePath := writeFile(t, dir, "cache.yaml", "- not\n- a mapping\n")

	_, err := New(storage.NewCache(cachePath)).MD5(path)
	if !errors.Is(err, storage.ErrStorageCorrupt) {
		t.Errorf("MD5() error = %v, want ErrStorageCorrupt", err)
	}
}

func TestHasher_UnreadableEntryIsRecomputed(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "video.mp4", "hello world")
	abs, _ := filepath.Abs(path)

	cache := storage.NewCache(filepath.Join(dir, "cache.yaml"))
	if err := cache.Update(storage.SectionFileHashes, abs, []string{"not", "an", "entry"}); err != nil {
		t.Fatal(err)
	}

	got, err := New(cache, WithLogger(zaptest.NewLogger(t))).MD5(path)
	if err != nil {
		t.Fatalf("MD5() error = %v", err)
	}
	if got != "5eb63bbbe01eeed093cb22bb8f5acdc3" {
		t.Errorf("MD5() = %q", got)
	}
}
