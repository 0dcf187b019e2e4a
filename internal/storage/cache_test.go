package storage

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func newTestCache(t *testing.T, path string) *Cache {
	t.Helper()
	return NewCache(path, WithLogger(zaptest.NewLogger(t)), WithLockTimeout(time.Second))
}

func TestCache_MissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	cache := newTestCache(t, path)

	if err := cache.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var v string
	found, err := cache.Get("test", "key", &v)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() found = true on empty cache, want false")
	}

	// Loading must not create the cache file.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("cache file exists after Load() of missing file, stat err = %v", err)
	}
}

func TestCache_DoesNotCorruptWhenShrinking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")

	cache := newTestCache(t, path)
	if err := cache.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	mustUpdate(t, cache, "test", "text1", strings.Repeat("Text 1 ", 50))
	mustUpdate(t, cache, "test", "text2", strings.Repeat("Text 2 ", 50))
	if err := cache.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	// Now shrink the cache data and re-read.
	cache = newTestCache(t, path)
	if err := cache.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	mustUpdate(t, cache, "test", "text1", strings.Repeat("Text 1 ", 10))
	mustUpdate(t, cache, "test", "text2", strings.Repeat("Text 2 ", 10))
	if err := cache.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	// Make sure it's still readable.
	cache = newTestCache(t, path)
	if err := cache.Load(); err != nil {
		t.Fatalf("Load() after shrink error = %v", err)
	}
	for key, want := range map[string]string{
		"text1": strings.Repeat("Text 1 ", 10),
		"text2": strings.Repeat("Text 2 ", 10),
	} {
		var got string
		found, err := cache.Get("test", key, &got)
		if err != nil || !found {
			t.Fatalf("Get(%q) found = %v, error = %v", key, found, err)
		}
		if got != want {
			t.Errorf("Get(%q) = %q, want %q", key, got, want)
		}
	}
}

type testVideo struct {
	VideoID     string `yaml:"video_id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type testListing struct {
	Videos []testVideo `yaml:"videos"`
}

func TestCache_StructuredValueRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")

	cache := newTestCache(t, path)
	mustUpdate(t, cache, "section", "key", testListing{Videos: []testVideo{
		{VideoID: "id1", Title: "title 1", Description: "description\nMD5: abc\n[auto uploaded]"},
		{VideoID: "id2", Title: "title 2", Description: ""},
	}})
	if err := cache.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	cache2 := newTestCache(t, path)
	var restored testListing
	found, err := cache2.Get("section", "key", &restored)
	if err != nil || !found {
		t.Fatalf("Get() found = %v, error = %v", found, err)
	}
	if len(restored.Videos) != 2 {
		t.Fatalf("restored %d videos, want 2", len(restored.Videos))
	}
	if restored.Videos[0].VideoID != "id1" || restored.Videos[0].Description != "description\nMD5: abc\n[auto uploaded]" {
		t.Errorf("restored first video = %+v", restored.Videos[0])
	}
	if restored.Videos[1].Title != "title 2" {
		t.Errorf("restored second video title = %q, want %q", restored.Videos[1].Title, "title 2")
	}
}

func TestCache_HashEntryTimestampRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	cache := newTestCache(t, path)
	mustUpdate(t, cache, SectionFileHashes, "/videos/a.mp4", HashEntry{MD5: "d41d8cd98f00b204e9800998ecf8427e", CalculatedAt: at})
	if err := cache.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var entry HashEntry
	found, err := newTestCache(t, path).Get(SectionFileHashes, "/videos/a.mp4", &entry)
	if err != nil || !found {
		t.Fatalf("Get() found = %v, error = %v", found, err)
	}
	if entry.MD5 != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Errorf("MD5 = %q", entry.MD5)
	}
	if !entry.CalculatedAt.Equal(at) {
		t.Errorf("CalculatedAt = %v, want %v", entry.CalculatedAt, at)
	}
}

func TestCache_MissVersusPresentNull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")

	cache := newTestCache(t, path)
	mustUpdate(t, cache, "section", "null-key", nil)
	mustUpdate(t, cache, "section", "empty-key", "")
	if err := cache.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	cache = newTestCache(t, path)
	tests := []struct {
		name    string
		section string
		key     string
		want    bool
	}{
		{"absent section", "other", "null-key", false},
		{"absent key", "section", "missing", false},
		{"present null", "section", "null-key", true},
		{"present empty string", "section", "empty-key", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := "untouched"
			found, err := cache.Get(tt.section, tt.key, &v)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if found != tt.want {
				t.Errorf("Get() found = %v, want %v", found, tt.want)
			}
		})
	}
}

func TestCache_UpdateOverwrites(t *testing.T) {
	cache := newTestCache(t, filepath.Join(t.TempDir(), "cache.yaml"))
	mustUpdate(t, cache, "s", "k", "first")
	mustUpdate(t, cache, "s", "k", "second")

	var got string
	if _, err := cache.Get("s", "k", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "second" {
		t.Errorf("Get() = %q, want %q", got, "second")
	}
}

func TestCache_CorruptFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"broken yaml", "test:\n  text1: \"unterminated\n  : [[\n"},
		{"scalar root", "just a string"},
		{"list root", "- a\n- b\n"},
		{"section is a scalar", "test: 42\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cache.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}

			cache := newTestCache(t, path)
			err := cache.Load()
			if !errors.Is(err, ErrStorageCorrupt) {
				t.Fatalf("Load() error = %v, want ErrStorageCorrupt", err)
			}
			if !strings.Contains(err.Error(), "consider removing it") {
				t.Errorf("error %q does not tell the user how to recover", err)
			}

			// The instance stays dead and the file stays untouched.
			if _, err := cache.Get("test", "text1", nil); !errors.Is(err, ErrStorageCorrupt) {
				t.Errorf("Get() after corrupt load error = %v, want ErrStorageCorrupt", err)
			}
			if err := cache.Flush(); !errors.Is(err, ErrStorageCorrupt) {
				t.Errorf("Flush() after corrupt load error = %v, want ErrStorageCorrupt", err)
			}
			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.content {
				t.Errorf("corrupt file was modified: %q", got)
			}
		})
	}
}

func TestCache_EmptyFileIsEmptyCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}

	cache := newTestCache(t, path)
	if err := cache.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestCache_FlushMergesOtherWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")

	first := newTestCache(t, path)
	second := newTestCache(t, path)
	if err := first.Load(); err != nil {
		t.Fatal(err)
	}
	if err := second.Load(); err != nil {
		t.Fatal(err)
	}

	mustUpdate(t, first, "s", "shared", "from first")
	mustUpdate(t, first, "s", "only-first", "1")
	if err := first.Flush(); err != nil {
		t.Fatalf("first Flush() error = %v", err)
	}

	mustUpdate(t, second, "s", "shared", "from second")
	mustUpdate(t, second, "other", "only-second", "2")
	if err := second.Flush(); err != nil {
		t.Fatalf("second Flush() error = %v", err)
	}

	reader := newTestCache(t, path)
	want := map[[2]string]string{
		{"s", "shared"}:          "from second",
		{"s", "only-first"}:      "1",
		{"other", "only-second"}: "2",
	}
	for sk, w := range want {
		var got string
		found, err := reader.Get(sk[0], sk[1], &got)
		if err != nil || !found {
			t.Fatalf("Get(%v) found = %v, error = %v", sk, found, err)
		}
		if got != w {
			t.Errorf("Get(%v) = %q, want %q", sk, got, w)
		}
	}
}

func TestCache_FlushWithoutLoadIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	if err := newTestCache(t, path).Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Flush() without load created the file, stat err = %v", err)
	}
}

func TestCache_FileIsHumanReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	cache := newTestCache(t, path)
	mustUpdate(t, cache, SectionFileHashes, "/videos/a.mp4", HashEntry{MD5: "abc123"})
	if err := cache.Flush(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"file-hashes-v1:", "/videos/a.mp4:", "md5: abc123"} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("cache file missing %q:\n%s", want, raw)
		}
	}
}

func TestCache_LockTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")

	holder := NewFileLock(path)
	if err := holder.Lock(time.Second); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	defer holder.Unlock()

	cache := NewCache(path, WithLockTimeout(50*time.Millisecond))
	err := cache.Load()
	if !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("Load() error = %v, want ErrLockTimeout", err)
	}
	var storErr *StorageError
	if !errors.As(err, &storErr) || !strings.Contains(storErr.ID, path) {
		t.Errorf("lock timeout error %v does not name the path", err)
	}

	// A lock timeout is not latched: once the holder is gone, loading works.
	holder.Unlock()
	if err := cache.Load(); err != nil {
		t.Errorf("Load() after unlock error = %v", err)
	}
}

func TestCache_FlushLockTimeout(t *testing.T) {
	tests := []struct {
		name    string
		acquire func(*FileLock) error
	}{
		{"exclusive holder", func(l *FileLock) error { return l.Lock(time.Second) }},
		{"shared holder", func(l *FileLock) error { return l.RLock(time.Second) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cache.yaml")

			cache := NewCache(path, WithLockTimeout(50*time.Millisecond))
			mustUpdate(t, cache, "s", "k", "v")

			holder := NewFileLock(path)
			if err := tt.acquire(holder); err != nil {
				t.Fatalf("acquire error = %v", err)
			}
			defer holder.Unlock()

			err := cache.Flush()
			if !errors.Is(err, ErrLockTimeout) {
				t.Fatalf("Flush() error = %v, want ErrLockTimeout", err)
			}
			var storErr *StorageError
			if !errors.As(err, &storErr) || !strings.Contains(storErr.ID, path) {
				t.Errorf("lock timeout error %v does not name the path", err)
			}
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Errorf("Flush() wrote the file without the lock, stat err = %v", err)
			}

			// The pending update survives and is written once the holder is gone.
			holder.Unlock()
			if err := cache.Flush(); err != nil {
				t.Fatalf("Flush() after unlock error = %v", err)
			}
			var got string
			if found, err := newTestCache(t, path).Get("s", "k", &got); err != nil || !found || got != "v" {
				t.Errorf("Get() = %q, found = %v, error = %v", got, found, err)
			}
		})
	}
}

func TestCache_Sections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	cache := newTestCache(t, path)

	names, err := cache.Sections()
	if err != nil {
		t.Fatalf("Sections() error = %v", err)
	}
	if len(names) != 0 {
		t.Errorf("Sections() on empty cache = %v, want none", names)
	}

	mustUpdate(t, cache, "zeta", "k", "1")
	mustUpdate(t, cache, "alpha", "k", "1")
	mustUpdate(t, cache, "alpha", "other", "2")
	mustUpdate(t, cache, "mid", "k", "1")

	names, err = cache.Sections()
	if err != nil {
		t.Fatalf("Sections() error = %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("Sections() = %v, want %v", names, want)
	}

	// Sections written by another process show up after a reload.
	if err := cache.Flush(); err != nil {
		t.Fatal(err)
	}
	names, err = newTestCache(t, path).Sections()
	if err != nil {
		t.Fatalf("Sections() after reload error = %v", err)
	}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("Sections() after reload = %v, want %v", names, want)
	}
}

func TestCache_SectionsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	if err := os.WriteFile(path, []byte("- not\n- a map\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := newTestCache(t, path).Sections(); !errors.Is(err, ErrStorageCorrupt) {
		t.Errorf("Sections() error = %v, want ErrStorageCorrupt", err)
	}
}

func TestCache_FlushReplacesLongerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	long := newTestCache(t, path)
	mustUpdate(t, long, "s", "k", strings.Repeat("x", 4096))
	if err := long.Flush(); err != nil {
		t.Fatal(err)
	}

	// Another writer shrinks the file out from under the first cache's view.
	short := newTestCache(t, path)
	mustUpdate(t, short, "s", "k", "y")
	if err := short.Flush(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "xxx") {
		t.Errorf("stale bytes left after a shorter flush:\n%s", raw)
	}
	var got string
	if _, err := newTestCache(t, path).Get("s", "k", &got); err != nil || got != "y" {
		t.Errorf("Get() = %q, error = %v, want %q", got, err, "y")
	}
}

func TestCache_FlushCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "cache.yaml")
	cache := newTestCache(t, path)
	mustUpdate(t, cache, "s", "k", "v")

	if err := cache.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("cache file not created: %v", err)
	}
}

func TestCache_FlushLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.yaml")
	cache := newTestCache(t, path)
	for i := 0; i < 3; i++ {
		mustUpdate(t, cache, "s", "k", strings.Repeat("v", i+1))
		if err := cache.Flush(); err != nil {
			t.Fatalf("Flush() #%d error = %v", i, err)
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, ".ytupload-*.tmp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestCache_FlushKeepsFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	path := filepath.Join(t.TempDir(), "cache.yaml")
	if err := os.WriteFile(path, []byte("s:\n  k: old\n"), 0640); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, 0640); err != nil {
		t.Fatal(err)
	}

	cache := newTestCache(t, path)
	mustUpdate(t, cache, "s", "k", "new")
	if err := cache.Flush(); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0640 {
		t.Errorf("mode after Flush() = %v, want %v", info.Mode().Perm(), os.FileMode(0640))
	}
}

func mustUpdate(t *testing.T, cache *Cache, section, key string, value any) {
	t.Helper()
	if err := cache.Update(section, key, value); err != nil {
		t.Fatalf("Update(%q, %q) error = %v", section, key, err)
	}
}
