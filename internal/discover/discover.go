// Package discover finds local video files eligible for upload.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"ytupload/internal/logging"
)

// Extensions are the video file extensions picked up, compared case-insensitively.
var Extensions = []string{".mp4", ".mov"}

// File is a discovered video file.
type File struct {
	// Path is absolute.
	Path       string
	Size       int64
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// IsVideo reports whether name has one of Extensions.
func IsVideo(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Option configures Find.
type Option func(*finder)

type finder struct {
	logger *zap.Logger
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *finder) { f.logger = logging.OrNop(logger) }
}

// Find walks dir recursively and returns the video files created at or after
// cutoff, oldest modification first. A zero cutoff keeps every file.
//
// Creation time is the inode change time on Linux and macOS, the creation
// time on Windows and the modification time elsewhere.
func Find(dir string, cutoff time.Time, opts ...Option) ([]File, error) {
	f := &finder{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	f.logger.Info("discovering videos", zap.String("dir", root))

	var files []File
	discovered := 0
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			f.logger.Debug("walking", zap.String("dir", path))
			return nil
		}
		if !d.Type().IsRegular() || !IsVideo(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		file := File{
			Path:       path,
			Size:       info.Size(),
			CreatedAt:  creationTime(info),
			ModifiedAt: info.ModTime(),
		}
		discovered++
		f.logger.Debug("looking at file",
			zap.String("path", path),
			zap.Time("created_at", file.CreatedAt))

		if !cutoff.IsZero() && file.CreatedAt.Before(cutoff) {
			return nil
		}
		files = append(files, file)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	if !cutoff.IsZero() {
		f.logger.Info("applied creation cut-off",
			zap.Time("cutoff", cutoff),
			zap.Int("discovered", discovered),
			zap.Int("kept", len(files)))
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].ModifiedAt.Equal(files[j].ModifiedAt) {
			return files[i].Path < files[j].Path
		}
		return files[i].ModifiedAt.Before(files[j].ModifiedAt)
	})
	return files, nil
}

// Stat builds a File for a single path, for callers that bypass the walk.
func Stat(path string) (File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return File{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return File{}, err
	}
	return File{
		Path:       abs,
		Size:       info.Size(),
		CreatedAt:  creationTime(info),
		ModifiedAt: info.ModTime(),
	}, nil
}
