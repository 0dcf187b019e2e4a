// Package dedup recognises local files that were already uploaded by looking
// for their content digest in remote video descriptions.
package dedup

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"ytupload/internal/youtube"
)

// Marker tags descriptions written by this tool.
const Marker = "[auto uploaded]"

// timestampLayout matches the description timestamps, local time, no zone.
const timestampLayout = "2006-01-02T15:04:05"

var md5Token = regexp.MustCompile(`(?i)MD5:\s*([0-9a-f]{32})\b`)

// FindMatch returns the first video whose description carries the marker and
// an "MD5: <hex>" token equal to localHash, ignoring case. Earlier videos win,
// so callers must keep the listing order stable.
func FindMatch(localHash string, videos []youtube.Video) (youtube.Video, bool) {
	if localHash == "" {
		return youtube.Video{}, false
	}
	for _, v := range videos {
		if Matches(localHash, v.Description) {
			return v, true
		}
	}
	return youtube.Video{}, false
}

// Matches reports whether description identifies an auto-uploaded copy of
// content with digest localHash.
func Matches(localHash, description string) bool {
	if !strings.Contains(description, Marker) {
		return false
	}
	for _, m := range md5Token.FindAllStringSubmatch(description, -1) {
		if strings.EqualFold(m[1], localHash) {
			return true
		}
	}
	return false
}

// FileInfo is what Describe needs to know about a local file.
type FileInfo struct {
	Path       string
	CreatedAt  time.Time
	ModifiedAt time.Time
	Size       int64
	MD5        string
}

// Describe renders the description block attached to uploaded videos. The
// MD5 line and the trailing marker are what FindMatch looks for later.
func Describe(f FileInfo) string {
	dir, name := filepath.Split(f.Path)
	dir = filepath.Clean(dir)

	var b strings.Builder
	fmt.Fprintf(&b, "File name: %s\n", name)
	fmt.Fprintf(&b, "Dir: %s\n", dir)
	fmt.Fprintf(&b, "Created at: %s\n", f.CreatedAt.Format(timestampLayout))
	fmt.Fprintf(&b, "Modified at: %s\n", f.ModifiedAt.Format(timestampLayout))
	fmt.Fprintf(&b, "Size: %.2f MiB\n", float64(f.Size)/(1024*1024))
	fmt.Fprintf(&b, "MD5: %s\n", f.MD5)
	b.WriteString(Marker)
	return b.String()
}

// Title is the base name of path without its extension, NFC-normalised so
// decomposed names from macOS file systems come out composed.
func Title(path string) string {
	base := filepath.Base(path)
	return norm.NFC.String(strings.TrimSuffix(base, filepath.Ext(base)))
}
