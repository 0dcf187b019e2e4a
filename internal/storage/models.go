package storage

import "time"

// Well-known cache sections.
const (
	// SectionFileHashes holds HashEntry values keyed by absolute file path.
	SectionFileHashes = "file-hashes-v1"
	// SectionPlaylists holds ListingEntry values keyed by playlist ID.
	SectionPlaylists = "playlists"
)

// HashEntry is a memoized content digest of a local file.
// It is never checked against the file's current mtime or size.
type HashEntry struct {
	// MD5 is the lowercase hex MD5 digest of the file contents.
	MD5 string `yaml:"md5"`
	// CalculatedAt is when the digest was computed.
	CalculatedAt time.Time `yaml:"calculated_at"`
}

// ListingEntry is a memoized remote listing tagged with the etag and data
// version it was fetched under. T is the listing payload type.
type ListingEntry[T any] struct {
	// Data is the cached listing.
	Data T `yaml:"data"`
	// Version is the data contract version the entry was written with.
	Version string `yaml:"version"`
	// ETag is the remote freshness token at fetch time.
	ETag string `yaml:"etag"`
}
