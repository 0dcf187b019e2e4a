// Package ytupload uploads local video files to a YouTube playlist and skips
// files that were uploaded before.
//
// Overview
//
// An upload run:
//
//   - lists every playlist of the authorised user and their items, reusing a
//     cached listing while the playlist etag is unchanged
//   - picks the first playlist whose title contains the target name
//   - walks a directory for .mp4 and .mov files, oldest first
//   - computes the MD5 of each file, cached across runs by path
//   - skips files whose MD5 already appears in a video description
//   - uploads the rest through the resumable upload protocol and adds them
//     to the target playlist
//
// Uploaded descriptions carry the file name, directory, timestamps, size and
// MD5, followed by the "[auto uploaded]" marker. The MD5 line is what later
// runs match on.
//
// Quick Start
//
//	ytupload upload --dir ~/Videos --playlist "Family 2023"
//
// The first run prints a consent URL; the resulting token is stored in the
// credentials file and refreshed as needed.
//
// Configuration
//
// Settings are loaded from several sources:
//
//  1. Environment variables, including a .env file (highest priority)
//  2. Config file (ytupload.yaml or ~/.config/ytupload/ytupload.yaml)
//  3. Default values (lowest priority)
//
// Environment variables:
//
//   - YTUPLOAD_CACHE_PATH: Local cache file (cache.yaml)
//   - YTUPLOAD_CLIENT_SECRETS: OAuth client secrets (client_secrets.json)
//   - YTUPLOAD_CREDENTIALS: Stored token (credentials.json)
//   - YTUPLOAD_LOCK_TIMEOUT: Cache lock timeout (30s)
//   - YTUPLOAD_MAX_RETRIES: Upload retry ceiling (10)
//   - YTUPLOAD_BACKOFF_BASE: Backoff unit (1s)
//   - YTUPLOAD_CHUNK_SIZE: Upload chunk size, a multiple of 256 KiB (8 MiB)
//   - YTUPLOAD_PRIVACY: private, unlisted or public (unlisted)
//   - YTUPLOAD_API_RPS: Data API requests per second (5)
//   - YTUPLOAD_LISTING_CONCURRENCY: Concurrent playlist listings (4)
//   - YTUPLOAD_LOG_LEVEL, YTUPLOAD_LOG_FORMAT, YTUPLOAD_LOG_FILE
//   - YTUPLOAD_METRICS_FILE: Prometheus textfile written at exit
//
// Cache
//
// The cache is a YAML document of sections, each mapping keys to entries.
// Several processes may share it: reads take a shared lock on a sidecar
// ".lock" file, writes an exclusive one, and every flush merges the on-disk
// state before replacing the file atomically. A cache file that cannot be
// parsed is reported and left untouched.
//
// Error Handling
//
// Checking for sentinel errors:
//
//	if errors.Is(err, ytupload.ErrRetryCeilingExceeded) {
//		fmt.Println("gave up after repeated server errors")
//	}
//
// Extracting error details:
//
//	var attachErr *ytupload.AttachError
//	if errors.As(err, &attachErr) {
//		fmt.Printf("video %s was uploaded but not added to the playlist\n", attachErr.VideoID)
//	}
//
// Packages
//
//   - internal/storage: Locked, merged YAML cache
//   - internal/hasher: Cached MD5 digests
//   - internal/listing: Etag-keyed playlist listing cache
//   - internal/dedup: Description format and digest matching
//   - internal/upload: Resumable upload driver with full-jitter backoff
//   - internal/youtube: Data API client, resumable sessions, OAuth2
//   - internal/uploader: The upload run
package ytupload
