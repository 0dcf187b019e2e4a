package ytupload

import (
	"ytupload/internal/retry"
	"ytupload/internal/storage"
	"ytupload/internal/upload"
	"ytupload/internal/uploader"
	"ytupload/internal/youtube"
)

// Error handling types exported for library users.
//
// All error types support errors.Is and errors.As. A failed upload matches
// ErrFatalTransfer; one that ran out of retries also matches
// ErrRetryCeilingExceeded:
//
//	var ceiling *ytupload.RetryCeilingError
//	if errors.As(err, &ceiling) {
//		fmt.Printf("gave up after %d retries: %v\n", ceiling.Retries, ceiling.Last)
//	}

// Type aliases for convenient error handling.
type (
	// StorageError wraps errors during cache operations.
	StorageError = storage.StorageError
	// FatalTransferError ends an upload without a video.
	FatalTransferError = upload.FatalTransferError
	// RetryCeilingError is returned when an upload exhausted its retries.
	RetryCeilingError = upload.RetryCeilingError
	// StatusError is an unexpected HTTP status during an upload.
	StatusError = upload.StatusError
	// AttachError means a video was uploaded but not added to the playlist.
	AttachError = uploader.AttachError
	// APIError wraps a failed Data API call.
	APIError = youtube.APIError
	// RetryableError wraps an API error that persisted through retries.
	RetryableError = retry.RetryableError
)

// Sentinel errors exported from sub-packages.
var (
	// Cache errors
	// ErrStorageCorrupt indicates the cache file cannot be parsed.
	ErrStorageCorrupt = storage.ErrStorageCorrupt
	// ErrLockTimeout indicates a timeout acquiring the cache lock.
	ErrLockTimeout = storage.ErrLockTimeout
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = storage.ErrInvalidInput

	// Upload errors
	ErrFatalTransfer        = upload.ErrFatalTransfer
	ErrRetryCeilingExceeded = upload.ErrRetryCeilingExceeded
	ErrUnexpectedResponse   = upload.ErrUnexpectedResponse

	// Run errors
	ErrPlaylistNotFound = uploader.ErrPlaylistNotFound
	ErrRemoteNotLoaded  = uploader.ErrRemoteNotLoaded

	// API errors
	ErrNoCredentials  = youtube.ErrNoCredentials
	ErrAuthorization  = youtube.ErrAuthorization
	ErrNotFound       = youtube.ErrNotFound
	ErrInvalidRequest = youtube.ErrInvalidRequest
)

// IsCorrupt reports whether err was caused by an unreadable cache file.
func IsCorrupt(err error) bool {
	return storage.IsCorrupt(err)
}

// IsRateLimited reports whether err is a Data API rate limit response.
func IsRateLimited(err error) bool {
	return youtube.IsRateLimited(err)
}

// IsQuotaExceeded reports whether err is the daily Data API quota running out.
func IsQuotaExceeded(err error) bool {
	return youtube.IsQuotaExceeded(err)
}
