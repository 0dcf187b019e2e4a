package youtube

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
	"google.golang.org/api/googleapi"

	"ytupload/internal/upload"
)

// Sentinel errors for Data API operations.
var (
	ErrNoCredentials  = errors.New("youtube: no stored credentials")
	ErrAuthorization  = errors.New("youtube: authorization failed")
	ErrNotFound       = errors.New("youtube: not found")
	ErrInvalidRequest = errors.New("youtube: invalid request")
)

// APIError wraps a failed Data API call with the operation that issued it.
type APIError struct {
	Op  string // "playlists.list", "playlistItems.insert", ...
	ID  string
	Err error
}

func (e *APIError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("youtube: %s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("youtube: %s: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// rateLimitReasons are googleapi error reasons that clear up by slowing down.
// quotaExceeded is not one of them: the daily quota does not recover
// within a run.
const quotaExceeded = "quotaExceeded"

var rateLimitReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

// IsRateLimited reports whether err is the API asking the client to slow down.
func IsRateLimited(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	if apiErr.Code != http.StatusForbidden {
		return false
	}
	for _, item := range apiErr.Errors {
		if rateLimitReasons[item.Reason] {
			return true
		}
	}
	return false
}

// IsQuotaExceeded reports whether err is the daily quota running out. Upload
// sessions report it as an *upload.StatusError carrying the JSON error body.
func IsQuotaExceeded(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		for _, item := range apiErr.Errors {
			if item.Reason == quotaExceeded {
				return true
			}
		}
		return false
	}
	var statusErr *upload.StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusForbidden {
		for _, reason := range gjson.Get(statusErr.Body, "error.errors.#.reason").Array() {
			if reason.String() == quotaExceeded {
				return true
			}
		}
	}
	return false
}
