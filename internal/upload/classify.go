package upload

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"

	"google.golang.org/api/googleapi"

	"ytupload/internal/retry"
)

// RetriableStatus reports whether an HTTP status is a transient server failure.
func RetriableStatus(code int) bool {
	switch code {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Classify sorts a chunk failure into retriable server hiccups and transport
// drops, and fatal everything else.
func Classify(err error) retry.Outcome {
	if err == nil {
		return retry.Stop(nil)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Stop(err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if RetriableStatus(apiErr.Code) {
			return retry.Retry(err)
		}
		return retry.Stop(err)
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if RetriableStatus(statusErr.Code) {
			return retry.Retry(err)
		}
		return retry.Stop(err)
	}

	switch {
	case errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF),
		errors.Is(err, net.ErrClosed):
		return retry.Retry(err)
	}

	// *url.Error implements net.Error, so client-side timeouts land here too.
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return retry.Retry(err)
	}

	return retry.Stop(err)
}
