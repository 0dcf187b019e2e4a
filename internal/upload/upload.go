// Package upload drives a resumable, chunked transfer to completion.
//
// The Driver owns only the retry counter. Byte offsets belong to the
// ChunkTransfer, which is expected to resume from whatever the server has
// already committed when it is asked for the next chunk after a failure.
package upload

import (
	"context"
	"errors"
	"fmt"
)

// Response is the final reply of a completed transfer.
type Response struct {
	// ID identifies the created remote item. Empty means the server answered
	// with a shape the driver does not understand.
	ID string
	// Body is the raw final response, kept for diagnostics.
	Body []byte
}

// ChunkTransfer is a single in-flight resumable transfer.
//
// NextChunk sends the next chunk. It returns (nil, nil) while more chunks
// remain and a non-nil Response once the server has the whole payload.
type ChunkTransfer interface {
	NextChunk(ctx context.Context) (*Response, error)
}

var (
	// ErrFatalTransfer marks a transfer that ended without a usable result.
	ErrFatalTransfer = errors.New("upload failed")

	// ErrRetryCeilingExceeded is returned once the retry budget is spent.
	ErrRetryCeilingExceeded = errors.New("no longer attempting to retry")

	// ErrUnexpectedResponse is a final response carrying no item identifier.
	ErrUnexpectedResponse = errors.New("the upload failed with an unexpected response")
)

// StatusError is an HTTP status the transfer did not expect.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected HTTP status %d", e.Code)
	}
	return fmt.Sprintf("unexpected HTTP status %d: %s", e.Code, e.Body)
}

// FatalTransferError is returned when a chunk failed with an error that must
// not be retried.
type FatalTransferError struct {
	Err error
}

func (e *FatalTransferError) Error() string {
	return fmt.Sprintf("%v: %v", ErrFatalTransfer, e.Err)
}

func (e *FatalTransferError) Unwrap() []error {
	return []error{ErrFatalTransfer, e.Err}
}

// RetryCeilingError is returned when the transfer kept failing with retriable
// errors past the configured retry count.
type RetryCeilingError struct {
	Retries int
	Last    error
}

func (e *RetryCeilingError) Error() string {
	return fmt.Sprintf("%v after %d retries: %v", ErrRetryCeilingExceeded, e.Retries, e.Last)
}

func (e *RetryCeilingError) Unwrap() []error {
	return []error{ErrRetryCeilingExceeded, ErrFatalTransfer, e.Last}
}
