package youtube

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"ytupload/internal/metrics"
	"ytupload/internal/upload"
)

// statusResumeIncomplete is the "more data expected" reply of the resumable
// upload protocol.
const statusResumeIncomplete = 308

// maxBodyBytes caps how much of a response body is read for diagnostics or
// for the final video resource.
const maxBodyBytes = 1 << 20

// ResumableSession uploads one file through the resumable upload protocol and
// implements upload.ChunkTransfer.
//
// The session URI is requested on the first NextChunk. After any failed
// chunk the next call first asks the server how many bytes it committed and
// resumes from there, so retried chunks never resend acknowledged data.
type ResumableSession struct {
	client    *http.Client
	initURL   string
	metadata  []byte
	path      string
	size      int64
	chunkSize int64
	throttle  *Throttle
	logger    *zap.Logger
	metrics   *metrics.Metrics

	sessionURI string
	offset     int64
	stale      bool
}

var _ upload.ChunkTransfer = (*ResumableSession)(nil)

// Offset returns the number of bytes the server has acknowledged.
func (s *ResumableSession) Offset() int64 {
	return s.offset
}

// NextChunk sends the next chunk of the file.
func (s *ResumableSession) NextChunk(ctx context.Context) (*upload.Response, error) {
	if s.sessionURI == "" {
		if err := s.initiate(ctx); err != nil {
			return nil, err
		}
	}
	if s.stale {
		resp, err := s.syncOffset(ctx)
		if err != nil || resp != nil {
			return resp, err
		}
		if s.sessionURI == "" {
			// The session expired; a new one is started on the next call.
			return nil, nil
		}
	}
	return s.sendChunk(ctx)
}

func (s *ResumableSession) initiate(ctx context.Context) error {
	if err := s.throttle.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.initURL, bytes.NewReader(s.metadata))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(s.size, 10))
	req.Header.Set("X-Upload-Content-Type", contentType(s.path))

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	location := resp.Header.Get("Location")
	if location == "" {
		return fmt.Errorf("%w: no session URI in Location header", upload.ErrUnexpectedResponse)
	}

	s.sessionURI = location
	s.offset = 0
	s.stale = false
	s.logger.Debug("resumable upload session started", zap.Int64("size", s.size))
	return nil
}

// syncOffset asks the server for the committed byte range.
func (s *ResumableSession) syncOffset(ctx context.Context) (*upload.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.sessionURI, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Range", fmt.Sprintf("bytes */%d", s.size))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case statusResumeIncomplete:
		s.offset = committedOffset(resp.Header.Get("Range"))
		s.stale = false
		s.logger.Info("resuming upload", zap.Int64("offset", s.offset))
		return nil, nil
	case http.StatusOK, http.StatusCreated:
		s.stale = false
		return s.final(resp)
	case http.StatusNotFound, http.StatusGone:
		s.logger.Warn("upload session expired, starting over")
		s.sessionURI = ""
		s.offset = 0
		s.stale = false
		return nil, nil
	default:
		return nil, statusError(resp)
	}
}

func (s *ResumableSession) sendChunk(ctx context.Context) (*upload.Response, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n := s.size - s.offset
	if s.chunkSize > 0 && n > s.chunkSize {
		n = s.chunkSize
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.sessionURI, io.NewSectionReader(f, s.offset, n))
	if err != nil {
		return nil, err
	}
	req.ContentLength = n
	if n == 0 {
		req.Body = http.NoBody
		req.Header.Set("Content-Range", fmt.Sprintf("bytes */%d", s.size))
	} else {
		req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", s.offset, s.offset+n-1, s.size))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.stale = true
		return nil, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case statusResumeIncomplete:
		prev := s.offset
		s.offset = committedOffset(resp.Header.Get("Range"))
		s.metrics.RecordBytes(s.offset - prev)
		s.logger.Debug("chunk accepted",
			zap.Int64("offset", s.offset),
			zap.Int64("size", s.size))
		return nil, nil
	case http.StatusOK, http.StatusCreated:
		s.metrics.RecordBytes(s.size - s.offset)
		s.offset = s.size
		return s.final(resp)
	default:
		s.stale = true
		return nil, statusError(resp)
	}
}

func (s *ResumableSession) final(resp *http.Response) (*upload.Response, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		s.stale = true
		return nil, err
	}
	return &upload.Response{
		ID:   gjson.GetBytes(body, "id").String(),
		Body: body,
	}, nil
}

// committedOffset parses a "bytes=0-N" Range header into the next offset.
// A missing header means nothing was stored yet.
func committedOffset(header string) int64 {
	_, last, ok := strings.Cut(strings.TrimPrefix(header, "bytes="), "-")
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return 0
	}
	return n + 1
}

func contentType(path string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); strings.HasPrefix(t, "video/") {
		return t
	}
	return "video/*"
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &upload.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	resp.Body.Close()
}
