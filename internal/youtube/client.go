// Package youtube talks to the YouTube Data API v3 on behalf of the
// authorised user: listing playlists and their items, inserting videos
// through resumable upload sessions and adding them to playlists.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"ytupload/internal/logging"
	"ytupload/internal/metrics"
	"ytupload/internal/retry"
	"ytupload/internal/upload"
)

const (
	playlistsPageSize     = 25
	playlistItemsPageSize = 50

	// DefaultChunkSize is the resumable upload chunk size. Chunks must be a
	// multiple of ChunkAlignment, except the last one.
	DefaultChunkSize = 8 * 1024 * 1024
	// ChunkAlignment is the granularity the upload endpoint requires.
	ChunkAlignment = 256 * 1024

	defaultUploadURL = "https://www.googleapis.com/upload/youtube/v3/videos"
)

// Client is a YouTube Data API client. All calls are paced by a Throttle;
// idempotent reads are retried with retry.Do.
type Client struct {
	service   *yt.Service
	http      *http.Client
	endpoint  string
	uploadURL string
	throttle  *Throttle
	retry     retry.Config
	chunkSize int64
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNop(logger) }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithRateLimit sets the Data API request rate. Zero disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.throttle = NewThrottle(rps) }
}

// WithRetryConfig sets the retry policy for read calls.
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithChunkSize sets the upload chunk size. Zero or less sends each file in
// a single request.
func WithChunkSize(n int64) Option {
	return func(c *Client) { c.chunkSize = n }
}

// WithEndpoint points the client at a different API root, e.g. a test
// server. Uploads go to <endpoint>upload/youtube/v3/videos.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		c.endpoint = endpoint
		c.uploadURL = endpoint + "upload/youtube/v3/videos"
	}
}

// NewClient creates a client that sends requests through httpClient, which
// is expected to carry OAuth2 credentials (see Authorize).
func NewClient(ctx context.Context, httpClient *http.Client, opts ...Option) (*Client, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("%w: http client required", ErrInvalidRequest)
	}

	c := &Client{
		http:      httpClient,
		uploadURL: defaultUploadURL,
		throttle:  NewThrottle(DefaultRPS),
		retry:     retry.DefaultConfig(),
		chunkSize: DefaultChunkSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	svcOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.endpoint != "" {
		svcOpts = append(svcOpts, option.WithEndpoint(c.endpoint))
	}
	service, err := yt.NewService(ctx, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	c.service = service
	return c, nil
}

// ListPlaylists returns all playlists of the authorised user, in API order.
func (c *Client) ListPlaylists(ctx context.Context) ([]Playlist, error) {
	var playlists []Playlist
	pageToken := ""
	for {
		var resp *yt.PlaylistListResponse
		err := c.read(ctx, func(ctx context.Context) error {
			var err error
			resp, err = c.service.Playlists.List([]string{"snippet", "contentDetails"}).
				Mine(true).
				MaxResults(playlistsPageSize).
				PageToken(pageToken).
				Context(ctx).
				Do()
			return err
		})
		if err != nil {
			return nil, &APIError{Op: "playlists.list", Err: err}
		}

		for _, item := range resp.Items {
			p := Playlist{ID: item.Id, ETag: item.Etag}
			if item.Snippet != nil {
				p.Title = item.Snippet.Title
				p.Description = item.Snippet.Description
			}
			if item.ContentDetails != nil {
				p.ItemCount = item.ContentDetails.ItemCount
			}
			playlists = append(playlists, p)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	c.logger.Debug("listed playlists", zap.Int("count", len(playlists)))
	return playlists, nil
}

// PlaylistETag returns the current etag of a single playlist lookup. It is
// cheap compared to listing the playlist items and changes when they do.
func (c *Client) PlaylistETag(ctx context.Context, playlistID string) (string, error) {
	var resp *yt.PlaylistListResponse
	err := c.read(ctx, func(ctx context.Context) error {
		var err error
		resp, err = c.service.Playlists.List([]string{"snippet"}).
			Id(playlistID).
			MaxResults(playlistsPageSize).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return "", &APIError{Op: "playlists.list", ID: playlistID, Err: err}
	}
	if len(resp.Items) == 0 {
		return "", &APIError{Op: "playlists.list", ID: playlistID, Err: ErrNotFound}
	}
	return resp.Etag, nil
}

// ListPlaylistItems returns every video of a playlist, following pagination.
func (c *Client) ListPlaylistItems(ctx context.Context, playlistID string) (*PlaylistItems, error) {
	items := &PlaylistItems{}
	pageToken := ""
	for {
		var resp *yt.PlaylistItemListResponse
		err := c.read(ctx, func(ctx context.Context) error {
			var err error
			resp, err = c.service.PlaylistItems.List([]string{"snippet", "contentDetails"}).
				PlaylistId(playlistID).
				MaxResults(playlistItemsPageSize).
				PageToken(pageToken).
				Context(ctx).
				Do()
			return err
		})
		if err != nil {
			return nil, &APIError{Op: "playlistItems.list", ID: playlistID, Err: err}
		}

		for _, item := range resp.Items {
			items.Videos = append(items.Videos, videoFromItem(item))
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	c.logger.Debug("listed playlist items",
		zap.String("playlist_id", playlistID),
		zap.Int("count", len(items.Videos)))
	return items, nil
}

func videoFromItem(item *yt.PlaylistItem) Video {
	var v Video
	if item.Snippet != nil {
		v.Title = item.Snippet.Title
		v.Description = item.Snippet.Description
		if item.Snippet.ResourceId != nil {
			v.ID = item.Snippet.ResourceId.VideoId
		}
	}
	if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
		v.ID = item.ContentDetails.VideoId
	}
	if v.ID == "" {
		v.ID = item.Id
	}
	return v
}

// AddToPlaylist appends a video to a playlist. The call is not idempotent
// and is therefore never retried.
func (c *Client) AddToPlaylist(ctx context.Context, playlistID, videoID string) error {
	if err := c.throttle.Wait(ctx); err != nil {
		return err
	}

	item := &yt.PlaylistItem{
		Snippet: &yt.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &yt.ResourceId{
				Kind:    "youtube#video",
				VideoId: videoID,
			},
		},
	}
	if _, err := c.service.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do(); err != nil {
		c.observe(err)
		return &APIError{Op: "playlistItems.insert", ID: playlistID, Err: err}
	}
	c.throttle.RecordSuccess()
	return nil
}

// InsertVideo prepares a resumable upload of the file at path. Nothing is
// sent until the returned transfer's first NextChunk.
func (c *Client) InsertVideo(ctx context.Context, path string, meta VideoMetadata) (upload.ChunkTransfer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrInvalidRequest, path)
	}

	body, err := json.Marshal(&yt.Video{
		Snippet: &yt.VideoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryId:  meta.CategoryID,
		},
		Status: &yt.VideoStatus{
			PrivacyStatus: meta.Privacy,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode video metadata: %w", err)
	}

	return &ResumableSession{
		client:    c.http,
		initURL:   c.uploadURL + "?uploadType=resumable&part=snippet,status",
		metadata:  body,
		path:      path,
		size:      info.Size(),
		chunkSize: c.chunkSize,
		throttle:  c.throttle,
		logger:    c.logger.With(zap.String("path", path)),
		metrics:   c.metrics,
	}, nil
}

// read runs an idempotent call under the throttle and retry policy.
func (c *Client) read(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, c.retry, classifyRead, func(ctx context.Context) error {
		if err := c.throttle.Wait(ctx); err != nil {
			return err
		}
		err := fn(ctx)
		c.observe(err)
		if err != nil && classifyRead(err).Retriable() {
			c.logger.Warn("retriable api error", zap.Error(err))
		}
		return err
	})
}

func (c *Client) observe(err error) {
	switch {
	case err == nil:
		c.throttle.RecordSuccess()
	case IsRateLimited(err):
		c.throttle.RecordRateLimit()
		c.logger.Warn("api rate limited, slowing down", zap.Float64("rps", c.throttle.Limit()))
	}
}

// classifyRead retries what the upload driver retries, plus rate limiting.
func classifyRead(err error) retry.Outcome {
	if IsRateLimited(err) {
		return retry.Retry(err)
	}
	return upload.Classify(err)
}
