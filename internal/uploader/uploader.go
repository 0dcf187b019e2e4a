// Package uploader composes hashing, remote listings, dedup and the resumable
// upload driver into the upload run.
package uploader

//go:generate mockgen -source=uploader.go -destination=mock_uploader_test.go -package=uploader

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ytupload/internal/dedup"
	"ytupload/internal/discover"
	"ytupload/internal/listing"
	"ytupload/internal/logging"
	"ytupload/internal/metrics"
	"ytupload/internal/storage"
	"ytupload/internal/upload"
	"ytupload/internal/youtube"
)

// Hasher computes content digests of local files.
type Hasher interface {
	MD5(path string) (string, error)
}

// CollectionReader lists playlists and their items.
type CollectionReader interface {
	ListPlaylists(ctx context.Context) ([]youtube.Playlist, error)
	PlaylistETag(ctx context.Context, playlistID string) (string, error)
	ListPlaylistItems(ctx context.Context, playlistID string) (*youtube.PlaylistItems, error)
}

// ItemUploader starts resumable video uploads.
type ItemUploader interface {
	InsertVideo(ctx context.Context, path string, meta youtube.VideoMetadata) (upload.ChunkTransfer, error)
}

// CollectionWriter adds videos to playlists.
type CollectionWriter interface {
	AddToPlaylist(ctx context.Context, playlistID, videoID string) error
}

// ListingCache memoizes playlist listings by etag.
type ListingCache interface {
	GetOrFetch(ctx context.Context, playlistID, etag string, fetch listing.FetchFunc) (*youtube.PlaylistItems, error)
}

var (
	// ErrPlaylistNotFound means no playlist title contains the target name.
	ErrPlaylistNotFound = errors.New("unable to find the playlist, make sure the name is part of the playlist title")
	// ErrRemoteNotLoaded means Process was called before LoadRemote.
	ErrRemoteNotLoaded = errors.New("remote playlists not loaded")
)

// AttachError is returned when a video was uploaded but could not be added
// to the target playlist. The upload is not rolled back.
type AttachError struct {
	VideoID    string
	PlaylistID string
	Err        error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("video %s uploaded but not added to playlist %s: %v", e.VideoID, e.PlaylistID, e.Err)
}

func (e *AttachError) Unwrap() error {
	return e.Err
}

// Config controls an upload run.
type Config struct {
	// TargetPlaylist is matched as a substring of playlist titles; the
	// first playlist that contains it receives the uploads.
	TargetPlaylist string
	// Privacy of uploaded videos. Defaults to unlisted.
	Privacy string
	// CategoryID of uploaded videos. Defaults to 22 (People & Blogs).
	CategoryID string
	// ListingConcurrency bounds concurrent playlist listings. Defaults to 4.
	ListingConcurrency int
	// ContinueOnError records per-file failures in the report and moves on
	// instead of stopping the run.
	ContinueOnError bool
	// DryRun hashes and deduplicates but uploads nothing.
	DryRun bool
}

func (c *Config) applyDefaults() {
	if c.Privacy == "" {
		c.Privacy = "unlisted"
	}
	if c.CategoryID == "" {
		c.CategoryID = "22"
	}
	if c.ListingConcurrency <= 0 {
		c.ListingConcurrency = 4
	}
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Hasher   Hasher
	Reader   CollectionReader
	Uploader ItemUploader
	Writer   CollectionWriter
	Listings ListingCache
	Driver   *upload.Driver
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = logging.OrNop(logger) }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// Orchestrator runs uploads for one target playlist. It is not safe for
// concurrent use.
type Orchestrator struct {
	cfg     Config
	deps    Deps
	logger  *zap.Logger
	metrics *metrics.Metrics

	loaded bool
	target youtube.Playlist
	known  []youtube.Video
}

// New creates an Orchestrator. A nil Driver gets upload.NewDriver defaults.
func New(cfg Config, deps Deps, opts ...Option) *Orchestrator {
	cfg.applyDefaults()
	o := &Orchestrator{
		cfg:    cfg,
		deps:   deps,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.deps.Driver == nil {
		o.deps.Driver = upload.NewDriver(upload.WithLogger(o.logger), upload.WithMetrics(o.metrics))
	}
	return o
}

// Listing is a playlist together with its full content.
type Listing struct {
	Playlist youtube.Playlist
	Items    *youtube.PlaylistItems
}

// LoadListings lists every playlist and resolves its items through the
// listing cache. Listings are fetched concurrently but returned in playlist
// order.
func (o *Orchestrator) LoadListings(ctx context.Context) ([]Listing, error) {
	playlists, err := o.deps.Reader.ListPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	o.logger.Info("populated playlists", zap.Int("count", len(playlists)))

	listings := make([]Listing, len(playlists))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.ListingConcurrency)
	for i, p := range playlists {
		g.Go(func() error {
			etag := p.ETag
			if etag == "" {
				var err error
				if etag, err = o.deps.Reader.PlaylistETag(gctx, p.ID); err != nil {
					return err
				}
			}
			items, err := o.deps.Listings.GetOrFetch(gctx, p.ID, etag, o.deps.Reader.ListPlaylistItems)
			if err != nil {
				return err
			}
			listings[i] = Listing{Playlist: p, Items: items}
			o.logger.Info("playlist",
				zap.String("title", p.Title),
				zap.String("playlist_id", p.ID),
				zap.Int("items", len(items.Videos)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return listings, nil
}

// LoadRemote picks the target playlist and collects every remote video for
// deduplication. It must be called before Process.
func (o *Orchestrator) LoadRemote(ctx context.Context) (youtube.Playlist, error) {
	listings, err := o.LoadListings(ctx)
	if err != nil {
		return youtube.Playlist{}, err
	}

	target, ok := findTarget(listings, o.cfg.TargetPlaylist)
	if !ok {
		return youtube.Playlist{}, fmt.Errorf("%w: %q", ErrPlaylistNotFound, o.cfg.TargetPlaylist)
	}
	o.logger.Info("found the target playlist",
		zap.String("title", target.Title),
		zap.String("playlist_id", target.ID))

	var known []youtube.Video
	for _, l := range listings {
		known = append(known, l.Items.Videos...)
	}
	o.logger.Info("populated remote videos",
		zap.Int("videos", len(known)),
		zap.Int("playlists", len(listings)))

	o.target = target
	o.known = known
	o.loaded = true
	return target, nil
}

func findTarget(listings []Listing, name string) (youtube.Playlist, bool) {
	for _, l := range listings {
		if strings.Contains(l.Playlist.Title, name) {
			return l.Playlist, true
		}
	}
	return youtube.Playlist{}, false
}

// Process handles files in order: files whose digest already appears in a
// remote description are skipped, the rest are uploaded and added to the
// target playlist.
//
// Without ContinueOnError the first failure stops the run and is returned,
// wrapped with the file path. Cache failures and an exhausted daily API
// quota always stop the run.
func (o *Orchestrator) Process(ctx context.Context, files []discover.File) (Report, error) {
	var report Report
	if !o.loaded {
		return report, ErrRemoteNotLoaded
	}
	if len(files) == 0 {
		o.logger.Info("nothing to upload")
		return report, nil
	}
	o.logger.Info("start upload procedure", zap.Int("files", len(files)))

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res, err := o.processFile(ctx, f)
		if err == nil {
			report.add(res)
			if res.Status == StatusSkipped {
				o.metrics.RecordSkipped()
			} else if res.Status == StatusUploaded {
				o.metrics.RecordUpload(true)
			}
			continue
		}

		res.Status = StatusFailed
		res.Err = err
		report.add(res)
		o.metrics.RecordUpload(false)

		if youtube.IsQuotaExceeded(err) {
			o.logger.Error("daily API quota exhausted, stopping", zap.String("path", f.Path))
			return report, fmt.Errorf("%s: %w", f.Path, err)
		}
		if !o.cfg.ContinueOnError || isCacheFailure(err) {
			return report, fmt.Errorf("%s: %w", f.Path, err)
		}
		o.logger.Error("file failed, continuing", zap.String("path", f.Path), zap.Error(err))
	}
	return report, nil
}

func (o *Orchestrator) processFile(ctx context.Context, f discover.File) (Result, error) {
	res := Result{Path: f.Path}
	logger := o.logger.With(zap.String("path", f.Path))
	logger.Info("handling file")

	hash, err := o.deps.Hasher.MD5(f.Path)
	if err != nil {
		return res, err
	}
	res.MD5 = hash

	if match, ok := dedup.FindMatch(hash, o.known); ok {
		logger.Info("already uploaded", zap.String("title", match.Title), zap.String("video_id", match.ID))
		res.Status = StatusSkipped
		res.VideoID = match.ID
		return res, nil
	}

	meta := youtube.VideoMetadata{
		Title: dedup.Title(f.Path),
		Description: dedup.Describe(dedup.FileInfo{
			Path:       f.Path,
			CreatedAt:  f.CreatedAt,
			ModifiedAt: f.ModifiedAt,
			Size:       f.Size,
			MD5:        hash,
		}),
		CategoryID: o.cfg.CategoryID,
		Privacy:    o.cfg.Privacy,
	}

	if o.cfg.DryRun {
		logger.Info("would upload", zap.String("title", meta.Title))
		res.Status = StatusDryRun
		o.known = append(o.known, youtube.Video{Title: meta.Title, Description: meta.Description})
		return res, nil
	}

	logger.Info("uploading a video", zap.String("size", fmt.Sprintf("%.2f MiB", float64(f.Size)/(1024*1024))))
	transfer, err := o.deps.Uploader.InsertVideo(ctx, f.Path, meta)
	if err != nil {
		return res, err
	}
	videoID, err := o.deps.Driver.Run(ctx, transfer)
	if err != nil {
		return res, err
	}
	res.VideoID = videoID
	logger.Info("upload successful", zap.String("video_id", videoID))

	// Later duplicates in the same run must see this upload.
	o.known = append(o.known, youtube.Video{ID: videoID, Title: meta.Title, Description: meta.Description})

	logger.Info("adding video to the playlist", zap.String("video_id", videoID), zap.String("playlist_id", o.target.ID))
	if err := o.deps.Writer.AddToPlaylist(ctx, o.target.ID, videoID); err != nil {
		return res, &AttachError{VideoID: videoID, PlaylistID: o.target.ID, Err: err}
	}

	res.Status = StatusUploaded
	logger.Info("processed")
	return res, nil
}

func isCacheFailure(err error) bool {
	return errors.Is(err, storage.ErrStorageCorrupt) || errors.Is(err, storage.ErrLockTimeout)
}
