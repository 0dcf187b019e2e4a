// Package listing memoizes complete playlist listings in the persistent cache,
// keyed by playlist ID and validated against the playlist etag.
package listing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"ytupload/internal/logging"
	"ytupload/internal/metrics"
	"ytupload/internal/storage"
	"ytupload/internal/youtube"
)

// DataVersion is the shape of cached listings. Bump it whenever
// youtube.PlaylistItems changes so older entries are refetched.
const DataVersion = "v1"

// FetchFunc fetches the full, de-paginated listing of a playlist.
type FetchFunc func(ctx context.Context, playlistID string) (*youtube.PlaylistItems, error)

// Store is the subset of *storage.Cache the listing cache needs.
type Store interface {
	Get(section, key string, out any) (bool, error)
	Update(section, key string, value any) error
	Flush() error
}

type entry = storage.ListingEntry[*youtube.PlaylistItems]

// Cache serves playlist listings from the persistent cache while the etag
// and DataVersion they were stored under still match.
type Cache struct {
	store   Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	group   singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) { c.logger = logging.OrNop(logger) }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New creates a listing cache backed by store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrFetch returns the listing of playlistID.
//
// The cached entry is used only when both its version and etag match;
// otherwise fetch is called and its result replaces the entry. Storing the
// result is best effort. Concurrent calls for the same playlist share one
// fetch.
func (c *Cache) GetOrFetch(ctx context.Context, playlistID, etag string, fetch FetchFunc) (*youtube.PlaylistItems, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: empty playlist id", storage.ErrInvalidInput)
	}

	v, err, _ := c.group.Do(playlistID+"\x00"+etag, func() (any, error) {
		return c.getOrFetch(ctx, playlistID, etag, fetch)
	})
	if err != nil {
		return nil, err
	}
	return v.(*youtube.PlaylistItems), nil
}

func (c *Cache) getOrFetch(ctx context.Context, playlistID, etag string, fetch FetchFunc) (*youtube.PlaylistItems, error) {
	cached, err := c.lookup(playlistID, etag)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		c.metrics.RecordListingLookup(true)
		c.logger.Debug("playlist listing served from cache",
			zap.String("playlist_id", playlistID),
			zap.Int("videos", len(cached.Videos)))
		return cached, nil
	}

	c.metrics.RecordListingLookup(false)
	c.logger.Debug("cache miss for playlist content, populating", zap.String("playlist_id", playlistID))

	items, err := fetch(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("list playlist %s: %w", playlistID, err)
	}
	if items == nil {
		items = &youtube.PlaylistItems{}
	}

	c.save(playlistID, etag, items)
	return items, nil
}

// lookup returns nil when there is no usable entry. Only errors that make the
// cache itself unusable are returned.
func (c *Cache) lookup(playlistID, etag string) (*youtube.PlaylistItems, error) {
	var e entry
	found, err := c.store.Get(storage.SectionPlaylists, playlistID, &e)
	if err != nil {
		var storErr *storage.StorageError
		if errors.As(err, &storErr) && storErr.Op == "decode" {
			c.logger.Warn("ignoring unreadable playlist cache entry", zap.String("playlist_id", playlistID), zap.Error(err))
			return nil, nil
		}
		return nil, err
	}
	if !found || e.Data == nil {
		return nil, nil
	}
	if e.Version != DataVersion || e.ETag != etag {
		return nil, nil
	}
	return e.Data, nil
}

func (c *Cache) save(playlistID, etag string, items *youtube.PlaylistItems) {
	e := entry{Data: items, Version: DataVersion, ETag: etag}
	if err := c.store.Update(storage.SectionPlaylists, playlistID, e); err != nil {
		c.logger.Warn("an error occurred caching playlist listing results", zap.String("playlist_id", playlistID), zap.Error(err))
		return
	}
	if err := c.store.Flush(); err != nil {
		c.logger.Warn("unable to flush playlist listing to the cache file", zap.String("playlist_id", playlistID), zap.Error(err))
	}
}
