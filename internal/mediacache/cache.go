// Package mediacache de-duplicates media parsing across resources.
//
// A Cache maps a Key (path, modification time, split track) to the MediaInfo
// parsed for it. Entries live in a bounded LRU; eviction only costs a store
// read or a reparse. Because the key carries the modification time, a changed
// file always misses and stale entries are simply never read again.
package mediacache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"mediahub/internal/format"
	"mediahub/internal/logging"
	"mediahub/internal/mediainfo"
	"mediahub/internal/metrics"
)

// DefaultMaxEntries bounds the cache when no size is configured.
const DefaultMaxEntries = 4096

// splitTrackSuffix marks keys for one track of a multi-track file.
const splitTrackSuffix = "#SplitTrack"

// Key identifies one distinct state of a resource.
type Key struct {
	Path       string
	ModTime    int64
	SplitTrack int
}

// StoreKey is the path under which the entry is persisted.
func (k Key) StoreKey() string {
	if k.SplitTrack > 0 {
		return k.Path + splitTrackSuffix + strconv.Itoa(k.SplitTrack)
	}
	return k.Path
}

func (k Key) String() string {
	return k.StoreKey() + "@" + strconv.FormatInt(k.ModTime, 10)
}

// Store is the persistent layer consulted on a memory miss.
type Store interface {
	GetMediaInfo(ctx context.Context, key string, modTime int64) (*mediainfo.MediaInfo, error)
	UpsertMediaInfo(ctx context.Context, key string, modTime int64, typeHint format.Type, mi *mediainfo.MediaInfo) (int64, error)
}

// Parser fills a MediaInfo from a locator.
type Parser interface {
	Parse(ctx context.Context, mi *mediainfo.MediaInfo, locator string, f *format.Format, typeHint format.Type) error
	Name() string
}

// Cache is the process-wide media metadata cache.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[Key, *mediainfo.MediaInfo]
	group   singleflight.Group

	store   Store
	parser  Parser
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option customizes a Cache.
type Option func(*cacheOptions)

type cacheOptions struct {
	maxEntries int
	metrics    *metrics.Metrics
}

// WithMaxEntries bounds the number of live entries.
func WithMaxEntries(n int) Option {
	return func(o *cacheOptions) {
		if n > 0 {
			o.maxEntries = n
		}
	}
}

// WithMetrics reports lookups and parses.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *cacheOptions) {
		o.metrics = m
	}
}

// New constructs a Cache. store may be nil when persistence is disabled.
func New(store Store, parser Parser, logger *slog.Logger, opts ...Option) (*Cache, error) {
	if parser == nil {
		return nil, fmt.Errorf("mediacache: parser is required")
	}
	options := cacheOptions{maxEntries: DefaultMaxEntries}
	for _, opt := range opts {
		opt(&options)
	}
	entries, err := lru.New[Key, *mediainfo.MediaInfo](options.maxEntries)
	if err != nil {
		return nil, fmt.Errorf("mediacache: %w", err)
	}
	c := &Cache{
		entries: entries,
		store:   store,
		parser:  parser,
		logger:  logging.NewComponentLogger(logger, "cache"),
		metrics: options.metrics,
	}
	options.metrics.RegisterGauge("cache", "entries", "Live media metadata cache entries.", func() float64 {
		return float64(c.Len())
	})
	return c, nil
}

// Get returns the MediaInfo for key, reading the store or parsing locator on a
// miss. It never returns nil. A failed parse returns an unparsed MediaInfo
// that is not cached, so the next call tries again.
func (c *Cache) Get(ctx context.Context, key Key, locator string, f *format.Format, typeHint format.Type) *mediainfo.MediaInfo {
	if mi, ok := c.lookup(key); ok {
		c.metrics.CacheLookup("memory")
		return mi
	}
	v, _, _ := c.group.Do(key.String(), func() (any, error) {
		if mi, ok := c.lookup(key); ok {
			c.metrics.CacheLookup("memory")
			return mi, nil
		}
		return c.load(ctx, key, locator, f, typeHint), nil
	})
	return v.(*mediainfo.MediaInfo)
}

// GetWebStream is Get for a URL. Streams have no modification time.
func (c *Cache) GetWebStream(ctx context.Context, url string, f *format.Format, typeHint format.Type) *mediainfo.MediaInfo {
	return c.Get(ctx, Key{Path: url}, url, f, typeHint)
}

// Peek returns the live entry for key without loading it.
func (c *Cache) Peek(key Key) (*mediainfo.MediaInfo, bool) {
	return c.lookup(key)
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Purge drops every live entry. Persisted rows are untouched.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries.Purge()
	c.mu.Unlock()
}

// Remove drops one live entry.
func (c *Cache) Remove(key Key) {
	c.mu.Lock()
	c.entries.Remove(key)
	c.mu.Unlock()
}

func (c *Cache) lookup(key Key) (*mediainfo.MediaInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Get(key)
}

func (c *Cache) insert(key Key, mi *mediainfo.MediaInfo) {
	c.mu.Lock()
	c.entries.Add(key, mi)
	c.mu.Unlock()
}

func (c *Cache) load(ctx context.Context, key Key, locator string, f *format.Format, typeHint format.Type) *mediainfo.MediaInfo {
	logger := logging.WithContext(ctx, c.logger).With(logging.Path(key.StoreKey()))

	if c.store != nil {
		stored, err := c.store.GetMediaInfo(ctx, key.StoreKey(), key.ModTime)
		if err != nil {
			logging.WarnWithContext(logger, "media store read failed; parsing instead", "cache_store_read_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the media database"),
				logging.String(logging.FieldImpact, "file is reparsed"),
			)
		} else if stored != nil && stored.IsParsed() {
			stored.PostParse(typeOf(f, typeHint))
			c.insert(key, stored)
			c.metrics.CacheLookup("store")
			logger.Debug("media info loaded from store")
			return stored
		}
	}

	mi := mediainfo.New()
	mi.BeginParsing()
	start := time.Now()
	err := c.parser.Parse(ctx, mi, locator, f, typeHint)
	c.metrics.ParseFinished(c.parser.Name(), err == nil, time.Since(start))
	mi.FinishParsing(err == nil)
	c.metrics.CacheLookup("parse")
	if err != nil {
		logging.WarnWithContext(logger, "media parse failed", "media_parse_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that ffprobe is installed and the file is readable"),
			logging.String(logging.FieldImpact, "resource has no technical metadata"),
		)
		// Failed parses stay out of the LRU so the next Get parses again.
		return mi
	}
	logger.Debug("media parsed", logging.String("prober", c.parser.Name()), logging.Duration("elapsed", time.Since(start)))

	if c.store != nil {
		if _, err := c.store.UpsertMediaInfo(ctx, key.StoreKey(), key.ModTime, typeHint, mi); err != nil {
			logging.WarnWithContext(logger, "media store write failed", "cache_store_write_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the media database"),
				logging.String(logging.FieldImpact, "file is reparsed after restart"),
			)
		}
	}
	c.insert(key, mi)
	return mi
}

// Persist writes a cached MediaInfo back to the store, used after enrichment
// mutates it.
func (c *Cache) Persist(ctx context.Context, key Key, typeHint format.Type, mi *mediainfo.MediaInfo) error {
	if c.store == nil || mi == nil {
		return nil
	}
	_, err := c.store.UpsertMediaInfo(ctx, key.StoreKey(), key.ModTime, typeHint, mi)
	return err
}

func typeOf(f *format.Format, hint format.Type) format.Type {
	if f != nil {
		return f.Type
	}
	return hint
}
