package enrichment

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"mediahub/internal/catalog"
	"mediahub/internal/config"
	"mediahub/internal/logging"
	"mediahub/internal/mediainfo"
	"mediahub/internal/metrics"
	"mediahub/internal/services"
	"mediahub/internal/store"
)

// Catalog is the subset of the catalog client used here.
type Catalog interface {
	Subversions(ctx context.Context) (*catalog.Response, error)
	Configuration(ctx context.Context) (*catalog.Response, error)
	Video(ctx context.Context, q catalog.VideoQuery) (*catalog.Response, error)
	Series(ctx context.Context, q catalog.SeriesQuery) (*catalog.Response, error)
	Localize(ctx context.Context, q catalog.LocalizeQuery) (*catalog.Response, error)
	FetchImage(ctx context.Context, imageURL string) ([]byte, string, error)
}

// ScanGate blocks while a bulk library scan is running.
type ScanGate interface {
	WaitScan(ctx context.Context) error
}

// Deps wires an Enricher.
type Deps struct {
	Config   *config.Config
	Store    *store.Store
	Catalog  Catalog
	ScanGate ScanGate
	Notifier Notifier
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// Enricher owns the enrichment pool and the catalog state shared by its jobs.
type Enricher struct {
	cfg      *config.Config
	store    *store.Store
	catalog  Catalog
	scanGate ScanGate
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics

	state catalogState

	mu     sync.Mutex
	pool   *Pool
	closed atomic.Bool
}

// New builds an Enricher. When no catalog is supplied and lookups are active,
// a client is built from configuration.
func New(deps Deps) (*Enricher, error) {
	if deps.Config == nil {
		return nil, services.Wrap(services.ErrConfiguration, "enrichment", "new", "config required", nil)
	}
	logger := logging.NewComponentLogger(deps.Logger, "enrichment")
	e := &Enricher{
		cfg:      deps.Config,
		store:    deps.Store,
		catalog:  deps.Catalog,
		scanGate: deps.ScanGate,
		notifier: deps.Notifier,
		logger:   logger,
		metrics:  deps.Metrics,
	}
	if e.notifier == nil {
		e.notifier = NewStatusLine(logger)
	}
	if e.catalog == nil && deps.Config.Network.ExternalNetwork {
		client, err := catalog.New(deps.Config.Catalog.BaseURL, deps.Config.Catalog.Language,
			catalog.WithTimeout(deps.Config.CatalogTimeout()),
			catalog.WithUserAgent(deps.Config.Catalog.UserAgent),
			catalog.WithRateLimit(deps.Config.Catalog.RequestsPerSecond),
			catalog.WithMetrics(deps.Metrics),
			catalog.WithLogger(deps.Logger),
		)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "enrichment", "new", "build catalog client", err)
		}
		e.catalog = client
	}
	return e, nil
}

// Start creates the worker pool. Jobs run under ctx until Shutdown.
func (e *Enricher) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pool != nil || e.closed.Load() {
		return
	}
	idle := time.Duration(e.cfg.Enrichment.IdleTimeoutSeconds) * time.Second
	e.pool = NewPool(ctx, e.cfg.Enrichment.MaxWorkers, idle, e.logger, e.metrics)
}

// Shutdown cancels queued and running jobs and waits for workers to exit.
func (e *Enricher) Shutdown() {
	e.closed.Store(true)
	e.mu.Lock()
	pool := e.pool
	e.mu.Unlock()
	if pool != nil {
		pool.Shutdown()
	}
}

// Pending returns the number of jobs waiting for a worker.
func (e *Enricher) Pending() int {
	e.mu.Lock()
	pool := e.pool
	e.mu.Unlock()
	if pool == nil {
		return 0
	}
	return pool.Pending()
}

// Workers returns the number of live workers.
func (e *Enricher) Workers() int {
	e.mu.Lock()
	pool := e.pool
	e.mu.Unlock()
	if pool == nil {
		return 0
	}
	return pool.Workers()
}

// Current returns the file being enriched, when the notifier tracks it.
func (e *Enricher) Current() string {
	if line, ok := e.notifier.(*StatusLine); ok {
		return line.Current()
	}
	return ""
}

// Enqueue submits a resolved video for asynchronous enrichment. key is the
// store key of the file and modTime its modification time in milliseconds.
func (e *Enricher) Enqueue(key string, modTime int64, mi *mediainfo.MediaInfo) {
	if !e.shouldLookup() {
		return
	}
	e.mu.Lock()
	pool := e.pool
	e.mu.Unlock()
	if pool == nil {
		e.logger.Debug("enrichment not started; dropping request", logging.Path(key))
		return
	}
	req := newRequest(key, modTime, mi)
	if !pool.Submit(func(ctx context.Context) { e.process(ctx, req) }) {
		e.logger.Debug("enrichment pool closed; dropping request", logging.Path(key))
	}
}

// LookupNow runs one enrichment synchronously and reports the outcome.
// Unlike queued jobs it returns transient errors to the caller.
func (e *Enricher) LookupNow(ctx context.Context, key string, modTime int64, mi *mediainfo.MediaInfo) (Outcome, error) {
	return e.lookup(ctx, newRequest(key, modTime, mi))
}

func (e *Enricher) process(ctx context.Context, req request) {
	logger := logging.WithContext(ctx, e.logger).With(logging.Path(req.key))
	out, err := e.lookup(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			logger.Debug("enrichment cancelled")
			return
		}
		if services.IsTransient(err) {
			logging.WarnWithContext(logger, "catalog lookup failed; will retry later", "enrichment_transient",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check network access and catalog.base_url"),
				logging.String(logging.FieldImpact, "filename metadata is shown until the next attempt"),
			)
			return
		}
		logging.WarnWithContext(logger, "enrichment failed", "enrichment_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "filename metadata is shown"),
		)
		return
	}
	if out.Skipped != "" {
		logger.Debug("enrichment skipped", logging.String("reason", out.Skipped))
		return
	}
	logger.Info("enrichment finished",
		logging.Bool("stored", out.Stored),
		logging.Bool("suppress_retry", out.SuppressRetry),
		logging.String("reason", out.Reason),
		logging.Int64("series_id", out.SeriesID),
	)
}

func (e *Enricher) storeAvailable() bool {
	return e.store != nil && e.cfg.Cache.Enabled
}

func (e *Enricher) catalogReachable() bool {
	return e.catalog != nil && e.cfg.Network.ExternalNetwork
}

func (e *Enricher) shouldLookup() bool {
	return !e.closed.Load() && e.cfg.CatalogActive() && e.catalog != nil && e.storeAvailable()
}

type request struct {
	key     string
	modTime int64
	name    string
	mi      *mediainfo.MediaInfo
	file    *mediainfo.VideoMetadata
}

func newRequest(key string, modTime int64, mi *mediainfo.MediaInfo) request {
	path, _, _ := strings.Cut(key, "#SplitTrack")
	req := request{key: key, modTime: modTime, name: filepath.Base(path), mi: mi}
	if mi != nil {
		req.file = mi.VideoMetadata()
	}
	if req.file == nil {
		req.file = mediainfo.FromFilename(path)
	}
	return req
}
