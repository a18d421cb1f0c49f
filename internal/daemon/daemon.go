package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"mediahub/internal/api"
	"mediahub/internal/config"
	"mediahub/internal/enrichment"
	"mediahub/internal/format"
	"mediahub/internal/library"
	"mediahub/internal/logging"
	"mediahub/internal/media/probe"
	"mediahub/internal/mediacache"
	"mediahub/internal/metrics"
	"mediahub/internal/notifications"
	"mediahub/internal/resource"
	"mediahub/internal/services"
	"mediahub/internal/store"
)

// Daemon coordinates the background services and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	metrics *metrics.Metrics
	cache   *mediacache.Cache
	deps    *resource.Deps
	scanner *library.Scanner
	catalog enrichment.Catalog
	notify  notifications.Service
	api     *apiServer

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	running   atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	started   time.Time
	enricher  *enrichment.Enricher
	watcher   *library.Watcher
	scheduler *library.Scheduler
	wg        sync.WaitGroup
}

// Option customizes a Daemon.
type Option func(*options)

type options struct {
	parser    mediacache.Parser
	secondary resource.Prober
	catalog   enrichment.Catalog
	metrics   *metrics.Metrics
	notifier  notifications.Service
}

// WithParser replaces the ffprobe parsers, mainly for tests.
func WithParser(primary mediacache.Parser, secondary resource.Prober) Option {
	return func(o *options) {
		o.parser = primary
		o.secondary = secondary
	}
}

// WithCatalog replaces the catalog client built from configuration.
func WithCatalog(c enrichment.Catalog) Option {
	return func(o *options) {
		o.catalog = c
	}
}

// WithMetrics uses m instead of a registry built from configuration.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithNotifier replaces the ntfy service built from configuration.
func WithNotifier(n notifications.Service) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil && cfg.Metrics.Enabled {
		o.metrics = metrics.New()
	}
	if o.notifier == nil {
		o.notifier = notifications.NewService(cfg)
	}
	if o.parser == nil {
		parser := probe.New(cfg.Parser.FFprobeBinary,
			probe.WithTimeout(time.Duration(cfg.Parser.TimeoutSeconds)*time.Second),
			probe.WithLanguage(cfg.Catalog.Language),
			probe.WithLogger(logger),
		)
		o.parser = parser
		if o.secondary == nil {
			o.secondary = parser.Secondary()
		}
	}

	var persistent mediacache.Store
	if cfg.Cache.Enabled {
		persistent = st
	}
	cache, err := mediacache.New(persistent, o.parser, logger,
		mediacache.WithMaxEntries(cfg.Cache.MaxEntries),
		mediacache.WithMetrics(o.metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("create media cache: %w", err)
	}

	deps := &resource.Deps{
		Registry:       format.NewDefaultRegistry(),
		Cache:          cache,
		Secondary:      o.secondary,
		UseMediaInfo:   cfg.Parser.UseMediaInfo,
		FollowSymlinks: cfg.Parser.FollowSymlinks,
		Logger:         logger,
		Metrics:        o.metrics,
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		metrics:  o.metrics,
		cache:    cache,
		deps:     deps,
		catalog:  o.catalog,
		notify:   o.notifier,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.scanner = library.NewScanner(cfg.Paths.SharedFolders, deps, logger, o.metrics,
		library.WithCompletionHook(d.scanCompleted),
	)
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and launches enrichment, the HTTP API and
// library maintenance.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another mediahub daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	enricher, err := enrichment.New(enrichment.Deps{
		Config:   d.cfg,
		Store:    d.store,
		Catalog:  d.catalog,
		ScanGate: d.scanner.Gate(),
		Logger:   d.logger,
		Metrics:  d.metrics,
	})
	if err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("create enricher: %w", err)
	}
	scheduler, err := library.NewScheduler(runCtx, d.scanner, d.store,
		d.cfg.Library.RescanSchedule, d.cfg.Library.PruneSchedule, d.logger)
	if err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("create scheduler: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	enricher.Start(runCtx)
	d.deps.Enricher = enricher
	d.enricher = enricher

	if d.cfg.Library.Watch {
		watcher, err := library.NewWatcher(d.scanner, d.store, d.logger)
		if err != nil {
			logging.WarnWithContext(d.logger, "folder watching unavailable", "watch_start_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "raise fs.inotify.max_user_instances or disable library.watch"),
				logging.String(logging.FieldImpact, "new files appear after the next rescan"),
			)
		} else {
			watcher.Start(runCtx)
			d.watcher = watcher
		}
	}
	scheduler.Start()
	d.scheduler = scheduler

	if d.cfg.Library.ScanOnStart {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			if _, err := d.scanner.Scan(runCtx); err != nil && runCtx.Err() == nil && !errors.Is(err, library.ErrScanRunning) {
				logging.WarnWithContext(d.logger, "startup scan failed", "startup_scan_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "files resolve on first access instead"),
				)
				d.notifyError(runCtx, err, "startup scan")
			}
		}()
	}

	d.ctx, d.cancel = runCtx, cancel
	d.started = time.Now()
	d.running.Store(true)
	d.logger.Info("mediahub daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("shared_folders", len(d.cfg.Paths.SharedFolders)),
		logging.Bool("catalog_active", d.cfg.CatalogActive()),
		logging.Bool("watching", d.watcher != nil),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if d.watcher != nil {
		if err := d.watcher.Close(); err != nil {
			d.logger.Debug("watcher close failed", logging.Error(err))
		}
		d.watcher = nil
	}
	if d.scheduler != nil {
		d.scheduler.Stop()
		d.scheduler = nil
	}
	d.wg.Wait()
	if d.enricher != nil {
		d.enricher.Shutdown()
	}
	d.deps.Enricher = nil
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "next start may report another instance"),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("mediahub daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddress returns the address the HTTP API listens on, or "".
func (d *Daemon) APIAddress() string {
	return d.api.address()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	d.mu.Lock()
	enricher := d.enricher
	started := d.started
	watching := d.watcher != nil
	d.mu.Unlock()

	status := api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		CacheEntries: d.cache.Len(),
		Enrichment:   api.EnrichmentStatus{Active: d.cfg.CatalogActive()},
		Library: api.LibraryStatus{
			Folders:  append([]string(nil), d.cfg.Paths.SharedFolders...),
			Watching: watching,
			Scanning: d.scanner.Running(),
		},
	}
	if status.Running && !started.IsZero() {
		status.StartedAt = started.UTC().Format(time.RFC3339)
	}
	if stats, err := d.store.Stats(ctx); err != nil {
		d.logger.Debug("store stats unavailable", logging.Error(err))
	} else {
		status.Store = api.FromStoreStats(stats)
	}
	if enricher != nil {
		versions := enricher.KnownVersions()
		status.Enrichment.Workers = enricher.Workers()
		status.Enrichment.Pending = enricher.Pending()
		status.Enrichment.Current = enricher.Current()
		status.Enrichment.SeriesVersion = versions.Series
		status.Enrichment.VideoVersion = versions.Video
		status.Enrichment.ImageBaseURL = versions.ImageBaseURL
	}
	if last, ok := d.scanner.LastResult(); ok {
		converted := api.FromScanResult(last)
		status.Library.LastScan = &converted
	}
	return status
}

func (d *Daemon) scanCompleted(ctx context.Context, result library.Result) {
	if !d.notify.Enabled() {
		return
	}
	summary := notifications.ScanSummary{
		Folders:  result.Folders,
		Files:    result.Files,
		Valid:    result.Valid,
		Invalid:  result.Invalid,
		Errors:   len(result.Errors),
		Duration: result.Duration,
	}
	if err := d.notify.NotifyScanCompleted(context.WithoutCancel(ctx), summary); err != nil {
		logging.WarnWithContext(d.logger, "scan notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

func (d *Daemon) notifyError(ctx context.Context, cause error, label string) {
	if err := d.notify.NotifyError(context.WithoutCancel(ctx), cause, label); err != nil {
		logging.WarnWithContext(d.logger, "error notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

// Scan runs a full library scan. It ends early when ctx or the daemon stops.
func (d *Daemon) Scan(ctx context.Context) (library.Result, error) {
	d.mu.Lock()
	runCtx := d.ctx
	d.mu.Unlock()
	if runCtx == nil {
		return library.Result{}, errors.New("daemon is not running")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(runCtx, cancel)
	defer stop()
	return d.scanner.Scan(ctx)
}

// Resolve resolves and validates one file inside the shared folders.
func (d *Daemon) Resolve(ctx context.Context, path string) (api.ResolveResponse, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return api.ResolveResponse{}, services.Wrap(services.ErrValidation, "daemon", "resolve", "path is required", nil)
	}
	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return api.ResolveResponse{}, services.Wrap(services.ErrValidation, "daemon", "resolve", "invalid path", err)
	}
	if !d.scanner.Contains(absPath) {
		return api.ResolveResponse{}, services.Wrap(services.ErrValidation, "daemon", "resolve", "path is outside the shared folders", nil)
	}
	if _, err := os.Stat(absPath); err != nil {
		return api.ResolveResponse{}, services.Wrap(services.ErrNotFound, "daemon", "resolve", "file not found", err)
	}

	rf, valid := d.scanner.ResolveFile(ctx, absPath)
	resp := api.ResolveResponse{
		Path:  absPath,
		Valid: valid,
		State: rf.State().String(),
	}
	if f := rf.Format(); f != nil {
		resp.Format = string(f.ID)
	}
	if mi := rf.MediaInfo(); mi != nil {
		resp.Media = api.FromMediaInfo(mi)
		resp.Metadata = mi.VideoMetadata()
	}
	return resp, nil
}

// FailedLookups lists recorded lookup failures, newest first.
func (d *Daemon) FailedLookups(ctx context.Context, limit int) ([]store.FailedLookup, error) {
	return d.store.ListFailedLookups(ctx, limit)
}
