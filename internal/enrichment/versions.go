package enrichment

import (
	"context"
	"sync"
	"time"

	"mediahub/internal/logging"
)

const (
	metaSeriesVersion = "SERIES_VERSION"
	metaVideoVersion  = "VIDEO_VERSION"
	metaImageBaseURL  = "IMAGE_BASE_URL"

	// localVersionSuffix is bumped when local handling of catalog data changes
	// in a way that requires every record to be fetched again.
	localVersionSuffix = "-1"
)

// CatalogRetryInterval is how long a failed versions or configuration fetch
// is remembered before the catalog is asked again.
var CatalogRetryInterval = time.Minute

// Versions are the catalog schema versions stamped onto stored metadata,
// plus the base URL for relative image paths.
type Versions struct {
	Series       string `json:"series"`
	Video        string `json:"video"`
	ImageBaseURL string `json:"image_base_url"`
}

type catalogState struct {
	mu            sync.Mutex
	versions      Versions
	loaded        bool
	fetched       bool
	imaged        bool
	versionsRetry time.Time
	imageRetry    time.Time
}

// Versions returns the current catalog versions. Remote values are fetched
// once and persisted; when the catalog cannot be reached the persisted values
// are used.
func (e *Enricher) Versions(ctx context.Context) Versions {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	now := time.Now()
	if !e.state.loaded {
		e.state.versions.Series = withSuffix(e.storedValue(ctx, metaSeriesVersion))
		e.state.versions.Video = withSuffix(e.storedValue(ctx, metaVideoVersion))
		e.state.versions.ImageBaseURL = e.storedValue(ctx, metaImageBaseURL)
		e.state.loaded = true
	}
	if !e.state.fetched && !now.Before(e.state.versionsRetry) {
		e.loadVersions(ctx)
		if !e.state.fetched {
			e.state.versionsRetry = now.Add(CatalogRetryInterval)
		}
	}
	if !e.state.imaged && !now.Before(e.state.imageRetry) {
		e.loadImageBase(ctx)
		if !e.state.imaged {
			e.state.imageRetry = now.Add(CatalogRetryInterval)
		}
	}
	return e.state.versions
}

// KnownVersions returns the versions loaded so far without contacting the
// catalog.
func (e *Enricher) KnownVersions() Versions {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	return e.state.versions
}

func (e *Enricher) loadVersions(ctx context.Context) {
	logger := logging.WithContext(ctx, e.logger)
	var series, video string
	if e.catalogReachable() {
		resp, err := e.catalog.Subversions(ctx)
		switch {
		case err != nil:
			logging.WarnWithContext(logger, "catalog versions unavailable; using stored values", "catalog_versions_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check catalog.base_url and network access"),
			)
		case resp.OK():
			series = resp.Data.String("series")
			video = resp.Data.String("video")
			e.persistValue(ctx, metaSeriesVersion, series)
			e.persistValue(ctx, metaVideoVersion, video)
			e.state.fetched = true
		}
	}
	if series == "" {
		series = e.storedValue(ctx, metaSeriesVersion)
	}
	if video == "" {
		video = e.storedValue(ctx, metaVideoVersion)
	}
	e.state.versions.Series = withSuffix(series)
	e.state.versions.Video = withSuffix(video)
}

func (e *Enricher) loadImageBase(ctx context.Context) {
	var base string
	if e.catalogReachable() {
		resp, err := e.catalog.Configuration(ctx)
		switch {
		case err != nil:
			e.logger.Debug("catalog configuration unavailable", logging.Error(err))
		case resp.OK():
			base = resp.Data.String("imageBaseURL")
			e.persistValue(ctx, metaImageBaseURL, base)
			e.state.imaged = true
		}
	}
	if base == "" {
		base = e.storedValue(ctx, metaImageBaseURL)
	}
	e.state.versions.ImageBaseURL = base
}

func (e *Enricher) storedValue(ctx context.Context, name string) string {
	if e.store == nil {
		return ""
	}
	value, _, err := e.store.GetMetadataValue(ctx, name)
	if err != nil {
		e.logger.Debug("read stored catalog value failed", logging.String("name", name), logging.Error(err))
		return ""
	}
	return value
}

func (e *Enricher) persistValue(ctx context.Context, name, value string) {
	if e.store == nil || value == "" {
		return
	}
	if err := e.store.SetOrUpdateMetadataValue(ctx, name, value); err != nil {
		logging.WarnWithContext(e.logger, "failed to persist catalog value", "catalog_value_persist_failed",
			logging.String("name", name),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stored fallback may be stale"),
		)
	}
}

func withSuffix(version string) string {
	if version == "" {
		return ""
	}
	return version + localVersionSuffix
}
