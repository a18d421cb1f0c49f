package enrichment

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"mediahub/internal/catalog"
	"mediahub/internal/logging"
	"mediahub/internal/mediainfo"
	"mediahub/internal/services"
	"mediahub/internal/textutil"
)

// Recorded failure reasons.
const (
	ReasonNoResult   = "No API result"
	ReasonMissingIDs = "IMDbID/tmdbId missing"

	// ThumbnailSource marks thumbnails downloaded from the catalog.
	ThumbnailSource = "TMDB"

	thumbnailWait = 5 * time.Second
)

// Skip reasons reported in Outcome.Skipped.
const (
	SkipDisabled      = "disabled"
	SkipFresh         = "fresh"
	SkipRecentFailure = "recent_failure"
)

// Outcome describes what one enrichment run did. Stored and SuppressRetry
// are independent: an accepted result without external ids is stored and
// also suppressed.
type Outcome struct {
	Stored        bool
	SuppressRetry bool
	Skipped       string
	Reason        string
	SeriesID      int64
	Metadata      *mediainfo.VideoMetadata
}

type image struct {
	data []byte
	mime string
}

type failure struct {
	key            string
	reason         string
	serverResponse string
	fileLevel      bool
}

type seriesResult struct {
	id       int64
	tmdbTVID int64
	created  *mediainfo.TvSeriesMetadata
	poster   *image
	failure  *failure
}

type plan struct {
	video    *mediainfo.VideoMetadata
	poster   *image
	suppress bool
	failure  *failure
	series   *seriesResult
}

func (e *Enricher) lookup(ctx context.Context, req request) (Outcome, error) {
	if !e.shouldLookup() {
		return Outcome{Skipped: SkipDisabled}, nil
	}
	if e.scanGate != nil {
		if err := e.scanGate.WaitScan(ctx); err != nil {
			return Outcome{}, err
		}
	}
	if !e.shouldLookup() {
		return Outcome{Skipped: SkipDisabled}, nil
	}

	versions := e.Versions(ctx)
	fresh, err := e.store.DoesLatestAPIMetadataExist(ctx, req.key, req.modTime, versions.Video)
	if err != nil {
		return Outcome{}, services.Wrap(services.ErrTransient, "enrichment", "freshness", "store unavailable", err)
	}
	if fresh {
		e.metrics.EnrichmentOutcome("skipped_fresh")
		return Outcome{Skipped: SkipFresh}, nil
	}
	failed, err := e.store.HasLookupFailedRecently(ctx, req.key, true)
	if err != nil {
		return Outcome{}, services.Wrap(services.ErrTransient, "enrichment", "failed lookups", "store unavailable", err)
	}
	if failed {
		e.metrics.EnrichmentOutcome("skipped_failed")
		return Outcome{Skipped: SkipRecentFailure}, nil
	}

	e.notifier.Enriching(req.name)
	defer e.notifier.Clear()

	p, err := e.plan(ctx, req, versions)
	if err != nil {
		e.metrics.EnrichmentOutcome("transient")
		return Outcome{}, err
	}
	out, err := e.apply(ctx, req, p)
	if err != nil {
		e.metrics.EnrichmentOutcome("store_error")
		return out, err
	}
	switch {
	case out.Stored && out.SuppressRetry:
		e.metrics.EnrichmentOutcome("stored_without_ids")
	case out.Stored:
		e.metrics.EnrichmentOutcome("stored")
	default:
		e.metrics.EnrichmentOutcome("rejected")
	}
	return out, nil
}

// plan performs every remote call for req and decides what to write.
func (e *Enricher) plan(ctx context.Context, req request, versions Versions) (*plan, error) {
	logger := logging.WithContext(ctx, e.logger).With(logging.Path(req.key))
	file := req.file
	title := file.LookupTitle()
	startYear := mediainfo.StartYearFromTitle(title, file.TVSeriesStartYear)

	query := catalog.VideoQuery{IMDbID: file.IMDbID}
	if file.IsTVEpisode {
		query.Title = mediainfo.StripYear(title, startYear)
		query.Year = startYear
		query.Season = file.TVSeason
		query.Episode = file.TVEpisodeUnpadded()
	} else {
		query.Title = mediainfo.StripYear(title, file.Year)
		query.Year = file.Year
	}

	resp, err := e.catalog.Video(ctx, query)
	if err != nil {
		return nil, err
	}
	if resp.Status != nil {
		return nil, services.Wrap(services.ErrTransient, "enrichment", "video",
			fmt.Sprintf("catalog returned status %d", resp.Status.StatusCode), nil)
	}

	p := &plan{}
	var seriesIMDbID string
	var tmdbTVID int64
	switch {
	case !resp.OK() || !resp.Data.Identifies():
		p.failure = &failure{key: req.key, reason: ReasonNoResult, serverResponse: resp.Body, fileLevel: true}
		logger.Info("catalog has no match", logging.String("title", query.Title))
	default:
		if gateErr := Gate(GateInput{File: file, Response: resp.Data}); gateErr != nil {
			p.failure = &failure{key: req.key, reason: ReasonDataMismatch, fileLevel: true}
			logger.Info("catalog result rejected", logging.Error(gateErr))
			break
		}
		p.video = acceptVideo(file, resp.Data, versions)
		p.suppress = !p.video.HasExternalID()
		p.poster = e.fetchPoster(ctx, p.video.Poster)
		seriesIMDbID = resp.Data.String("seriesIMDbID")
		tmdbTVID, _ = resp.Data.Int64("tmdbTvID")
	}

	if file.IsTVEpisode {
		p.series = e.lookupSeries(ctx, seriesQuery{
			title:     title,
			startYear: startYear,
			imdbID:    seriesIMDbID,
			tmdbTVID:  tmdbTVID,
		}, versions)
	}
	return p, nil
}

// acceptVideo merges an accepted catalog result onto a copy of file.
func acceptVideo(file *mediainfo.VideoMetadata, data catalog.Object, versions Versions) *mediainfo.VideoMetadata {
	vm := file.Clone()
	setString(&vm.Title, data, "title")
	if vm.IsTVEpisode {
		setInt(&vm.TVSeason, data, "season")
		if episode := data.String("episode"); episode != "" {
			vm.TVEpisode = NormalizeEpisode(episode)
		}
	}
	setInt(&vm.Year, data, "year")
	setString(&vm.IMDbID, data, "imdbID")
	setInt64(&vm.TMDbID, data, "tmdbID")
	applyVideoFields(vm, data)
	if poster := catalog.PosterURL(versions.ImageBaseURL, data.String("poster"), data.String("posterRelativePath")); poster != "" {
		vm.Poster = poster
	}
	vm.APIVersion = versions.Video
	return vm
}

type seriesQuery struct {
	title     string
	startYear int
	imdbID    string
	tmdbTVID  int64
}

func (q seriesQuery) failedKey() string {
	key := textutil.SimplifiedName(q.title) + q.imdbID
	if q.tmdbTVID > 0 {
		key += strconv.FormatInt(q.tmdbTVID, 10)
	}
	return key
}

// lookupSeries finds or fetches the series an episode belongs to. Errors are
// logged and leave the episode unlinked.
func (e *Enricher) lookupSeries(ctx context.Context, q seriesQuery, versions Versions) *seriesResult {
	logger := logging.WithContext(ctx, e.logger).With(logging.String("series", q.title))
	res := &seriesResult{tmdbTVID: q.tmdbTVID}

	existing, err := e.store.GetSeriesByTmdbID(ctx, q.tmdbTVID)
	if err == nil && existing == nil {
		existing, err = e.store.GetSeriesByImdbID(ctx, q.imdbID)
	}
	if err != nil {
		logging.WarnWithContext(logger, "series lookup in store failed", "series_store_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "episode is not linked to its series"),
		)
		return res
	}
	if existing != nil {
		res.id = existing.ID
		if res.tmdbTVID == 0 {
			res.tmdbTVID = existing.TMDbID
		}
		return res
	}

	simplified := textutil.SimplifiedName(q.title)
	key := q.failedKey()
	recent, err := e.store.HasLookupFailedRecently(ctx, key, false)
	if err != nil || recent {
		return res
	}

	resp, err := e.catalog.Series(ctx, catalog.SeriesQuery{
		Title:     mediainfo.StripYear(q.title, q.startYear),
		StartYear: q.startYear,
		IMDbID:    q.imdbID,
	})
	if err != nil {
		logging.WarnWithContext(logger, "series lookup failed; will retry later", "series_lookup_transient",
			logging.Error(err),
			logging.String(logging.FieldImpact, "episode is not linked to its series"),
		)
		return res
	}
	if resp.Status.IsServerError() {
		logger.Info("catalog series endpoint failed", logging.Int("status", resp.Status.StatusCode))
		return res
	}
	if !resp.OK() || !resp.Data.Identifies() {
		serverResponse := resp.Body
		if resp.Status != nil {
			serverResponse = resp.Status.ServerResponse
		}
		res.failure = &failure{key: key, reason: "No API result - expected " + simplified, serverResponse: serverResponse}
		return res
	}

	data := resp.Data
	title := mediainfo.WithStartYear(data.String("title"), q.startYear)
	if q.imdbID == "" && textutil.SimplifiedName(title) != simplified {
		res.failure = &failure{key: key, reason: fmt.Sprintf("Title mismatch - expected %s but got %s", simplified, textutil.SimplifiedName(title))}
		return res
	}
	if kind := data.String("type"); kind != "series" {
		res.failure = &failure{key: key, reason: "Type mismatch - expected series but got " + kind}
		return res
	}

	series := &mediainfo.TvSeriesMetadata{Title: title, StartYear: q.startYear}
	applySeriesFields(series, data)
	series.Title = title
	series.APIVersion = versions.Series
	series.Poster = catalog.PosterURL(versions.ImageBaseURL, data.String("poster"), data.String("posterRelativePath"))
	res.poster = e.fetchPoster(ctx, series.Poster)
	res.created = series
	if res.tmdbTVID == 0 {
		res.tmdbTVID = series.TMDbID
	}
	return res
}

func (e *Enricher) fetchPoster(ctx context.Context, url string) *image {
	if url == "" {
		return nil
	}
	data, mime, err := e.catalog.FetchImage(ctx, url)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, e.logger), "poster download failed", "poster_fetch_failed",
			logging.String("url", url),
			logging.Error(err),
			logging.String(logging.FieldImpact, "no thumbnail until the next lookup"),
		)
		return nil
	}
	return &image{data: data, mime: mime}
}
