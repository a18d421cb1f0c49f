package enrichment

import (
	"context"
	"strconv"
	"strings"

	"mediahub/internal/catalog"
	"mediahub/internal/logging"
	"mediahub/internal/services"
	"mediahub/internal/store"
)

// Localization media types.
const (
	MediaMovie     = "movie"
	MediaTV        = "tv"
	MediaTVEpisode = "tv_episode"
)

// LocalizeRequest selects a localized record. Season and Episode are
// ignored unless both are positive.
type LocalizeRequest struct {
	Language  string
	MediaType string
	IMDbID    string
	TMDbID    int64
	Season    int
	Episode   int
}

// Localize returns language-specific catalog fields, serving them from the
// store when cached.
func (e *Enricher) Localize(ctx context.Context, req LocalizeRequest) (*store.Localized, error) {
	req.Language = strings.TrimSpace(req.Language)
	if req.Language == "" {
		req.Language = e.cfg.Catalog.Language
	}
	switch req.MediaType {
	case MediaMovie, MediaTV, MediaTVEpisode:
	default:
		return nil, services.Wrap(services.ErrValidation, "enrichment", "localize", "unknown media type "+strconv.Quote(req.MediaType), nil)
	}
	if req.IMDbID == "" && req.TMDbID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "enrichment", "localize", "imdb or tmdb id required", nil)
	}

	key := store.LocalizedKey{
		Language:  req.Language,
		MediaType: req.MediaType,
		IMDbID:    req.IMDbID,
		TMDbID:    req.TMDbID,
		Season:    -1,
		Episode:   -1,
	}
	if req.Season > 0 && req.Episode > 0 {
		key.Season, key.Episode = req.Season, req.Episode
	}

	if e.store != nil {
		cached, err := e.store.GetLocalized(ctx, key)
		if err != nil {
			logging.WarnWithContext(e.logger, "localized cache read failed", "localize_store_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "localized data is fetched again"),
			)
		} else if cached != nil {
			return cached, nil
		}
	}

	if !e.catalogReachable() {
		return nil, services.Wrap(services.ErrConfiguration, "enrichment", "localize", "external network disabled", nil)
	}
	query := catalog.LocalizeQuery{
		Language:  req.Language,
		MediaType: req.MediaType,
		IMDbID:    req.IMDbID,
		TMDbID:    req.TMDbID,
	}
	if key.Season > 0 {
		query.Season = key.Season
		query.Episode = strconv.Itoa(key.Episode)
	}
	resp, err := e.catalog.Localize(ctx, query)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		detail := "no localized metadata"
		if resp.Status != nil {
			detail = "catalog returned status " + strconv.Itoa(resp.Status.StatusCode)
			if resp.Status.IsServerError() {
				return nil, services.Wrap(services.ErrTransient, "enrichment", "localize", detail, nil)
			}
		}
		return nil, services.Wrap(services.ErrNotFound, "enrichment", "localize", detail, nil)
	}

	data := resp.Data
	rec := &store.Localized{
		Key:      key,
		Title:    data.String("title"),
		Overview: data.String("overview"),
		Tagline:  data.String("tagline"),
		Homepage: data.String("homepage"),
	}
	if relative := data.String("posterRelativePath"); relative != "" {
		rec.Poster = catalog.PosterURL(e.Versions(ctx).ImageBaseURL, "", relative)
	}
	rec.ResolvedTMDbID, _ = data.Int64("tmdbID")
	if e.store != nil {
		if err := e.store.PutLocalized(ctx, rec); err != nil {
			logging.WarnWithContext(e.logger, "localized cache write failed", "localize_store_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "localized data is fetched again next time"),
			)
		}
	}
	return rec, nil
}
