package enrichment

import (
	"context"

	"mediahub/internal/logging"
	"mediahub/internal/mediainfo"
	"mediahub/internal/services"
	"mediahub/internal/store"
)

// apply writes p in one session and then updates the in-memory MediaInfo.
func (e *Enricher) apply(ctx context.Context, req request, p *plan) (Outcome, error) {
	logger := logging.WithContext(ctx, e.logger).With(logging.Path(req.key))
	sess, err := e.store.Begin(ctx)
	if err != nil {
		return Outcome{}, services.Wrap(services.ErrTransient, "enrichment", "apply", "begin session", err)
	}
	defer func() {
		if err := sess.Rollback(); err != nil {
			logger.Warn("session rollback failed", logging.Error(err))
		}
	}()

	out := Outcome{}
	var seriesID, tmdbTVID int64
	if s := p.series; s != nil {
		seriesID, tmdbTVID = s.id, s.tmdbTVID
		if s.created != nil {
			id, err := e.storeSeries(ctx, sess, s)
			if err != nil {
				return Outcome{}, err
			}
			seriesID = id
		}
		if s.failure != nil {
			if err := recordFailure(ctx, sess, s.failure); err != nil {
				return Outcome{}, err
			}
		}
	}
	out.SeriesID = seriesID

	var thumbnail *mediainfo.Thumbnail
	if p.video != nil {
		vm := p.video
		if vm.IsTVEpisode {
			if seriesID > 0 {
				vm.TVSeriesID = seriesID
			}
			if tmdbTVID > 0 {
				vm.TMDbTVID = tmdbTVID
			}
		}
		fileID, err := sess.EnsureFile(ctx, req.key, req.modTime)
		if err != nil {
			return Outcome{}, wrapStore("ensure file", err)
		}
		if err := sess.UpsertVideoMetadata(ctx, fileID, vm); err != nil {
			return Outcome{}, wrapStore("store video metadata", err)
		}
		if p.poster != nil {
			thumbID, err := sess.StoreThumbnail(ctx, p.poster.data, p.poster.mime, ThumbnailSource)
			if err != nil {
				return Outcome{}, wrapStore("store thumbnail", err)
			}
			if err := sess.SetFileThumbnail(ctx, fileID, thumbID); err != nil {
				return Outcome{}, wrapStore("link thumbnail", err)
			}
			thumbnail = &mediainfo.Thumbnail{ID: thumbID, Source: ThumbnailSource}
		}
		if p.suppress {
			if err := sess.RecordFailedLookup(ctx, req.key, ReasonMissingIDs, true); err != nil {
				return Outcome{}, wrapStore("record failed lookup", err)
			}
			out.Reason = ReasonMissingIDs
		} else if err := sess.RemoveFailedLookup(ctx, req.key, true); err != nil {
			return Outcome{}, wrapStore("clear failed lookup", err)
		}
		if _, err := sess.BumpUpdateCounter(ctx, req.key); err != nil {
			return Outcome{}, wrapStore("bump update counter", err)
		}
		out.Stored = true
		out.SuppressRetry = p.suppress
		out.Metadata = vm
	} else {
		if seriesID > 0 {
			if fileID, err := sess.FileID(ctx, req.key, req.modTime); err == nil && fileID > 0 {
				if err := sess.LinkVideoToSeries(ctx, fileID, seriesID); err != nil {
					return Outcome{}, wrapStore("link series", err)
				}
			}
		}
		if p.failure != nil {
			if err := recordFailure(ctx, sess, p.failure); err != nil {
				return Outcome{}, err
			}
			out.Reason = p.failure.reason
			out.SuppressRetry = true
		}
	}

	if err := sess.Commit(); err != nil {
		return Outcome{}, wrapStore("commit", err)
	}
	e.updateMediaInfo(req, out, seriesID, tmdbTVID, thumbnail)
	return out, nil
}

func (e *Enricher) storeSeries(ctx context.Context, sess *store.Session, s *seriesResult) (int64, error) {
	series := s.created
	id, err := sess.UpsertSeries(ctx, series.Title, series.StartYear)
	if err != nil {
		return 0, wrapStore("upsert series", err)
	}
	series.ID = id
	if s.poster != nil {
		thumbID, err := sess.StoreThumbnail(ctx, s.poster.data, s.poster.mime, ThumbnailSource)
		if err != nil {
			return 0, wrapStore("store series thumbnail", err)
		}
		series.ThumbnailID = thumbID
	}
	if err := sess.UpdateSeriesMetadata(ctx, series); err != nil {
		return 0, wrapStore("store series metadata", err)
	}
	return id, nil
}

func recordFailure(ctx context.Context, sess *store.Session, f *failure) error {
	if err := sess.RecordFailedLookupResponse(ctx, f.key, f.reason, f.serverResponse, f.fileLevel); err != nil {
		return wrapStore("record failed lookup", err)
	}
	return nil
}

func (e *Enricher) updateMediaInfo(req request, out Outcome, seriesID, tmdbTVID int64, thumbnail *mediainfo.Thumbnail) {
	mi := req.mi
	if mi == nil {
		return
	}
	switch {
	case out.Stored:
		mi.SetVideoMetadata(out.Metadata)
	case seriesID > 0:
		if vm := mi.VideoMetadata(); vm != nil {
			vm.TVSeriesID = seriesID
			if tmdbTVID > 0 {
				vm.TMDbTVID = tmdbTVID
			}
			mi.SetVideoMetadata(vm)
		}
	}
	if thumbnail != nil {
		mi.WaitParsing(thumbnailWait)
		mi.SetThumbnail(*thumbnail)
	}
}

func wrapStore(message string, err error) error {
	return services.Wrap(services.ErrTransient, "enrichment", "apply", message, err)
}
