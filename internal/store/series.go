package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"mediahub/internal/mediainfo"
	"mediahub/internal/textutil"
)

const seriesColumns = `id, title, start_year, imdb_id, tmdb_id, api_version, thumbnail_id, metadata_json`

// GetSeriesByTmdbID returns the series with the given catalog id, or nil.
func (q *queries) GetSeriesByTmdbID(ctx context.Context, tmdbID int64) (*mediainfo.TvSeriesMetadata, error) {
	if tmdbID <= 0 {
		return nil, nil
	}
	return q.getSeries(ctx, `SELECT `+seriesColumns+` FROM tv_series WHERE tmdb_id = ? ORDER BY id LIMIT 1`, tmdbID)
}

// GetSeriesByImdbID returns the series with the given IMDb id, or nil.
func (q *queries) GetSeriesByImdbID(ctx context.Context, imdbID string) (*mediainfo.TvSeriesMetadata, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, nil
	}
	return q.getSeries(ctx, `SELECT `+seriesColumns+` FROM tv_series WHERE imdb_id = ? ORDER BY id LIMIT 1`, imdbID)
}

// GetSeriesByID returns the series row id, or nil.
func (q *queries) GetSeriesByID(ctx context.Context, id int64) (*mediainfo.TvSeriesMetadata, error) {
	return q.getSeries(ctx, `SELECT `+seriesColumns+` FROM tv_series WHERE id = ?`, id)
}

// GetSeriesByTitle returns the series stored under the simplified form of
// title and startYear, or nil.
func (q *queries) GetSeriesByTitle(ctx context.Context, title string, startYear int) (*mediainfo.TvSeriesMetadata, error) {
	return q.getSeries(ctx,
		`SELECT `+seriesColumns+` FROM tv_series WHERE simplified_title = ? AND start_year = ?`,
		textutil.SimplifiedName(title), startYear)
}

func (q *queries) getSeries(ctx context.Context, query string, args ...any) (*mediainfo.TvSeriesMetadata, error) {
	var (
		id          int64
		title       string
		startYear   int
		imdbID      sql.NullString
		tmdbID      sql.NullInt64
		apiVersion  sql.NullString
		thumbnailID sql.NullInt64
		payload     sql.NullString
	)
	err := q.queryRow(ctx, query, args, &id, &title, &startYear, &imdbID, &tmdbID, &apiVersion, &thumbnailID, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	series := &mediainfo.TvSeriesMetadata{}
	if payload.Valid && payload.String != "" {
		if err := json.Unmarshal([]byte(payload.String), series); err != nil {
			return nil, fmt.Errorf("decode series %d: %w", id, err)
		}
	}
	series.ID = id
	series.Title = title
	series.SimplifiedTitle = textutil.SimplifiedName(title)
	series.StartYear = startYear
	series.IMDbID = imdbID.String
	series.TMDbID = tmdbID.Int64
	series.APIVersion = apiVersion.String
	series.ThumbnailID = thumbnailID.Int64
	return series, nil
}

// UpsertSeries returns the id of the series row for title and startYear,
// creating it when needed. Titles are matched by simplified form.
func (q *queries) UpsertSeries(ctx context.Context, title string, startYear int) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, errors.New("upsert series: title is required")
	}
	var id int64
	err := q.queryRow(ctx, `
		INSERT INTO tv_series (title, simplified_title, start_year, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(simplified_title, start_year) DO UPDATE SET updated_at = excluded.updated_at
		RETURNING id`,
		[]any{title, textutil.SimplifiedName(title), startYear, q.timestamp()}, &id)
	if err != nil {
		return 0, fmt.Errorf("upsert series: %w", err)
	}
	return id, nil
}

// UpdateSeriesMetadata writes catalog data for an existing row identified by
// series.ID.
func (q *queries) UpdateSeriesMetadata(ctx context.Context, series *mediainfo.TvSeriesMetadata) error {
	if series == nil || series.ID <= 0 {
		return errors.New("update series metadata: series id is required")
	}
	payload, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("encode series metadata: %w", err)
	}
	if _, err := q.exec(ctx, `
		UPDATE tv_series SET
			title = ?,
			imdb_id = ?,
			tmdb_id = ?,
			api_version = ?,
			thumbnail_id = COALESCE(?, thumbnail_id),
			metadata_json = ?,
			updated_at = ?
		WHERE id = ?`,
		series.Title,
		nullableString(series.IMDbID),
		nullableInt64(series.TMDbID),
		nullableString(series.APIVersion),
		nullableInt64(series.ThumbnailID),
		string(payload),
		q.timestamp(),
		series.ID,
	); err != nil {
		return fmt.Errorf("update series metadata: %w", err)
	}
	return nil
}
