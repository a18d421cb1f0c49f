package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// LocalizedKey identifies one localized catalog record. Season and Episode
// are -1 when not applicable.
type LocalizedKey struct {
	Language  string
	MediaType string
	IMDbID    string
	TMDbID    int64
	Season    int
	Episode   int
}

// Localized holds language-specific catalog fields.
type Localized struct {
	Key            LocalizedKey
	Title          string
	Overview       string
	Tagline        string
	Homepage       string
	Poster         string
	ResolvedTMDbID int64
	UpdatedAt      time.Time
}

func (k LocalizedKey) args() []any {
	return []any{strings.ToLower(k.Language), k.MediaType, k.IMDbID, k.TMDbID, k.Season, k.Episode}
}

// GetLocalized returns the cached record for key, or nil.
func (q *queries) GetLocalized(ctx context.Context, key LocalizedKey) (*Localized, error) {
	var (
		out      = Localized{Key: key}
		title    sql.NullString
		overview sql.NullString
		tagline  sql.NullString
		homepage sql.NullString
		poster   sql.NullString
		resolved sql.NullInt64
		updated  string
	)
	err := q.queryRow(ctx, `
		SELECT title, overview, tagline, homepage, poster, resolved_tmdb_id, updated_at
		FROM localized_metadata
		WHERE language = ? AND media_type = ? AND imdb_id = ? AND tmdb_id = ? AND season = ? AND episode = ?`,
		key.args(), &title, &overview, &tagline, &homepage, &poster, &resolved, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get localized metadata: %w", err)
	}
	out.Title = title.String
	out.Overview = overview.String
	out.Tagline = tagline.String
	out.Homepage = homepage.String
	out.Poster = poster.String
	out.ResolvedTMDbID = resolved.Int64
	out.UpdatedAt = parseTimeString(updated)
	return &out, nil
}

// PutLocalized stores or replaces a localized record.
func (q *queries) PutLocalized(ctx context.Context, rec *Localized) error {
	if rec == nil {
		return errors.New("put localized metadata: record is nil")
	}
	args := append(rec.Key.args(),
		nullableString(rec.Title),
		nullableString(rec.Overview),
		nullableString(rec.Tagline),
		nullableString(rec.Homepage),
		nullableString(rec.Poster),
		nullableInt64(rec.ResolvedTMDbID),
		q.timestamp(),
	)
	if _, err := q.exec(ctx, `
		INSERT INTO localized_metadata (language, media_type, imdb_id, tmdb_id, season, episode,
			title, overview, tagline, homepage, poster, resolved_tmdb_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(language, media_type, imdb_id, tmdb_id, season, episode) DO UPDATE SET
			title = excluded.title,
			overview = excluded.overview,
			tagline = excluded.tagline,
			homepage = excluded.homepage,
			poster = excluded.poster,
			resolved_tmdb_id = excluded.resolved_tmdb_id,
			updated_at = excluded.updated_at`,
		args...); err != nil {
		return fmt.Errorf("put localized metadata: %w", err)
	}
	return nil
}
