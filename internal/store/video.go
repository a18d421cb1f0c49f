package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"mediahub/internal/mediainfo"
)

// DoesLatestAPIMetadataExist reports whether catalog metadata stamped with
// apiVersion is stored for key at exactly modTime.
func (q *queries) DoesLatestAPIMetadataExist(ctx context.Context, key string, modTime int64, apiVersion string) (bool, error) {
	var one int
	err := q.queryRow(ctx, `
		SELECT 1 FROM media_files f
		JOIN video_metadata v ON v.file_id = f.id
		WHERE f.path = ? AND f.mod_time = ? AND v.api_version = ?`,
		[]any{key, modTime, apiVersion}, &one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check api metadata: %w", err)
	}
	return true, nil
}

// UpsertVideoMetadata stores vm for the file row fileID.
func (q *queries) UpsertVideoMetadata(ctx context.Context, fileID int64, vm *mediainfo.VideoMetadata) error {
	if vm == nil {
		return errors.New("upsert video metadata: metadata is nil")
	}
	payload, err := json.Marshal(vm)
	if err != nil {
		return fmt.Errorf("encode video metadata: %w", err)
	}
	season := sql.NullInt64{}
	if vm.IsTVEpisode {
		season = sql.NullInt64{Int64: int64(vm.TVSeason), Valid: true}
	}
	if _, err := q.exec(ctx, `
		INSERT INTO video_metadata (file_id, title, year, is_tv_episode, tv_season, tv_episode,
			tv_series_id, imdb_id, tmdb_id, tmdb_tv_id, api_version, metadata_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id) DO UPDATE SET
			title = excluded.title,
			year = excluded.year,
			is_tv_episode = excluded.is_tv_episode,
			tv_season = excluded.tv_season,
			tv_episode = excluded.tv_episode,
			tv_series_id = excluded.tv_series_id,
			imdb_id = excluded.imdb_id,
			tmdb_id = excluded.tmdb_id,
			tmdb_tv_id = excluded.tmdb_tv_id,
			api_version = excluded.api_version,
			metadata_json = excluded.metadata_json,
			updated_at = excluded.updated_at`,
		fileID,
		nullableString(vm.Title),
		nullableInt64(int64(vm.Year)),
		boolToInt(vm.IsTVEpisode),
		season,
		nullableString(vm.TVEpisode),
		nullableInt64(vm.TVSeriesID),
		nullableString(vm.IMDbID),
		nullableInt64(vm.TMDbID),
		nullableInt64(vm.TMDbTVID),
		nullableString(vm.APIVersion),
		string(payload),
		q.timestamp(),
	); err != nil {
		return fmt.Errorf("upsert video metadata: %w", err)
	}
	return nil
}

// GetVideoMetadata returns the stored metadata for fileID, or nil.
func (q *queries) GetVideoMetadata(ctx context.Context, fileID int64) (*mediainfo.VideoMetadata, error) {
	var payload string
	err := q.queryRow(ctx,
		`SELECT metadata_json FROM video_metadata WHERE file_id = ?`,
		[]any{fileID}, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get video metadata: %w", err)
	}
	var vm mediainfo.VideoMetadata
	if err := json.Unmarshal([]byte(payload), &vm); err != nil {
		return nil, fmt.Errorf("decode video metadata: %w", err)
	}
	return &vm, nil
}

// LinkVideoToSeries updates the stored series link for fileID.
func (q *queries) LinkVideoToSeries(ctx context.Context, fileID, seriesID int64) error {
	if _, err := q.exec(ctx,
		`UPDATE video_metadata SET tv_series_id = ?, updated_at = ? WHERE file_id = ?`,
		nullableInt64(seriesID), q.timestamp(), fileID); err != nil {
		return fmt.Errorf("link video to series: %w", err)
	}
	return nil
}
