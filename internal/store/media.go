package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mediahub/internal/format"
	"mediahub/internal/mediainfo"
)

// GetMediaInfo returns the persisted MediaInfo for key when it was stored for
// the same modification time. A missing row, a different mod time or a row
// without parse output yields nil, nil.
func (q *queries) GetMediaInfo(ctx context.Context, key string, modTime int64) (*mediainfo.MediaInfo, error) {
	var payload sql.NullString
	err := q.queryRow(ctx,
		`SELECT info_json FROM media_files WHERE path = ? AND mod_time = ?`,
		[]any{key, modTime}, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get media info: %w", err)
	}
	if !payload.Valid || payload.String == "" {
		return nil, nil
	}
	mi, err := mediainfo.Decode([]byte(payload.String))
	if err != nil {
		return nil, fmt.Errorf("get media info %q: %w", key, err)
	}
	return mi, nil
}

// UpsertMediaInfo stores mi for key at modTime and returns the file id. A
// changed mod time replaces the previous row's contents in place.
func (q *queries) UpsertMediaInfo(ctx context.Context, key string, modTime int64, typeHint format.Type, mi *mediainfo.MediaInfo) (int64, error) {
	var payload sql.NullString
	parsed := false
	thumbnailID := sql.NullInt64{}
	if mi != nil {
		data, err := mi.Encode()
		if err != nil {
			return 0, fmt.Errorf("encode media info: %w", err)
		}
		payload = nullableString(string(data))
		parsed = mi.IsParsed()
		if thumb, ok := mi.Thumbnail(); ok {
			thumbnailID = nullableInt64(thumb.ID)
		}
	}
	now := q.timestamp()
	var id int64
	err := q.queryRow(ctx, `
		INSERT INTO media_files (path, mod_time, type_hint, parsed, info_json, thumbnail_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			mod_time = excluded.mod_time,
			type_hint = excluded.type_hint,
			parsed = excluded.parsed,
			info_json = excluded.info_json,
			thumbnail_id = COALESCE(excluded.thumbnail_id, media_files.thumbnail_id),
			updated_at = excluded.updated_at
		RETURNING id`,
		[]any{key, modTime, int(typeHint), boolToInt(parsed), payload, thumbnailID, now, now}, &id)
	if err != nil {
		return 0, fmt.Errorf("upsert media info: %w", err)
	}
	return id, nil
}

// FileID returns the row id for key at modTime, or 0 when absent.
func (q *queries) FileID(ctx context.Context, key string, modTime int64) (int64, error) {
	var id int64
	err := q.queryRow(ctx,
		`SELECT id FROM media_files WHERE path = ? AND mod_time = ?`,
		[]any{key, modTime}, &id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get file id: %w", err)
	}
	return id, nil
}

// EnsureFile returns the file id for key at modTime, inserting an empty row
// when none exists. An existing row for an older mod time is cleared.
func (q *queries) EnsureFile(ctx context.Context, key string, modTime int64) (int64, error) {
	id, err := q.FileID(ctx, key, modTime)
	if err != nil || id > 0 {
		return id, err
	}
	return q.UpsertMediaInfo(ctx, key, modTime, format.Unknown, nil)
}

// SetFileThumbnail attaches a stored thumbnail to the file row.
func (q *queries) SetFileThumbnail(ctx context.Context, fileID, thumbnailID int64) error {
	if _, err := q.exec(ctx,
		`UPDATE media_files SET thumbnail_id = ?, updated_at = ? WHERE id = ?`,
		nullableInt64(thumbnailID), q.timestamp(), fileID); err != nil {
		return fmt.Errorf("set file thumbnail: %w", err)
	}
	return nil
}

// RemoveMediaFiles deletes rows for the given keys along with their video
// metadata. It returns the number of rows removed.
func (q *queries) RemoveMediaFiles(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	args := make([]any, len(keys))
	for i, key := range keys {
		args[i] = key
	}
	res, err := q.exec(ctx,
		`DELETE FROM media_files WHERE path IN (`+makePlaceholders(len(keys))+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("remove media files: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
