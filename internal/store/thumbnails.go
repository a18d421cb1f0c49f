package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Thumbnail is a stored image.
type Thumbnail struct {
	ID       int64
	Hash     string
	MimeType string
	Source   string
	Data     []byte
}

// ContentHash returns the deduplication key for image bytes.
func ContentHash(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

// StoreThumbnail saves image bytes and returns their row id. Identical bytes
// share one row.
func (q *queries) StoreThumbnail(ctx context.Context, data []byte, mimeType, source string) (int64, error) {
	if len(data) == 0 {
		return 0, errors.New("store thumbnail: image is empty")
	}
	var id int64
	err := q.queryRow(ctx, `
		INSERT INTO thumbnails (hash, mime_type, source, data, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET source = COALESCE(excluded.source, thumbnails.source)
		RETURNING id`,
		[]any{ContentHash(data), nullableString(mimeType), nullableString(source), data, q.timestamp()}, &id)
	if err != nil {
		return 0, fmt.Errorf("store thumbnail: %w", err)
	}
	return id, nil
}

// GetThumbnail returns the image stored under id, or nil.
func (q *queries) GetThumbnail(ctx context.Context, id int64) (*Thumbnail, error) {
	var (
		thumb    = Thumbnail{ID: id}
		mimeType sql.NullString
		source   sql.NullString
	)
	err := q.queryRow(ctx,
		`SELECT hash, mime_type, source, data FROM thumbnails WHERE id = ?`,
		[]any{id}, &thumb.Hash, &mimeType, &source, &thumb.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get thumbnail: %w", err)
	}
	thumb.MimeType = mimeType.String
	thumb.Source = source.String
	return &thumb, nil
}
