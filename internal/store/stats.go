package store

import (
	"context"
	"fmt"
)

// Stats summarises table sizes for status output.
type Stats struct {
	MediaFiles    int64 `json:"media_files"`
	ParsedFiles   int64 `json:"parsed_files"`
	VideoMetadata int64 `json:"video_metadata"`
	Series        int64 `json:"series"`
	FailedLookups int64 `json:"failed_lookups"`
	Thumbnails    int64 `json:"thumbnails"`
}

// Stats counts rows in the main tables.
func (q *queries) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := q.queryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM media_files),
			(SELECT COUNT(*) FROM media_files WHERE parsed = 1),
			(SELECT COUNT(*) FROM video_metadata),
			(SELECT COUNT(*) FROM tv_series),
			(SELECT COUNT(*) FROM failed_lookups),
			(SELECT COUNT(*) FROM thumbnails)`,
		nil,
		&stats.MediaFiles, &stats.ParsedFiles, &stats.VideoMetadata,
		&stats.Series, &stats.FailedLookups, &stats.Thumbnails)
	if err != nil {
		return Stats{}, fmt.Errorf("store stats: %w", err)
	}
	return stats, nil
}
