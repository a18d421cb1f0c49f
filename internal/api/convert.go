package api

import (
	"slices"
	"time"

	"mediahub/internal/language"
	"mediahub/internal/library"
	"mediahub/internal/mediainfo"
	"mediahub/internal/store"
)

// FromScanResult converts a library scan result.
func FromScanResult(r library.Result) ScanResult {
	return ScanResult{
		StartedAt:  formatTime(r.Started),
		DurationMs: r.Duration.Milliseconds(),
		Folders:    r.Folders,
		Files:      r.Files,
		Valid:      r.Valid,
		Invalid:    r.Invalid,
		Skipped:    r.Skipped,
		Errors:     append([]string(nil), r.Errors...),
	}
}

// FromFailedLookup converts a negative-cache row.
func FromFailedLookup(f store.FailedLookup) FailedLookup {
	return FailedLookup{
		Key:            f.Key,
		FileLevel:      f.FileLevel,
		Reason:         f.Reason,
		ServerResponse: f.ServerResponse,
		Attempts:       f.Attempts,
		LastAttempt:    formatTime(f.LastAttempt),
	}
}

// FromStoreStats converts store row counts.
func FromStoreStats(s store.Stats) StoreStats {
	return StoreStats(s)
}

// FromMediaInfo summarizes mi. It returns nil for a nil MediaInfo.
func FromMediaInfo(mi *mediainfo.MediaInfo) *MediaSummary {
	if mi == nil {
		return nil
	}
	out := &MediaSummary{
		Container:   mi.Container,
		MimeType:    mi.MimeType,
		Duration:    mi.Duration,
		Bitrate:     mi.Bitrate,
		Width:       mi.Width,
		Height:      mi.Height,
		VideoCodec:  mi.VideoCodec,
		AudioTracks: len(mi.AudioTracks()),
		Subtitles:   len(mi.SubtitleTracks()),
		ParsedBy:    mi.ParsedBy,
	}
	for _, track := range mi.AudioTracks() {
		if code := language.Normalize(track.Language); code != "" && !slices.Contains(out.AudioLangs, code) {
			out.AudioLangs = append(out.AudioLangs, code)
		}
	}
	if thumb, ok := mi.Thumbnail(); ok {
		out.ThumbnailID = thumb.ID
		out.ThumbnailFrom = thumb.Source
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
