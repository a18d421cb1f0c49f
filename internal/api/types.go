package api

import "mediahub/internal/mediainfo"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// StoreStats mirrors store row counts.
type StoreStats struct {
	MediaFiles    int64 `json:"mediaFiles"`
	ParsedFiles   int64 `json:"parsedFiles"`
	VideoMetadata int64 `json:"videoMetadata"`
	Series        int64 `json:"series"`
	FailedLookups int64 `json:"failedLookups"`
	Thumbnails    int64 `json:"thumbnails"`
}

// EnrichmentStatus summarizes the background lookup pool.
type EnrichmentStatus struct {
	Active        bool   `json:"active"`
	Workers       int    `json:"workers"`
	Pending       int    `json:"pending"`
	Current       string `json:"current,omitempty"`
	SeriesVersion string `json:"seriesVersion,omitempty"`
	VideoVersion  string `json:"videoVersion,omitempty"`
	ImageBaseURL  string `json:"imageBaseUrl,omitempty"`
}

// ScanResult reports one library scan.
type ScanResult struct {
	StartedAt  string   `json:"startedAt,omitempty"`
	DurationMs int64    `json:"durationMs"`
	Folders    int      `json:"folders"`
	Files      int      `json:"files"`
	Valid      int      `json:"valid"`
	Invalid    int      `json:"invalid"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors,omitempty"`
}

// LibraryStatus summarizes shared folders and scanning.
type LibraryStatus struct {
	Folders  []string    `json:"folders"`
	Watching bool        `json:"watching"`
	Scanning bool        `json:"scanning"`
	LastScan *ScanResult `json:"lastScan,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool             `json:"running"`
	PID          int              `json:"pid"`
	StartedAt    string           `json:"startedAt,omitempty"`
	DatabasePath string           `json:"databasePath"`
	LockFilePath string           `json:"lockFilePath"`
	CacheEntries int              `json:"cacheEntries"`
	Store        StoreStats       `json:"store"`
	Enrichment   EnrichmentStatus `json:"enrichment"`
	Library      LibraryStatus    `json:"library"`
}

// MediaSummary is the technical part of a resolved file.
type MediaSummary struct {
	Container     string   `json:"container,omitempty"`
	MimeType      string   `json:"mimeType,omitempty"`
	Duration      float64  `json:"duration,omitempty"`
	Bitrate       int      `json:"bitrate,omitempty"`
	Width         int      `json:"width,omitempty"`
	Height        int      `json:"height,omitempty"`
	VideoCodec    string   `json:"videoCodec,omitempty"`
	AudioTracks   int      `json:"audioTracks"`
	AudioLangs    []string `json:"audioLanguages,omitempty"`
	Subtitles     int      `json:"subtitleTracks"`
	ParsedBy      string   `json:"parsedBy,omitempty"`
	ThumbnailID   int64    `json:"thumbnailId,omitempty"`
	ThumbnailFrom string   `json:"thumbnailSource,omitempty"`
}

// ResolveResponse describes one file as the server would list it.
type ResolveResponse struct {
	Path     string                   `json:"path"`
	Valid    bool                     `json:"valid"`
	State    string                   `json:"state"`
	Format   string                   `json:"format,omitempty"`
	Media    *MediaSummary            `json:"media,omitempty"`
	Metadata *mediainfo.VideoMetadata `json:"metadata,omitempty"`
}

// FailedLookup is one negative-cache entry.
type FailedLookup struct {
	Key            string `json:"key"`
	FileLevel      bool   `json:"fileLevel"`
	Reason         string `json:"reason"`
	ServerResponse string `json:"serverResponse,omitempty"`
	Attempts       int    `json:"attempts"`
	LastAttempt    string `json:"lastAttempt,omitempty"`
}

// FailedLookupsResponse wraps failed lookups.
type FailedLookupsResponse struct {
	Items []FailedLookup `json:"items"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}
