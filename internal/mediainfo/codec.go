package mediainfo

import (
	"encoding/json"
	"fmt"
)

type record struct {
	State       ParseState      `json:"state"`
	Container   string          `json:"container,omitempty"`
	Duration    float64         `json:"duration,omitempty"`
	Bitrate     int             `json:"bitrate,omitempty"`
	Size        int64           `json:"size,omitempty"`
	Width       int             `json:"width,omitempty"`
	Height      int             `json:"height,omitempty"`
	FrameRate   string          `json:"frame_rate,omitempty"`
	VideoCodec  string          `json:"video_codec,omitempty"`
	MimeType    string          `json:"mime_type,omitempty"`
	Encrypted   bool            `json:"encrypted,omitempty"`
	ParsedBy    string          `json:"parsed_by,omitempty"`
	Title       string          `json:"title,omitempty"`
	ImageCount  int             `json:"image_count,omitempty"`
	StreamTitle string          `json:"stream_title,omitempty"`
	Video       []VideoTrack    `json:"video,omitempty"`
	Audio       []AudioTrack    `json:"audio,omitempty"`
	Subtitles   []SubtitleTrack `json:"subtitles,omitempty"`
	Chapters    []Chapter       `json:"chapters,omitempty"`
	Thumbnail   *Thumbnail      `json:"thumbnail,omitempty"`
	VideoMeta   *VideoMetadata  `json:"video_metadata,omitempty"`
	AudioMeta   *AudioMetadata  `json:"audio_metadata,omitempty"`
}

// Encode serialises the MediaInfo for persistent storage.
func (m *MediaInfo) Encode() ([]byte, error) {
	m.mu.RLock()
	rec := record{
		State:       m.state,
		Container:   m.Container,
		Duration:    m.Duration,
		Bitrate:     m.Bitrate,
		Size:        m.Size,
		Width:       m.Width,
		Height:      m.Height,
		FrameRate:   m.FrameRate,
		VideoCodec:  m.VideoCodec,
		MimeType:    m.MimeType,
		Encrypted:   m.Encrypted,
		ParsedBy:    m.ParsedBy,
		Title:       m.Title,
		ImageCount:  m.ImageCount,
		StreamTitle: m.StreamTitle,
		Video:       m.video,
		Audio:       m.audio,
		Subtitles:   m.subtitles,
		Chapters:    m.chapters,
		Thumbnail:   m.thumbnail,
		VideoMeta:   m.videoMeta,
		AudioMeta:   m.audioMeta,
	}
	data, err := json.Marshal(rec)
	m.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("encode media info: %w", err)
	}
	return data, nil
}

// Decode restores a MediaInfo produced by Encode.
func Decode(data []byte) (*MediaInfo, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode media info: %w", err)
	}
	return &MediaInfo{
		Container:   rec.Container,
		Duration:    rec.Duration,
		Bitrate:     rec.Bitrate,
		Size:        rec.Size,
		Width:       rec.Width,
		Height:      rec.Height,
		FrameRate:   rec.FrameRate,
		VideoCodec:  rec.VideoCodec,
		MimeType:    rec.MimeType,
		Encrypted:   rec.Encrypted,
		ParsedBy:    rec.ParsedBy,
		Title:       rec.Title,
		ImageCount:  rec.ImageCount,
		StreamTitle: rec.StreamTitle,
		state:       rec.State,
		video:       rec.Video,
		audio:       rec.Audio,
		subtitles:   rec.Subtitles,
		chapters:    rec.Chapters,
		thumbnail:   rec.Thumbnail,
		videoMeta:   rec.VideoMeta,
		audioMeta:   rec.AudioMeta,
	}, nil
}
