package mediainfo

import "slices"

// VideoTrack describes one video stream.
type VideoTrack struct {
	Index     int    `json:"index"`
	Codec     string `json:"codec,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	FrameRate string `json:"frame_rate,omitempty"`
	BitDepth  int    `json:"bit_depth,omitempty"`
	Language  string `json:"language,omitempty"`
	Title     string `json:"title,omitempty"`
	Default   bool   `json:"default,omitempty"`
	Encrypted bool   `json:"encrypted,omitempty"`
}

// AudioTrack describes one audio stream.
type AudioTrack struct {
	Index         int    `json:"index"`
	Codec         string `json:"codec,omitempty"`
	Channels      int    `json:"channels,omitempty"`
	SampleRate    int    `json:"sample_rate,omitempty"`
	BitsPerSample int    `json:"bits_per_sample,omitempty"`
	Bitrate       int    `json:"bitrate,omitempty"`
	Language      string `json:"language,omitempty"`
	Title         string `json:"title,omitempty"`
	Default       bool   `json:"default,omitempty"`
	Encrypted     bool   `json:"encrypted,omitempty"`
}

// SubtitleTrack describes an embedded or external subtitle stream.
type SubtitleTrack struct {
	Index    int    `json:"index"`
	Codec    string `json:"codec,omitempty"`
	Language string `json:"language,omitempty"`
	Title    string `json:"title,omitempty"`
	Default  bool   `json:"default,omitempty"`
	Forced   bool   `json:"forced,omitempty"`
	External string `json:"external,omitempty"`
}

// Chapter marks a named position in the media.
type Chapter struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Title string  `json:"title,omitempty"`
}

// AddVideoTrack appends a video track. A default track clears the flag on
// previously added tracks so at most one default exists.
func (m *MediaInfo) AddVideoTrack(track VideoTrack) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if track.Default {
		for i := range m.video {
			m.video[i].Default = false
		}
	}
	m.video = append(m.video, track)
}

// AddAudioTrack appends an audio track with the same default rule as video.
func (m *MediaInfo) AddAudioTrack(track AudioTrack) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if track.Default {
		for i := range m.audio {
			m.audio[i].Default = false
		}
	}
	m.audio = append(m.audio, track)
}

// AddSubtitleTrack appends a subtitle track with the same default rule as video.
func (m *MediaInfo) AddSubtitleTrack(track SubtitleTrack) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if track.Default {
		for i := range m.subtitles {
			m.subtitles[i].Default = false
		}
	}
	m.subtitles = append(m.subtitles, track)
}

// AddChapter appends a chapter.
func (m *MediaInfo) AddChapter(ch Chapter) {
	m.mu.Lock()
	m.chapters = append(m.chapters, ch)
	m.mu.Unlock()
}

// VideoTracks returns a copy of the video track list.
func (m *MediaInfo) VideoTracks() []VideoTrack {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.video)
}

// AudioTracks returns a copy of the audio track list.
func (m *MediaInfo) AudioTracks() []AudioTrack {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.audio)
}

// SubtitleTracks returns a copy of the subtitle track list.
func (m *MediaInfo) SubtitleTracks() []SubtitleTrack {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.subtitles)
}

// Chapters returns a copy of the chapter list.
func (m *MediaInfo) Chapters() []Chapter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.chapters)
}

// DefaultVideoTrack returns the track flagged default, falling back to the
// first video track.
func (m *MediaInfo) DefaultVideoTrack() (VideoTrack, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, track := range m.video {
		if track.Default {
			return track, true
		}
	}
	if len(m.video) > 0 {
		return m.video[0], true
	}
	return VideoTrack{}, false
}

// FirstAudioTrack returns the first audio track.
func (m *MediaInfo) FirstAudioTrack() (AudioTrack, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.audio) == 0 {
		return AudioTrack{}, false
	}
	return m.audio[0], true
}

// SetDefaultAudioTrack marks the audio track at position idx as default and
// clears the flag elsewhere. It reports whether idx was in range.
func (m *MediaInfo) SetDefaultAudioTrack(idx int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx < 0 || idx >= len(m.audio) {
		return false
	}
	for i := range m.audio {
		m.audio[i].Default = i == idx
	}
	return true
}
