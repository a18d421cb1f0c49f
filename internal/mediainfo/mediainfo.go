package mediainfo

import (
	"sync"
	"time"

	"mediahub/internal/format"
)

// ParseState tracks where a MediaInfo is in its parse lifecycle.
type ParseState int

const (
	Unparsed ParseState = iota
	Parsing
	Parsed
)

func (s ParseState) String() string {
	switch s {
	case Parsing:
		return "parsing"
	case Parsed:
		return "parsed"
	default:
		return "unparsed"
	}
}

// ParsePollInterval is the fixed interval WaitParsing sleeps between checks.
var ParsePollInterval = 100 * time.Millisecond

// Thumbnail references a stored image.
type Thumbnail struct {
	ID     int64
	Source string
}

// MediaInfo holds technical metadata for one resource.
type MediaInfo struct {
	Container   string
	Duration    float64
	Bitrate     int
	Size        int64
	Width       int
	Height      int
	FrameRate   string
	VideoCodec  string
	MimeType    string
	Encrypted   bool
	ParsedBy    string
	Title       string
	ImageCount  int
	StreamTitle string

	mu        sync.RWMutex
	state     ParseState
	video     []VideoTrack
	audio     []AudioTrack
	subtitles []SubtitleTrack
	chapters  []Chapter
	thumbnail *Thumbnail
	videoMeta *VideoMetadata
	audioMeta *AudioMetadata
}

// New returns an empty, unparsed MediaInfo.
func New() *MediaInfo {
	return &MediaInfo{}
}

// State returns the current parse state.
func (m *MediaInfo) State() ParseState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsParsed reports whether a parse reached its terminal state.
func (m *MediaInfo) IsParsed() bool { return m.State() == Parsed }

// IsParsing reports whether a parse is in flight.
func (m *MediaInfo) IsParsing() bool { return m.State() == Parsing }

// BeginParsing moves an unparsed MediaInfo into the parsing state. It returns
// false when a parse is already running or has completed.
func (m *MediaInfo) BeginParsing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Unparsed {
		return false
	}
	m.state = Parsing
	return true
}

// BeginReparse moves a MediaInfo in any state other than parsing into the
// parsing state, for a second prober pass over an existing result.
func (m *MediaInfo) BeginReparse() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Parsing {
		return false
	}
	m.state = Parsing
	return true
}

// FinishParsing ends an in-flight parse. A failed parse returns to Unparsed so
// a later caller may retry.
func (m *MediaInfo) FinishParsing(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.state = Parsed
		return
	}
	m.state = Unparsed
}

// MarkParsed flags a MediaInfo restored from storage as complete.
func (m *MediaInfo) MarkParsed() {
	m.mu.Lock()
	m.state = Parsed
	m.mu.Unlock()
}

// WaitParsing polls until no parse is in flight or timeout elapses. It returns
// false on timeout and never cancels the parse.
func (m *MediaInfo) WaitParsing(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for m.IsParsing() {
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(ParsePollInterval)
	}
	return true
}

// Reset clears every parsed field so the next resolution parses again.
func (m *MediaInfo) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Container = ""
	m.Duration = 0
	m.Bitrate = 0
	m.Size = 0
	m.Width = 0
	m.Height = 0
	m.FrameRate = ""
	m.VideoCodec = ""
	m.MimeType = ""
	m.Encrypted = false
	m.ParsedBy = ""
	m.Title = ""
	m.ImageCount = 0
	m.StreamTitle = ""
	m.state = Unparsed
	m.video = nil
	m.audio = nil
	m.subtitles = nil
	m.chapters = nil
	m.thumbnail = nil
	m.videoMeta = nil
	m.audioMeta = nil
}

// IsVideo reports whether at least one video track exists.
func (m *MediaInfo) IsVideo() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.video) > 0
}

// IsAudio reports whether the media is audio only.
func (m *MediaInfo) IsAudio() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.video) == 0 && len(m.audio) > 0
}

// IsImage reports whether the media is a still image.
func (m *MediaInfo) IsImage() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ImageCount > 0 && len(m.audio) == 0
}

// IsEncrypted reports whether the container or default video track is encrypted.
func (m *MediaInfo) IsEncrypted() bool {
	if m.Encrypted {
		return true
	}
	track, ok := m.DefaultVideoTrack()
	return ok && track.Encrypted
}

// HasContainer reports whether the parser recognised the container.
func (m *MediaInfo) HasContainer() bool {
	return m.Container != "" && m.Container != "und"
}

// Thumbnail returns the attached thumbnail reference, if any.
func (m *MediaInfo) Thumbnail() (Thumbnail, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.thumbnail == nil {
		return Thumbnail{}, false
	}
	return *m.thumbnail, true
}

// SetThumbnail attaches a stored thumbnail.
func (m *MediaInfo) SetThumbnail(thumb Thumbnail) {
	m.mu.Lock()
	m.thumbnail = &thumb
	m.mu.Unlock()
}

// VideoMetadata returns a copy of the attached video metadata, or nil.
func (m *MediaInfo) VideoMetadata() *VideoMetadata {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.videoMeta.Clone()
}

// SetVideoMetadata replaces the attached video metadata with a copy of vm.
func (m *MediaInfo) SetVideoMetadata(vm *VideoMetadata) {
	m.mu.Lock()
	m.videoMeta = vm.Clone()
	m.mu.Unlock()
}

// AudioMetadata returns a copy of the attached audio tags, or nil.
func (m *MediaInfo) AudioMetadata() *AudioMetadata {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.audioMeta == nil {
		return nil
	}
	copied := *m.audioMeta
	return &copied
}

// SetAudioMetadata attaches audio tags.
func (m *MediaInfo) SetAudioMetadata(am *AudioMetadata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if am == nil {
		m.audioMeta = nil
		return
	}
	copied := *am
	m.audioMeta = &copied
}

// PostParse fills derived fields once parsing finished or a stored record was
// loaded. Currently this infers the MIME type when none is set.
func (m *MediaInfo) PostParse(t format.Type) {
	if m.MimeType != "" {
		return
	}
	codecA := ""
	if track, ok := m.FirstAudioTrack(); ok {
		codecA = track.Codec
	}
	m.MimeType = InferMimeType(m.Container, m.VideoCodec, codecA, t)
}
