package format

import (
	"regexp"
	"slices"
	"strings"
)

// Type is a bitmask describing the broad kind of a format.
type Type int

const (
	Audio    Type = 1
	Image    Type = 2
	Video    Type = 4
	Unknown  Type = 8
	Playlist Type = 16
	ISO      Type = 32
	Subtitle Type = 64
)

// String renders the set bits, e.g. "video" or "audio|video".
func (t Type) String() string {
	names := []struct {
		bit  Type
		name string
	}{
		{Audio, "audio"},
		{Image, "image"},
		{Video, "video"},
		{Unknown, "unknown"},
		{Playlist, "playlist"},
		{ISO, "iso"},
		{Subtitle, "subtitle"},
	}
	parts := make([]string, 0, 2)
	for _, n := range names {
		if t&n.bit == n.bit {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Identifier names a concrete format kind.
type Identifier string

const (
	AudioAsVideo Identifier = "AUDIO_AS_VIDEO"
	BMP          Identifier = "BMP"
	DVRMS        Identifier = "DVRMS"
	FLAC         Identifier = "FLAC"
	GIF          Identifier = "GIF"
	ISOImage     Identifier = "ISO"
	JPG          Identifier = "JPG"
	M4A          Identifier = "M4A"
	MKV          Identifier = "MKV"
	MP3          Identifier = "MP3"
	MPG          Identifier = "MPG"
	OGG          Identifier = "OGG"
	PNG          Identifier = "PNG"
	RAW          Identifier = "RAW"
	TIF          Identifier = "TIF"
	WAV          Identifier = "WAV"
	WEB          Identifier = "WEB"
	SUB          Identifier = "SUBTITLE"
	Custom       Identifier = "CUSTOM"
	PlaylistFile Identifier = "PLAYLIST"
)

var protocolPattern = regexp.MustCompile(`^[a-z][a-z0-9+.\-]*://`)

// Protocol returns the lower-cased scheme of a protocol-qualified name, or ""
// for plain file names and paths.
func Protocol(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	loc := protocolPattern.FindStringIndex(lower)
	if loc == nil {
		return ""
	}
	return lower[:loc[1]-3]
}

// Format describes one recognised media kind. Instances held by a Registry are
// shared; the values handed out by Match and ByType are duplicates.
type Format struct {
	ID         Identifier
	Type       Type
	Extensions []string
	// Protocols lists URL schemes claimed by the format. Only WEB sets it.
	Protocols []string
	MimeType  string
	Secondary *Format

	// MatchedExtension is set by Match on the duplicate it returns.
	MatchedExtension string
}

// Duplicate returns a deep copy safe for per-call mutation.
func (f *Format) Duplicate() *Format {
	if f == nil {
		return nil
	}
	dup := *f
	dup.Extensions = slices.Clone(f.Extensions)
	dup.Protocols = slices.Clone(f.Protocols)
	dup.Secondary = f.Secondary.Duplicate()
	return &dup
}

// Match reports whether name belongs to the format and records the matched
// extension. URLs only match formats that declare protocols.
func (f *Format) Match(name string) bool {
	token, ok := f.match(name)
	if ok {
		f.MatchedExtension = token
	}
	return ok
}

func (f *Format) match(name string) (string, bool) {
	if f == nil || strings.TrimSpace(name) == "" {
		return "", false
	}
	lower := strings.ToLower(name)
	if protocol := Protocol(lower); protocol != "" {
		if slices.Contains(f.Protocols, protocol) {
			return protocol, true
		}
		return "", false
	}
	for _, ext := range f.Extensions {
		ext = strings.ToLower(ext)
		if strings.HasSuffix(lower, "."+ext) {
			return ext, true
		}
	}
	return "", false
}

// Skip reports whether the matched extension appears in any of the given
// comma-separated extension lists. A list of "*" skips everything.
func (f *Format) Skip(lists ...string) bool {
	for _, list := range lists {
		if strings.TrimSpace(list) == "*" {
			return true
		}
		if f.MatchedExtension == "" {
			continue
		}
		for _, ext := range strings.Split(list, ",") {
			if strings.EqualFold(strings.TrimSpace(ext), f.MatchedExtension) {
				return true
			}
		}
	}
	return false
}

// SetType replaces the type only while the format is still unknown.
func (f *Format) SetType(t Type) {
	if f.IsUnknown() {
		f.Type = t
	}
}

// Mime returns the declared MIME type or the default for the format type.
func (f *Format) Mime() string {
	if f.MimeType != "" {
		return f.MimeType
	}
	return DefaultMimeType(f.Type)
}

func (f *Format) IsAudio() bool    { return f.Type&Audio == Audio }
func (f *Format) IsVideo() bool    { return f.Type&Video == Video }
func (f *Format) IsImage() bool    { return f.Type&Image == Image }
func (f *Format) IsUnknown() bool  { return f.Type&Unknown == Unknown }
func (f *Format) IsSubtitle() bool { return f.Type&Subtitle == Subtitle }
func (f *Format) IsPlaylist() bool { return f.Type&Playlist == Playlist }
func (f *Format) IsISO() bool      { return f.Type&ISO == ISO }

func (f *Format) String() string {
	if f == nil {
		return "<nil>"
	}
	return string(f.ID)
}

// DefaultMimeType maps a format type to the MIME type used when nothing more
// specific is known.
func DefaultMimeType(t Type) string {
	switch {
	case t&Video == Video:
		return "video/mpeg"
	case t&Audio == Audio:
		return "audio/mpeg"
	case t&Image == Image:
		return "image/jpeg"
	case t&Subtitle == Subtitle:
		return "text/plain"
	case t&Playlist == Playlist:
		return "audio/x-mpegurl"
	default:
		return "application/octet-stream"
	}
}
