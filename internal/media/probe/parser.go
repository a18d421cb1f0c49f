package probe

import (
	"context"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"mediahub/internal/format"
	"mediahub/internal/logging"
	"mediahub/internal/media/audio"
	"mediahub/internal/media/ffprobe"
	"mediahub/internal/mediainfo"
	"mediahub/internal/services"
)

// InspectFunc runs a prober against a path or URL.
type InspectFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// TagFunc reads embedded audio tags from a local file.
type TagFunc func(path string) (*mediainfo.AudioMetadata, error)

// Parser fills a MediaInfo in place from probe output.
type Parser struct {
	binary   string
	timeout  time.Duration
	language string
	name     string
	inspect  InspectFunc
	tags     TagFunc
	logger   *slog.Logger
}

// Option customizes a Parser.
type Option func(*Parser)

// WithInspector swaps the prober, mainly for tests.
func WithInspector(fn InspectFunc) Option {
	return func(p *Parser) {
		if fn != nil {
			p.inspect = fn
		}
	}
}

// WithTagReader swaps the audio tag reader.
func WithTagReader(fn TagFunc) Option {
	return func(p *Parser) {
		if fn != nil {
			p.tags = fn
		}
	}
}

// WithTimeout bounds a single probe run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(p *Parser) {
		p.timeout = d
	}
}

// WithLanguage sets the IETF language tag used to choose default audio.
func WithLanguage(tag string) Option {
	return func(p *Parser) {
		p.language = strings.TrimSpace(tag)
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// New constructs a Parser using the ffprobe binary.
func New(binary string, opts ...Option) *Parser {
	p := &Parser{
		binary:  strings.TrimSpace(binary),
		name:    "ffprobe",
		inspect: ffprobe.Inspect,
		tags:    readAudioTags,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.binary == "" {
		p.binary = "ffprobe"
	}
	p.logger = logging.NewComponentLogger(p.logger, "probe")
	return p
}

// Secondary returns a copy of p that uses the deep ffprobe pass.
func (p *Parser) Secondary() *Parser {
	clone := *p
	clone.name = "ffprobe-deep"
	clone.inspect = ffprobe.InspectDeep
	return &clone
}

// SecondaryWith returns a copy of p using fn as its prober.
func (p *Parser) SecondaryWith(fn InspectFunc) *Parser {
	clone := p.Secondary()
	if fn != nil {
		clone.inspect = fn
	}
	return clone
}

// Name identifies the prober in ParsedBy and logs.
func (p *Parser) Name() string { return p.name }

// Parse fills mi from locator. It does not change the parse state; callers
// own the Begin/FinishParsing bracket.
func (p *Parser) Parse(ctx context.Context, mi *mediainfo.MediaInfo, locator string, f *format.Format, typeHint format.Type) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	started := time.Now()
	result, err := p.inspect(ctx, p.binary, locator)
	if err != nil {
		if ctx.Err() != nil {
			return services.Wrap(services.ErrTimeout, "probe", p.name, "probe did not finish", err)
		}
		return services.Wrap(services.ErrExternalTool, "probe", p.name, "probe failed", err)
	}

	isURL := format.Protocol(locator) != ""
	if typeHint == 0 && f != nil {
		typeHint = f.Type
	}
	apply(mi, result, f, p.language)
	mi.ParsedBy = p.name
	if mi.Size == 0 && !isURL {
		if info, err := os.Stat(locator); err == nil {
			mi.Size = info.Size()
		}
	}

	if f != nil && f.IsAudio() && !isURL {
		am, err := p.tags(locator)
		switch {
		case err != nil:
			logging.WarnWithContext(p.logger, "audio tags unreadable; continuing without tags", "audio_tags_failed",
				logging.Path(locator),
				logging.Error(err),
				logging.String(logging.FieldImpact, "title and album fall back to file name"),
			)
		case am != nil:
			mi.SetAudioMetadata(am)
		}
	}

	if (typeHint&format.Video == format.Video || mi.IsVideo()) && mi.VideoMetadata() == nil && !isURL {
		mi.SetVideoMetadata(mediainfo.FromFilename(locator))
	}

	mi.PostParse(typeHint)
	p.logger.Debug("media parsed",
		logging.Path(locator),
		logging.String("prober", p.name),
		logging.String("container", mi.Container),
		logging.Int("video_tracks", len(mi.VideoTracks())),
		logging.Int("audio_tracks", len(mi.AudioTracks())),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func apply(mi *mediainfo.MediaInfo, result ffprobe.Result, f *format.Format, language string) {
	mi.Container = result.Container()
	mi.Duration = result.DurationSeconds()
	if math.IsNaN(mi.Duration) {
		mi.Duration = 0
	}
	mi.Bitrate = int(result.BitRate())
	mi.Size = result.SizeBytes()
	mi.Title = result.Format.Tag("title")
	mi.StreamTitle = result.Format.Tag("icy-name", "StreamTitle")

	image := f != nil && f.IsImage()
	defaultAudio := audio.SelectDefault(result.Streams, language)
	for _, stream := range result.Streams {
		switch strings.ToLower(stream.CodecType) {
		case "video":
			if image || stream.IsAttachedPicture() {
				mi.ImageCount++
				if mi.Width == 0 {
					mi.Width, mi.Height = stream.Width, stream.Height
				}
				continue
			}
			mi.AddVideoTrack(mediainfo.VideoTrack{
				Index:     stream.Index,
				Codec:     stream.CodecName,
				Width:     stream.Width,
				Height:    stream.Height,
				FrameRate: stream.FrameRate(),
				BitDepth:  stream.BitDepth(),
				Language:  stream.Tag("language"),
				Title:     stream.Tag("title"),
				Default:   stream.IsDefault(),
				Encrypted: stream.IsEncrypted(),
			})
		case "audio":
			mi.AddAudioTrack(mediainfo.AudioTrack{
				Index:         stream.Index,
				Codec:         stream.CodecName,
				Channels:      stream.Channels,
				SampleRate:    stream.SampleRateHz(),
				BitsPerSample: stream.BitDepth(),
				Bitrate:       int(parsePositive(stream.BitRate)),
				Language:      stream.Tag("language"),
				Title:         stream.Tag("title"),
				Default:       stream.Index == defaultAudio.Index,
				Encrypted:     stream.IsEncrypted(),
			})
		case "subtitle":
			mi.AddSubtitleTrack(mediainfo.SubtitleTrack{
				Index:    stream.Index,
				Codec:    stream.CodecName,
				Language: stream.Tag("language"),
				Title:    stream.Tag("title"),
				Default:  stream.IsDefault(),
				Forced:   stream.IsForced(),
			})
		}
	}
	for _, ch := range result.Chapters {
		start, end := ch.Seconds()
		mi.AddChapter(mediainfo.Chapter{ID: ch.ID, Start: start, End: end, Title: lookupTitle(ch.Tags)})
	}
	if track, ok := mi.DefaultVideoTrack(); ok {
		mi.VideoCodec = track.Codec
		mi.Width, mi.Height = track.Width, track.Height
		mi.FrameRate = track.FrameRate
		mi.Encrypted = track.Encrypted
	}
}

func lookupTitle(tags map[string]string) string {
	for k, v := range tags {
		if strings.EqualFold(k, "title") {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func parsePositive(value string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
