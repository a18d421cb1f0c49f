package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams  []Stream  `json:"streams"`
	Format   Format    `json:"format"`
	Chapters []Chapter `json:"chapters"`
	raw      []byte
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index            int               `json:"index"`
	CodecName        string            `json:"codec_name"`
	CodecLong        string            `json:"codec_long_name"`
	CodecType        string            `json:"codec_type"`
	CodecTag         string            `json:"codec_tag_string"`
	Profile          string            `json:"profile"`
	Duration         string            `json:"duration"`
	BitRate          string            `json:"bit_rate"`
	Width            int               `json:"width"`
	Height           int               `json:"height"`
	PixFmt           string            `json:"pix_fmt"`
	RFrameRate       string            `json:"r_frame_rate"`
	AvgFrameRate     string            `json:"avg_frame_rate"`
	BitsPerRawSample string            `json:"bits_per_raw_sample"`
	BitsPerSample    int               `json:"bits_per_sample"`
	SampleRate       string            `json:"sample_rate"`
	Channels         int               `json:"channels"`
	ChannelLayout    string            `json:"channel_layout"`
	Disposition      map[string]int    `json:"disposition"`
	Tags             map[string]string `json:"tags"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string            `json:"filename"`
	NBStreams  int               `json:"nb_streams"`
	Duration   string            `json:"duration"`
	Size       string            `json:"size"`
	BitRate    string            `json:"bit_rate"`
	FormatName string            `json:"format_name"`
	Tags       map[string]string `json:"tags"`
}

// Chapter is one entry of -show_chapters output.
type Chapter struct {
	ID        int               `json:"id"`
	StartTime string            `json:"start_time"`
	EndTime   string            `json:"end_time"`
	Tags      map[string]string `json:"tags"`
}

// DeepProbeArgs widen ffprobe's analysis window for files whose container is
// not recognised from the default probe size.
var DeepProbeArgs = []string{"-probesize", "200M", "-analyzeduration", "200M"}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	return inspect(ctx, binary, path, nil)
}

// InspectDeep runs Inspect with DeepProbeArgs.
func InspectDeep(ctx context.Context, binary string, path string) (Result, error) {
	return inspect(ctx, binary, path, DeepProbeArgs)
}

func inspect(ctx context.Context, binary string, path string, extra []string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	args := []string{"-v", "error", "-hide_banner"}
	args = append(args, extra...)
	args = append(args, "-show_format", "-show_streams", "-show_chapters", "-of", "json", "--", path)
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}
	return Decode(output)
}

// Decode parses ffprobe JSON output.
func Decode(output []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	result.raw = append([]byte(nil), output...)
	return result, nil
}

// RawJSON returns the raw ffprobe JSON payload.
func (r Result) RawJSON() []byte {
	return append([]byte(nil), r.raw...)
}

// VideoStreamCount returns the number of video streams discovered, ignoring
// attached pictures such as embedded cover art.
func (r Result) VideoStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if stream.IsVideo() && !stream.IsAttachedPicture() {
			count++
		}
	}
	return count
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

// BitRate returns the container bitrate in bits per second, or 0 when unavailable.
func (r Result) BitRate() int64 {
	rate := parseFloat(r.Format.BitRate)
	if math.IsNaN(rate) || rate < 0 {
		return 0
	}
	return int64(rate)
}

// Container returns the first short name of the container, e.g. "matroska"
// for "matroska,webm".
func (r Result) Container() string {
	name, _, _ := strings.Cut(strings.TrimSpace(r.Format.FormatName), ",")
	return strings.ToLower(name)
}

// IsVideo reports whether the stream carries video.
func (s Stream) IsVideo() bool { return strings.EqualFold(s.CodecType, "video") }

// IsAttachedPicture reports whether the stream is embedded cover art.
func (s Stream) IsAttachedPicture() bool { return s.Disposition["attached_pic"] == 1 }

// IsDefault reports the default disposition flag.
func (s Stream) IsDefault() bool { return s.Disposition["default"] == 1 }

// IsForced reports the forced disposition flag.
func (s Stream) IsForced() bool { return s.Disposition["forced"] == 1 }

// IsEncrypted reports protected streams. Encrypted MP4 tracks carry the
// "encv"/"enca" sample entries; some demuxers also tag the scheme.
func (s Stream) IsEncrypted() bool {
	switch strings.ToLower(s.CodecTag) {
	case "encv", "enca", "drmi", "drms":
		return true
	}
	for key := range s.Tags {
		if strings.EqualFold(key, "encryption") {
			return true
		}
	}
	return false
}

// Tag returns the first non-empty tag value among keys, case-insensitively.
func (s Stream) Tag(keys ...string) string {
	return lookupTag(s.Tags, keys...)
}

// Tag returns the first non-empty container tag among keys.
func (f Format) Tag(keys ...string) string {
	return lookupTag(f.Tags, keys...)
}

// FrameRate returns the stream frame rate as a decimal string, preferring the
// average rate.
func (s Stream) FrameRate() string {
	for _, raw := range []string{s.AvgFrameRate, s.RFrameRate} {
		if rate := parseRatio(raw); rate > 0 {
			return strconv.FormatFloat(math.Round(rate*1000)/1000, 'f', -1, 64)
		}
	}
	return ""
}

// SampleRateHz returns the audio sample rate, or 0.
func (s Stream) SampleRateHz() int {
	rate := parseFloat(s.SampleRate)
	if math.IsNaN(rate) || rate < 0 {
		return 0
	}
	return int(rate)
}

// BitDepth returns the sample bit depth, or 0 when unknown.
func (s Stream) BitDepth() int {
	if depth, err := strconv.Atoi(strings.TrimSpace(s.BitsPerRawSample)); err == nil && depth > 0 {
		return depth
	}
	return s.BitsPerSample
}

// Seconds converts a chapter timestamp, returning 0 when unparseable.
func (c Chapter) Seconds() (start, end float64) {
	start = parseFloat(c.StartTime)
	end = parseFloat(c.EndTime)
	if math.IsNaN(start) {
		start = 0
	}
	if math.IsNaN(end) {
		end = 0
	}
	return start, end
}

func lookupTag(tags map[string]string, keys ...string) string {
	if len(tags) == 0 {
		return ""
	}
	for _, key := range keys {
		for k, v := range tags {
			if strings.EqualFold(k, key) && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

func parseRatio(value string) float64 {
	num, den, ok := strings.Cut(strings.TrimSpace(value), "/")
	if !ok {
		f := parseFloat(num)
		if math.IsNaN(f) {
			return 0
		}
		return f
	}
	n := parseFloat(num)
	d := parseFloat(den)
	if math.IsNaN(n) || math.IsNaN(d) || d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
