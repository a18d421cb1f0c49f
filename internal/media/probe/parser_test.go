package probe_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mediahub/internal/format"
	"mediahub/internal/media/ffprobe"
	"mediahub/internal/media/probe"
	"mediahub/internal/mediainfo"
	"mediahub/internal/services"
)

func fixedInspector(result ffprobe.Result, calls *int) probe.InspectFunc {
	return func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		if calls != nil {
			*calls++
		}
		return result, nil
	}
}

func episodeResult() ffprobe.Result {
	return ffprobe.Result{
		Format: ffprobe.Format{FormatName: "matroska,webm", Duration: "1320.5", Size: "2048", BitRate: "8000000"},
		Streams: []ffprobe.Stream{
			{Index: 0, CodecType: "video", CodecName: "hevc", Width: 1920, Height: 1080, AvgFrameRate: "25/1",
				Disposition: map[string]int{"default": 1}},
			{Index: 1, CodecType: "audio", CodecName: "aac", Channels: 2, SampleRate: "48000",
				Tags: map[string]string{"language": "ger"}},
			{Index: 2, CodecType: "audio", CodecName: "eac3", Channels: 6, SampleRate: "48000",
				Tags: map[string]string{"language": "eng"}},
			{Index: 3, CodecType: "subtitle", CodecName: "subrip", Tags: map[string]string{"language": "eng"},
				Disposition: map[string]int{"forced": 1}},
		},
		Chapters: []ffprobe.Chapter{{ID: 1, StartTime: "0", EndTime: "90", Tags: map[string]string{"title": "Intro"}}},
	}
}

func TestParseFillsMediaInfo(t *testing.T) {
	calls := 0
	parser := probe.New("ffprobe", probe.WithInspector(fixedInspector(episodeResult(), &calls)), probe.WithLanguage("en-US"))
	reg := format.NewDefaultRegistry()
	path := "/media/tv/Show Name (2010) S02E05.mkv"
	f := reg.Match(path)

	mi := mediainfo.New()
	if err := parser.Parse(context.Background(), mi, path, f, f.Type); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one probe call, got %d", calls)
	}
	if mi.Container != "matroska" || mi.VideoCodec != "hevc" || mi.Width != 1920 {
		t.Fatalf("unexpected technical fields: %q %q %d", mi.Container, mi.VideoCodec, mi.Width)
	}
	if mi.Duration != 1320.5 || mi.Size != 2048 || mi.Bitrate != 8000000 {
		t.Fatalf("unexpected container numbers: %v %d %d", mi.Duration, mi.Size, mi.Bitrate)
	}
	if mi.FrameRate != "25" {
		t.Fatalf("unexpected frame rate %q", mi.FrameRate)
	}
	tracks := mi.AudioTracks()
	if len(tracks) != 2 || tracks[0].Default || !tracks[1].Default {
		t.Fatalf("expected english 6ch track default, got %+v", tracks)
	}
	subs := mi.SubtitleTracks()
	if len(subs) != 1 || !subs[0].Forced {
		t.Fatalf("unexpected subtitles %+v", subs)
	}
	if len(mi.Chapters()) != 1 || mi.Chapters()[0].Title != "Intro" {
		t.Fatalf("unexpected chapters %+v", mi.Chapters())
	}
	if mi.MimeType != "video/x-matroska" {
		t.Fatalf("unexpected mime %q", mi.MimeType)
	}
	if mi.ParsedBy != "ffprobe" {
		t.Fatalf("unexpected parsed by %q", mi.ParsedBy)
	}
	vm := mi.VideoMetadata()
	if vm == nil || !vm.IsTVEpisode || vm.TVSeason != 2 || vm.TVEpisode != "05" {
		t.Fatalf("expected filename metadata, got %+v", vm)
	}
	if mi.State() != mediainfo.Unparsed {
		t.Fatal("parser must not change parse state")
	}
}

func TestParseMarksEncryptedDefaultTrack(t *testing.T) {
	result := ffprobe.Result{
		Format: ffprobe.Format{FormatName: "mov,mp4"},
		Streams: []ffprobe.Stream{
			{Index: 0, CodecType: "video", CodecName: "h264", CodecTag: "encv", Disposition: map[string]int{"default": 1}},
		},
	}
	parser := probe.New("", probe.WithInspector(fixedInspector(result, nil)))
	mi := mediainfo.New()
	if err := parser.Parse(context.Background(), mi, "/media/protected.m4v", nil, format.Video); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !mi.IsEncrypted() {
		t.Fatal("expected encrypted media")
	}
}

func TestParseImageCountsFrames(t *testing.T) {
	result := ffprobe.Result{
		Format:  ffprobe.Format{FormatName: "image2"},
		Streams: []ffprobe.Stream{{Index: 0, CodecType: "video", CodecName: "mjpeg", Width: 640, Height: 480}},
	}
	parser := probe.New("", probe.WithInspector(fixedInspector(result, nil)))
	reg := format.NewDefaultRegistry()
	f := reg.Match("photo.jpg")
	mi := mediainfo.New()
	if err := parser.Parse(context.Background(), mi, "/photos/photo.jpg", f, f.Type); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !mi.IsImage() || mi.IsVideo() || mi.Width != 640 {
		t.Fatalf("expected image classification, got image=%v video=%v", mi.IsImage(), mi.IsVideo())
	}
	if mi.VideoMetadata() != nil {
		t.Fatal("images must not get video metadata")
	}
}

func TestParseReadsAudioTags(t *testing.T) {
	result := ffprobe.Result{
		Format:  ffprobe.Format{FormatName: "flac"},
		Streams: []ffprobe.Stream{{Index: 0, CodecType: "audio", CodecName: "flac", Channels: 2}},
	}
	tagCalls := 0
	parser := probe.New("",
		probe.WithInspector(fixedInspector(result, nil)),
		probe.WithTagReader(func(path string) (*mediainfo.AudioMetadata, error) {
			tagCalls++
			return &mediainfo.AudioMetadata{Title: "Song", Artist: "Band", Track: 3}, nil
		}),
	)
	reg := format.NewDefaultRegistry()
	f := reg.Match("song.flac")
	mi := mediainfo.New()
	if err := parser.Parse(context.Background(), mi, "/music/song.flac", f, f.Type); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	am := mi.AudioMetadata()
	if tagCalls != 1 || am == nil || am.Title != "Song" || am.Track != 3 {
		t.Fatalf("unexpected audio metadata %+v", am)
	}
	if !mi.IsAudio() || mi.MimeType != "audio/flac" {
		t.Fatalf("unexpected audio classification mime=%q", mi.MimeType)
	}
}

func TestParseClassifiesFailures(t *testing.T) {
	failing := probe.New("", probe.WithInspector(func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		return ffprobe.Result{}, errors.New("exit status 1")
	}))
	err := failing.Parse(context.Background(), mediainfo.New(), "/media/bad.mkv", nil, format.Video)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}

	slow := probe.New("", probe.WithTimeout(10*time.Millisecond), probe.WithInspector(func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		<-ctx.Done()
		return ffprobe.Result{}, ctx.Err()
	}))
	err = slow.Parse(context.Background(), mediainfo.New(), "/media/slow.mkv", nil, format.Video)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestSecondaryParser(t *testing.T) {
	primary := probe.New("ffprobe")
	calls := 0
	secondary := primary.SecondaryWith(fixedInspector(episodeResult(), &calls))
	if secondary.Name() != "ffprobe-deep" || primary.Name() != "ffprobe" {
		t.Fatalf("unexpected names %q/%q", primary.Name(), secondary.Name())
	}
	mi := mediainfo.New()
	if err := secondary.Parse(context.Background(), mi, "/media/x.mkv", nil, format.Video); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if calls != 1 || mi.ParsedBy != "ffprobe-deep" {
		t.Fatalf("expected deep prober used, calls=%d parsed_by=%q", calls, mi.ParsedBy)
	}
}
