package ffprobe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const sampleJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "codec_tag_string": "avc1",
     "width": 1920, "height": 1080, "avg_frame_rate": "24000/1001", "r_frame_rate": "24000/1001",
     "bits_per_raw_sample": "8", "disposition": {"default": 1}},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "sample_rate": "48000", "channels": 6,
     "disposition": {"default": 1}, "tags": {"LANGUAGE": "eng", "title": "Surround"}},
    {"index": 2, "codec_name": "mjpeg", "codec_type": "video", "disposition": {"attached_pic": 1}},
    {"index": 3, "codec_name": "subrip", "codec_type": "subtitle", "disposition": {"forced": 1}, "tags": {"language": "fre"}}
  ],
  "format": {"filename": "movie.mp4", "nb_streams": 4, "format_name": "mov,mp4,m4a,3gp,3g2,mj2",
             "duration": "5400.5", "size": "1000", "bit_rate": "32000", "tags": {"title": "Movie"}},
  "chapters": [{"id": 0, "start_time": "0.000000", "end_time": "60.5", "tags": {"title": "Opening"}}]
}`

func TestResultHelpers(t *testing.T) {
	result, err := Decode([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected cover art excluded, got %d video streams", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected 1 audio stream, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 5400.5 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 || result.BitRate() != 32000 {
		t.Fatalf("unexpected size/bitrate: %d/%d", result.SizeBytes(), result.BitRate())
	}
	if result.Container() != "mov" {
		t.Fatalf("unexpected container %q", result.Container())
	}
	if result.Format.Tag("TITLE") != "Movie" {
		t.Fatalf("unexpected format title %q", result.Format.Tag("TITLE"))
	}

	video := result.Streams[0]
	if video.FrameRate() != "23.976" {
		t.Fatalf("unexpected frame rate %q", video.FrameRate())
	}
	if video.BitDepth() != 8 || !video.IsDefault() {
		t.Fatalf("unexpected video stream helpers: depth=%d default=%v", video.BitDepth(), video.IsDefault())
	}
	audio := result.Streams[1]
	if audio.Tag("language") != "eng" || audio.SampleRateHz() != 48000 {
		t.Fatalf("unexpected audio helpers: %q %d", audio.Tag("language"), audio.SampleRateHz())
	}
	if !result.Streams[3].IsForced() {
		t.Fatal("expected forced subtitle")
	}
	start, end := result.Chapters[0].Seconds()
	if start != 0 || end != 60.5 {
		t.Fatalf("unexpected chapter bounds %v-%v", start, end)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
			BitRate:  "nope",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
	if (Stream{AvgFrameRate: "0/0"}).FrameRate() != "" {
		t.Fatal("expected empty frame rate for 0/0")
	}
}

func TestStreamEncryptionMarkers(t *testing.T) {
	if !(Stream{CodecTag: "encv"}).IsEncrypted() {
		t.Fatal("expected encv to be encrypted")
	}
	if !(Stream{Tags: map[string]string{"ENCRYPTION": "cenc"}}).IsEncrypted() {
		t.Fatal("expected encryption tag to mark stream encrypted")
	}
	if (Stream{CodecTag: "avc1"}).IsEncrypted() {
		t.Fatal("expected clear stream")
	}
}

func TestInspectRunsBinary(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "fake-ffprobe")
	body := "#!/bin/sh\ncat <<'JSON'\n" + sampleJSON + "\nJSON\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	result, err := Inspect(context.Background(), script, "/media/movie.mp4")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if len(result.Streams) != 4 || len(result.RawJSON()) == 0 {
		t.Fatalf("unexpected result: %d streams", len(result.Streams))
	}
}

func TestInspectReportsFailure(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "failing-ffprobe")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho 'Invalid data' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	if _, err := Inspect(context.Background(), script, "/media/broken.mkv"); err == nil {
		t.Fatal("expected error from failing binary")
	}
	if _, err := Inspect(context.Background(), script, " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
