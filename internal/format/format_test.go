package format_test

import (
	"sync"
	"testing"

	"mediahub/internal/format"
)

func TestDefaultRegistryMatchesByExtension(t *testing.T) {
	reg := format.NewDefaultRegistry()
	tests := []struct {
		name string
		want format.Identifier
		ext  string
	}{
		{"movie.mkv", format.MKV, "mkv"},
		{"MOVIE.MKV", format.MKV, "mkv"},
		{"/media/tv/Show S01E02.mp4", format.MPG, "mp4"},
		{"song.mp3", format.MP3, "mp3"},
		{"album.FLAC", format.FLAC, "flac"},
		{"photo.jpeg", format.JPG, "jpeg"},
		{"disc.iso", format.ISOImage, "iso"},
		{"movie.en.srt", format.SUB, "srt"},
		{"list.m3u8", format.PlaylistFile, "m3u8"},
		{"recording.dvr-ms", format.DVRMS, "dvr-ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reg.Match(tt.name)
			if got == nil {
				t.Fatalf("Match(%q) returned nil", tt.name)
			}
			if got.ID != tt.want {
				t.Fatalf("Match(%q) = %s, want %s", tt.name, got.ID, tt.want)
			}
			if got.MatchedExtension != tt.ext {
				t.Fatalf("matched extension = %q, want %q", got.MatchedExtension, tt.ext)
			}
		})
	}
}

func TestMatchReturnsNilForUnknown(t *testing.T) {
	reg := format.NewDefaultRegistry()
	for _, name := range []string{"", "README", "archive.zip", "noext."} {
		if got := reg.Match(name); got != nil {
			t.Fatalf("Match(%q) = %s, want nil", name, got.ID)
		}
	}
}

func TestURLsMatchOnlyWeb(t *testing.T) {
	reg := format.NewDefaultRegistry()
	got := reg.Match("http://example.com/stream.mkv")
	if got == nil || got.ID != format.WEB {
		t.Fatalf("expected WEB format for URL, got %v", got)
	}
	if got.MatchedExtension != "http" {
		t.Fatalf("expected protocol recorded, got %q", got.MatchedExtension)
	}
	if reg.Match("gopher://example.com/file.mkv") != nil {
		t.Fatal("expected unknown protocol to match nothing")
	}

	mkv := reg.ByType(format.MKV)
	if mkv.Match("https://example.com/movie.mkv") {
		t.Fatal("expected extension formats to ignore URLs")
	}
}

func TestMatchOrderIsSignificant(t *testing.T) {
	first := &format.Format{ID: format.Custom, Type: format.Video, Extensions: []string{"foo"}}
	second := &format.Format{ID: format.MKV, Type: format.Video, Extensions: []string{"foo", "mkv"}}
	reg := format.NewRegistry(first, second)

	if got := reg.Match("clip.foo"); got.ID != format.Custom {
		t.Fatalf("expected first registered format, got %s", got.ID)
	}
	if got := reg.Match("clip.mkv"); got.ID != format.MKV {
		t.Fatalf("expected MKV, got %s", got.ID)
	}
}

func TestMatchReturnsIsolatedDuplicate(t *testing.T) {
	reg := format.NewDefaultRegistry()
	a := reg.Match("a.mkv")
	a.MatchedExtension = "changed"
	a.Extensions[0] = "zzz"

	b := reg.Match("b.mkv")
	if b.MatchedExtension != "mkv" {
		t.Fatalf("expected fresh matched extension, got %q", b.MatchedExtension)
	}
	if b.Extensions[0] == "zzz" {
		t.Fatal("mutation of a duplicate leaked into the registry")
	}
}

func TestByType(t *testing.T) {
	reg := format.NewDefaultRegistry()
	flac := reg.ByType(format.FLAC)
	if flac == nil || !flac.IsAudio() {
		t.Fatalf("expected audio FLAC format, got %v", flac)
	}
	if flac.Secondary == nil || flac.Secondary.ID != format.AudioAsVideo || !flac.Secondary.IsVideo() {
		t.Fatalf("expected audio-as-video secondary, got %v", flac.Secondary)
	}
	if reg.ByType(format.Identifier("NOPE")) != nil {
		t.Fatal("expected nil for unregistered identifier")
	}
}

func TestRegisterAndUnregister(t *testing.T) {
	reg := format.NewRegistry()
	custom := &format.Format{ID: format.Custom, Type: format.Video, Extensions: []string{"xyz"}}
	reg.Register(custom)
	if reg.Match("clip.xyz") == nil {
		t.Fatal("expected registered format to match")
	}
	if !reg.Unregister(custom) {
		t.Fatal("expected unregister to succeed")
	}
	if reg.Match("clip.xyz") != nil {
		t.Fatal("expected no match after unregister")
	}
	if reg.Unregister(custom) {
		t.Fatal("expected second unregister to report false")
	}
}

func TestConcurrentMatchAndRegister(t *testing.T) {
	reg := format.NewDefaultRegistry()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for range 100 {
				if reg.Match("movie.mkv") == nil {
					t.Error("expected match during concurrent registration")
					return
				}
				if i == 0 {
					f := &format.Format{ID: format.Custom, Extensions: []string{"tmp"}}
					reg.Register(f)
					reg.Unregister(f)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestSkip(t *testing.T) {
	f := format.NewDefaultRegistry().Match("movie.MKV")
	if !f.Skip("avi,mkv") {
		t.Fatal("expected skip when extension listed")
	}
	if f.Skip("avi", "") {
		t.Fatal("expected no skip when extension absent")
	}
	if !f.Skip("", "*") {
		t.Fatal("expected wildcard to skip")
	}
}

func TestTypeHelpers(t *testing.T) {
	unknown := &format.Format{Type: format.Unknown}
	unknown.SetType(format.Audio)
	if !unknown.IsAudio() {
		t.Fatal("expected type to change while unknown")
	}
	unknown.SetType(format.Video)
	if unknown.IsVideo() {
		t.Fatal("expected type to stay once known")
	}
	if got := (format.Audio | format.Video).String(); got != "audio|video" {
		t.Fatalf("unexpected type string %q", got)
	}
	if got := (&format.Format{Type: format.Image}).Mime(); got != "image/jpeg" {
		t.Fatalf("unexpected default mime %q", got)
	}
	if got := format.Protocol("HTTPS://host/x"); got != "https" {
		t.Fatalf("unexpected protocol %q", got)
	}
	if got := format.Protocol("/media/a.mkv"); got != "" {
		t.Fatalf("expected no protocol, got %q", got)
	}
}
