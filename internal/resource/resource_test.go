package resource_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mediahub/internal/format"
	"mediahub/internal/logging"
	"mediahub/internal/mediacache"
	"mediahub/internal/mediainfo"
	"mediahub/internal/resource"
	"mediahub/internal/testsupport"
)

type fakeParser struct {
	name      string
	calls     atomic.Int32
	delay     time.Duration
	container string
	encrypted bool
	err       error
	block     chan struct{}
	started   chan struct{}
}

func (p *fakeParser) Name() string { return p.name }

func (p *fakeParser) Parse(_ context.Context, mi *mediainfo.MediaInfo, _ string, _ *format.Format, _ format.Type) error {
	p.calls.Add(1)
	if p.started != nil {
		close(p.started)
	}
	if p.block != nil {
		<-p.block
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.err != nil {
		return p.err
	}
	mi.Container = p.container
	mi.AddVideoTrack(mediainfo.VideoTrack{Codec: "h264", Width: 640, Height: 480, Encrypted: p.encrypted})
	return nil
}

type recordingEnqueuer struct {
	mu    sync.Mutex
	paths []string
}

func (e *recordingEnqueuer) Enqueue(path string, _ int64, _ *mediainfo.MediaInfo) {
	e.mu.Lock()
	e.paths = append(e.paths, path)
	e.mu.Unlock()
}

func newDeps(t *testing.T, primary, secondary *fakeParser) (*resource.Deps, *mediacache.Cache) {
	t.Helper()
	cache, err := mediacache.New(nil, primary, logging.NewNop())
	if err != nil {
		t.Fatalf("mediacache.New: %v", err)
	}
	deps := &resource.Deps{
		Registry:     format.NewDefaultRegistry(),
		Cache:        cache,
		UseMediaInfo: true,
		Logger:       logging.NewNop(),
	}
	if secondary != nil {
		deps.Secondary = secondary
	}
	return deps, cache
}

func writeMedia(t *testing.T, name string, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	testsupport.WriteFile(t, path, size)
	return path
}

func TestConcurrentResolveParsesOnce(t *testing.T) {
	parser := &fakeParser{name: "ffprobe", container: "matroska", delay: 30 * time.Millisecond}
	deps, _ := newDeps(t, parser, nil)
	enq := &recordingEnqueuer{}
	deps.Enricher = enq
	file := resource.NewRealFile(writeMedia(t, "Show Name (2010) S02E05.mkv", 2048), deps)

	const callers = 10
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			file.Resolve(context.Background())
		}()
	}
	wg.Wait()

	if parser.calls.Load() != 1 {
		t.Fatalf("expected exactly one parse, got %d", parser.calls.Load())
	}
	if !file.IsMediaParsed() || file.State() != resource.Resolved {
		t.Fatalf("expected parsed and resolved, got state %v", file.State())
	}
	if len(enq.paths) != 1 || enq.paths[0] != file.Path() {
		t.Fatalf("expected one enrichment submission for %s, got %v", file.Path(), enq.paths)
	}
}

func TestResolveSharesCacheAcrossResources(t *testing.T) {
	parser := &fakeParser{name: "ffprobe", container: "matroska"}
	deps, _ := newDeps(t, parser, nil)
	path := writeMedia(t, "movie.mkv", 100)

	a := resource.NewRealFile(path, deps)
	b := resource.NewRealFile(path, deps)
	a.Resolve(context.Background())
	b.Resolve(context.Background())

	if parser.calls.Load() != 1 {
		t.Fatalf("expected one parse across resources, got %d", parser.calls.Load())
	}
	if a.MediaInfo() != b.MediaInfo() {
		t.Fatal("expected shared MediaInfo")
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		size      int64
		missing   bool
		container string
		encrypted bool
		secondary *fakeParser
		useMI     bool
		want      bool
		parses    int32
	}{
		{name: "missing file", file: "gone.mkv", missing: true, useMI: true, want: false},
		{name: "subtitle", file: "movie.srt", size: 10, useMI: true, want: false},
		{name: "unknown extension", file: "notes.xyz", size: 10, useMI: true, want: false},
		{name: "upload placeholder", file: "upload.mkv", size: int64(len(resource.UploadPlaceholder)), useMI: true, want: true},
		{name: "parsed video", file: "movie.mkv", size: 100, container: "matroska", useMI: true, want: true, parses: 1},
		{name: "encrypted", file: "drm.mp4", size: 100, container: "mp4", encrypted: true, useMI: true, want: false, parses: 1},
		{name: "no container without secondary", file: "odd.mkv", size: 100, useMI: true, want: false, parses: 1},
		{name: "secondary recovers", file: "odd.mkv", size: 100, secondary: &fakeParser{name: "ffprobe-deep", container: "mpegts"}, useMI: true, want: true, parses: 1},
		{name: "secondary fails", file: "odd.mkv", size: 100, secondary: &fakeParser{name: "ffprobe-deep", err: errors.New("exit 1")}, useMI: true, want: false, parses: 1},
		{name: "no media info parsing", file: "movie.mkv", size: 100, useMI: false, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &fakeParser{name: "ffprobe", container: tt.container, encrypted: tt.encrypted}
			deps, _ := newDeps(t, primary, tt.secondary)
			deps.UseMediaInfo = tt.useMI

			path := filepath.Join(t.TempDir(), tt.file)
			if !tt.missing {
				testsupport.WriteFile(t, path, tt.size)
			}
			file := resource.NewRealFile(path, deps)
			if got := file.IsValid(context.Background()); got != tt.want {
				t.Fatalf("IsValid = %v, want %v", got, tt.want)
			}
			if primary.calls.Load() != tt.parses {
				t.Fatalf("primary parses = %d, want %d", primary.calls.Load(), tt.parses)
			}
			wantValidity := resource.Invalid
			if tt.want {
				wantValidity = resource.Valid
			}
			if file.Validity() != wantValidity {
				t.Fatalf("Validity = %v, want %v", file.Validity(), wantValidity)
			}
		})
	}
}

func TestSecondaryProbeUpdatesMediaInfo(t *testing.T) {
	secondary := &fakeParser{name: "ffprobe-deep", container: "mpegts"}
	deps, _ := newDeps(t, &fakeParser{name: "ffprobe"}, secondary)
	file := resource.NewRealFile(writeMedia(t, "capture.ts", 500), deps)

	if !file.IsValid(context.Background()) {
		t.Fatal("expected valid after secondary probe")
	}
	mi := file.MediaInfo()
	if mi.Container != "mpegts" || mi.ParsedBy != "ffprobe-deep" || !mi.IsParsed() {
		t.Fatalf("unexpected media info after reparse: container=%q parsedBy=%q state=%v", mi.Container, mi.ParsedBy, mi.State())
	}
}

func TestWaitMediaParsingDuringSecondaryProbe(t *testing.T) {
	mediainfo.ParsePollInterval = 5 * time.Millisecond
	t.Cleanup(func() { mediainfo.ParsePollInterval = 100 * time.Millisecond })

	secondary := &fakeParser{name: "ffprobe-deep", container: "mpegts", block: make(chan struct{}), started: make(chan struct{})}
	deps, _ := newDeps(t, &fakeParser{name: "ffprobe"}, secondary)
	file := resource.NewRealFile(writeMedia(t, "slow.mkv", 500), deps)

	done := make(chan bool)
	go func() { done <- file.IsValid(context.Background()) }()
	<-secondary.started

	if file.WaitMediaParsing(0) {
		t.Fatal("expected timeout while the secondary probe runs")
	}
	close(secondary.block)
	if !file.WaitMediaParsing(5) {
		t.Fatal("expected parse to finish")
	}
	if !<-done {
		t.Fatal("expected file to be valid")
	}
}

func TestFollowSymlinksKeysOnTarget(t *testing.T) {
	parser := &fakeParser{name: "ffprobe", container: "matroska"}
	deps, cache := newDeps(t, parser, nil)
	deps.FollowSymlinks = true

	target := writeMedia(t, "real.mkv", 100)
	link := filepath.Join(t.TempDir(), "link.mkv")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	file := resource.NewRealFile(link, deps)
	file.Resolve(context.Background())

	key, err := file.Key()
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	resolvedTarget, _ := filepath.EvalSymlinks(target)
	if key.Path != resolvedTarget {
		t.Fatalf("key path = %q, want %q", key.Path, resolvedTarget)
	}
	if _, ok := cache.Peek(key); !ok {
		t.Fatal("expected cache entry under the symlink target")
	}
}

func TestSplitTrackKey(t *testing.T) {
	deps, _ := newDeps(t, &fakeParser{name: "ffprobe", container: "flac"}, nil)
	file := resource.NewRealFile(writeMedia(t, "album.flac", 100), deps)
	file.SetSplitTrack(3)
	key, err := file.Key()
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if key.StoreKey() != file.Path()+"#SplitTrack3" {
		t.Fatalf("StoreKey = %q", key.StoreKey())
	}
}

func TestWebStream(t *testing.T) {
	parser := &fakeParser{name: "ffprobe", container: "hls"}
	deps, _ := newDeps(t, parser, nil)

	stream := resource.NewWebStream("https://example.com/live/channel.m3u8", "", deps)
	if stream.Name() != "channel.m3u8" {
		t.Fatalf("Name = %q", stream.Name())
	}
	if !stream.IsValid(context.Background()) {
		t.Fatal("expected URL to match the web format")
	}
	stream.Resolve(context.Background())
	stream.Resolve(context.Background())
	if parser.calls.Load() != 1 || !stream.IsMediaParsed() {
		t.Fatalf("expected one parse, got %d", parser.calls.Load())
	}
	if stream.Length() != -1 {
		t.Fatalf("Length = %d", stream.Length())
	}
	if !resource.NewWebStream("not a url", "", deps).WaitMediaParsing(0) {
		t.Fatal("expected idle resource to report no parse in flight")
	}
}
