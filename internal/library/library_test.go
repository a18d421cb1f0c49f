package library_test

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
	"mediahub/internal/library"
	"mediahub/internal/logging"
	"mediahub/internal/mediacache"
	"mediahub/internal/mediainfo"
	"mediahub/internal/resource"
	"mediahub/internal/testsupport"
)

type fakeParser struct {
	calls atomic.Int32
}

func (p *fakeParser) Name() string { return "fake" }

func (p *fakeParser) Parse(_ context.Context, mi *mediainfo.MediaInfo, _ string, _ *format.Format, _ format.Type) error {
	p.calls.Add(1)
	mi.Container = "matroska"
	mi.AddVideoTrack(mediainfo.VideoTrack{Codec: "h264", Width: 1920, Height: 1080})
	return nil
}

func newDeps(t *testing.T, parser *fakeParser) *resource.Deps {
	t.Helper()
	cache, err := mediacache.New(nil, parser, logging.NewNop())
	if err != nil {
		t.Fatalf("mediacache.New: %v", err)
	}
	return &resource.Deps{
		Registry:     format.NewDefaultRegistry(),
		Cache:        cache,
		UseMediaInfo: true,
		Logger:       logging.NewNop(),
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScanCountsFiles(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "Movie (2001).mkv"), 2048)
	testsupport.WriteFile(t, filepath.Join(root, "Movie (2001).srt"), 64)
	testsupport.WriteFile(t, filepath.Join(root, "notes.txt"), 64)
	testsupport.WriteFile(t, filepath.Join(root, ".cache", "hidden.mkv"), 2048)
	testsupport.WriteFile(t, filepath.Join(root, "Show", "Show S01E01.mkv"), 2048)

	parser := &fakeParser{}
	missing := filepath.Join(t.TempDir(), "gone")
	var completed []library.Result
	scanner := library.NewScanner([]string{root, missing}, newDeps(t, parser), logging.NewNop(), nil,
		library.WithConcurrency(2),
		library.WithCompletionHook(func(_ context.Context, r library.Result) { completed = append(completed, r) }),
	)

	result, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Folders != 1 {
		t.Fatalf("expected one readable folder, got %d", result.Folders)
	}
	if result.Files != 3 || result.Valid != 2 || result.Invalid != 1 || result.Skipped != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected the missing folder to be reported, got %v", result.Errors)
	}
	if parser.calls.Load() != 2 {
		t.Fatalf("expected two parses, got %d", parser.calls.Load())
	}
	last, ok := scanner.LastResult()
	if !ok || last.Files != result.Files {
		t.Fatalf("expected last result to be kept, got %+v %v", last, ok)
	}

	if _, err := scanner.Scan(context.Background()); err != nil {
		t.Fatalf("second Scan: %v", err)
	}
	if parser.calls.Load() != 2 {
		t.Fatalf("expected cached media info on rescan, got %d parses", parser.calls.Load())
	}
	if len(completed) != 2 || completed[0].Files != 3 {
		t.Fatalf("expected completion hook per scan, got %+v", completed)
	}
}

func TestScanRejectsConcurrentRun(t *testing.T) {
	scanner := library.NewScanner([]string{t.TempDir()}, newDeps(t, &fakeParser{}), logging.NewNop(), nil)
	gate := scanner.Gate()
	if !gate.Hold() {
		t.Fatal("expected to hold an idle gate")
	}
	defer gate.Release()
	if !scanner.Running() {
		t.Fatal("expected scanner to report running")
	}
	if _, err := scanner.Scan(context.Background()); !errors.Is(err, library.ErrScanRunning) {
		t.Fatalf("expected ErrScanRunning, got %v", err)
	}
}

func TestScanGateWaits(t *testing.T) {
	gate := library.NewScanGate()
	if err := gate.WaitScan(context.Background()); err != nil {
		t.Fatalf("idle gate should not block: %v", err)
	}
	if !gate.Hold() {
		t.Fatal("Hold failed")
	}
	if gate.Hold() {
		t.Fatal("second Hold should fail")
	}

	released := make(chan error, 1)
	go func() {
		released <- gate.WaitScan(context.Background())
	}()
	select {
	case err := <-released:
		t.Fatalf("WaitScan returned before release: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	gate.Release()
	select {
	case err := <-released:
		if err != nil {
			t.Fatalf("WaitScan: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitScan did not return after release")
	}

	gate.Hold()
	defer gate.Release()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := gate.WaitScan(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestContains(t *testing.T) {
	root := t.TempDir()
	scanner := library.NewScanner([]string{root}, newDeps(t, &fakeParser{}), logging.NewNop(), nil)
	if !scanner.Contains(filepath.Join(root, "a", "b.mkv")) {
		t.Fatal("expected nested path to be contained")
	}
	if scanner.Contains(filepath.Join(filepath.Dir(root), "other.mkv")) {
		t.Fatal("expected sibling path to be outside")
	}
}

type recordingRemover struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordingRemover) RemoveMediaFiles(_ context.Context, keys ...string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, keys...)
	return int64(len(keys)), nil
}

func (r *recordingRemover) removed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

func TestWatcherResolvesAndForgetsFiles(t *testing.T) {
	root := t.TempDir()
	parser := &fakeParser{}
	scanner := library.NewScanner([]string{root}, newDeps(t, parser), logging.NewNop(), nil)
	remover := &recordingRemover{}
	watcher, err := library.NewWatcher(scanner, remover, logging.NewNop(), library.WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = watcher.Close()
	})
	watcher.Start(ctx)

	path := filepath.Join(root, "Arrival (2016).mkv")
	testsupport.WriteFile(t, path, 4096)
	testsupport.WriteFile(t, filepath.Join(root, "download.part"), 4096)
	waitFor(t, "new file to be parsed", func() bool { return parser.calls.Load() == 1 })

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	waitFor(t, "removed file to be forgotten", func() bool {
		keys := remover.removed()
		return len(keys) == 1 && keys[0] == path
	})
	if parser.calls.Load() != 1 {
		t.Fatalf("expected temp download to be ignored, got %d parses", parser.calls.Load())
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	parser := &fakeParser{}
	scanner := library.NewScanner([]string{root}, newDeps(t, parser), logging.NewNop(), nil)
	watcher, err := library.NewWatcher(scanner, nil, logging.NewNop(), library.WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = watcher.Close()
	})
	watcher.Start(ctx)

	dir := filepath.Join(root, "Season 01")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Give the watcher a moment to register the new directory.
	time.Sleep(100 * time.Millisecond)
	testsupport.WriteFile(t, filepath.Join(dir, "Show S01E02.mkv"), 4096)
	waitFor(t, "file in new directory to be parsed", func() bool { return parser.calls.Load() == 1 })
}

type countingPruner struct {
	runs atomic.Int32
}

func (p *countingPruner) PruneFailedLookups(context.Context) (int64, error) {
	p.runs.Add(1)
	return 0, nil
}

func TestSchedulerRunsPrune(t *testing.T) {
	pruner := &countingPruner{}
	sched, err := library.NewScheduler(context.Background(), nil, pruner, "", "@every 1s", logging.NewNop())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	if sched.Jobs() != 1 {
		t.Fatalf("expected one job, got %d", sched.Jobs())
	}
	sched.Start()
	t.Cleanup(sched.Stop)
	waitFor(t, "prune job", func() bool { return pruner.runs.Load() > 0 })
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	if _, err := library.NewScheduler(context.Background(), nil, &countingPruner{}, "", "every tuesday", logging.NewNop()); err == nil {
		t.Fatal("expected an invalid schedule to fail")
	}
	sched, err := library.NewScheduler(context.Background(), nil, nil, "", "", logging.NewNop())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	if sched.Jobs() != 0 {
		t.Fatalf("expected no jobs, got %d", sched.Jobs())
	}
	sched.Start()
	sched.Stop()
}
