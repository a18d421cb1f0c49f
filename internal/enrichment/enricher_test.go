package enrichment_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"mediahub/internal/catalog"
	"mediahub/internal/config"
	"mediahub/internal/enrichment"
	"mediahub/internal/logging"
	"mediahub/internal/mediainfo"
	"mediahub/internal/services"
	"mediahub/internal/store"
	"mediahub/internal/testsupport"
)

var posterBytes = []byte("\x89PNG\r\n\x1a\nposter")

// fakeCatalog serves canned bodies per path and counts requests.
type fakeCatalog struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	bodies   map[string]string
	statuses map[string]int
	calls    map[string]int
	block    chan struct{}
}

func newFakeCatalog(t *testing.T) *fakeCatalog {
	t.Helper()
	fc := &fakeCatalog{
		t:        t,
		bodies:   map[string]string{},
		statuses: map[string]int{},
		calls:    map[string]int{},
	}
	fc.server = httptest.NewServer(http.HandlerFunc(fc.serve))
	t.Cleanup(fc.server.Close)
	fc.set("/api/subversions", http.StatusOK, `{"series":"2","video":"3"}`)
	fc.set("/api/configuration", http.StatusOK, fmt.Sprintf(`{"imageBaseURL":"%s/images/"}`, fc.server.URL))
	return fc
}

func (fc *fakeCatalog) set(path string, status int, body string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.statuses[path] = status
	fc.bodies[path] = body
}

func (fc *fakeCatalog) count(path string) int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.calls[path]
}

func (fc *fakeCatalog) serve(w http.ResponseWriter, r *http.Request) {
	fc.mu.Lock()
	fc.calls[r.URL.Path]++
	status, ok := fc.statuses[r.URL.Path]
	body := fc.bodies[r.URL.Path]
	block := fc.block
	fc.mu.Unlock()

	if r.URL.Path == "/images/w500/poster.png" {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(posterBytes)
		return
	}
	if block != nil && r.URL.Path == "/api/media/video/v2" {
		select {
		case <-block:
		case <-r.Context().Done():
			return
		}
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

type harness struct {
	cfg      *config.Config
	store    *store.Store
	catalog  *fakeCatalog
	enricher *enrichment.Enricher
}

func newHarness(t *testing.T, opts ...catalog.Option) *harness {
	t.Helper()
	fc := newFakeCatalog(t)
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog(fc.server.URL))
	st := testsupport.MustOpenStore(t, cfg)
	client, err := catalog.New(fc.server.URL, cfg.Catalog.Language, opts...)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	e, err := enrichment.New(enrichment.Deps{
		Config:  cfg,
		Store:   st,
		Catalog: client,
		Logger:  logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("enrichment.New: %v", err)
	}
	t.Cleanup(e.Shutdown)
	return &harness{cfg: cfg, store: st, catalog: fc, enricher: e}
}

func mediaInfoFor(path string) *mediainfo.MediaInfo {
	mi := mediainfo.New()
	mi.SetVideoMetadata(mediainfo.FromFilename(path))
	return mi
}

const episodePath = "/media/tv/Show Name (2010) S02E05.mkv"

func TestEpisodeAcceptedAndLinkedToSeries(t *testing.T) {
	h := newHarness(t)
	h.catalog.set("/api/media/video/v2", http.StatusOK,
		`{"type":"episode","season":"2","episode":"5","seriesIMDbID":"tt1","title":"Ep Title","tmdbID":11,"posterRelativePath":"/poster.png"}`)
	h.catalog.set("/api/media/series/v2", http.StatusOK,
		`{"type":"series","title":"Show Name","imdbID":"tt1","tmdbID":77,"genres":["Drama"]}`)

	mi := mediaInfoFor(episodePath)
	ctx := context.Background()
	out, err := h.enricher.LookupNow(ctx, episodePath, 1000, mi)
	if err != nil {
		t.Fatalf("LookupNow returned error: %v", err)
	}
	if !out.Stored || out.SuppressRetry {
		t.Fatalf("unexpected outcome %+v", out)
	}
	vm := out.Metadata
	if vm.Title != "Ep Title" || vm.TVSeason != 2 || vm.TVEpisode != "05" || !vm.IsTVEpisode {
		t.Fatalf("unexpected metadata %+v", vm)
	}
	if vm.APIVersion != "3-1" {
		t.Fatalf("expected suffixed video version, got %q", vm.APIVersion)
	}
	if vm.Poster != h.catalog.server.URL+"/images/w500/poster.png" {
		t.Fatalf("unexpected poster %q", vm.Poster)
	}
	if out.SeriesID == 0 || vm.TVSeriesID != out.SeriesID || vm.TMDbTVID != 77 {
		t.Fatalf("expected series link, got series=%d meta=%+v", out.SeriesID, vm)
	}

	if got := mi.VideoMetadata(); got.Title != "Ep Title" {
		t.Fatalf("expected in-memory metadata update, got %q", got.Title)
	}
	if thumb, ok := mi.Thumbnail(); !ok || thumb.Source != enrichment.ThumbnailSource {
		t.Fatalf("expected thumbnail, got %+v %v", thumb, ok)
	}

	fresh, err := h.store.DoesLatestAPIMetadataExist(ctx, episodePath, 1000, "3-1")
	if err != nil || !fresh {
		t.Fatalf("expected stored metadata at current version, got %v %v", fresh, err)
	}
	series, err := h.store.GetSeriesByImdbID(ctx, "tt1")
	if err != nil || series == nil {
		t.Fatalf("expected stored series, got %v %v", series, err)
	}
	if series.Title != "Show Name (2010)" || series.APIVersion != "2-1" || len(series.Genres) != 1 {
		t.Fatalf("unexpected series %+v", series)
	}
	if counter, _ := h.store.UpdateCounter(ctx, episodePath); counter != 1 {
		t.Fatalf("expected update counter 1, got %d", counter)
	}

	again, err := h.enricher.LookupNow(ctx, episodePath, 1000, mi)
	if err != nil {
		t.Fatalf("second LookupNow returned error: %v", err)
	}
	if again.Skipped != enrichment.SkipFresh {
		t.Fatalf("expected fresh skip, got %+v", again)
	}
	if calls := h.catalog.count("/api/media/video/v2"); calls != 1 {
		t.Fatalf("expected one video call, got %d", calls)
	}
}

func TestSeasonMismatchRecordsFailureAndStillLooksUpSeries(t *testing.T) {
	h := newHarness(t)
	h.catalog.set("/api/media/video/v2", http.StatusOK,
		`{"type":"episode","season":"3","episode":"5","seriesIMDbID":"tt1","title":"Other"}`)
	h.catalog.set("/api/media/series/v2", http.StatusOK,
		`{"type":"series","title":"Show Name","imdbID":"tt1"}`)

	ctx := context.Background()
	out, err := h.enricher.LookupNow(ctx, episodePath, 1000, mediaInfoFor(episodePath))
	if err != nil {
		t.Fatalf("LookupNow returned error: %v", err)
	}
	if out.Stored || !out.SuppressRetry || out.Reason != enrichment.ReasonDataMismatch {
		t.Fatalf("unexpected outcome %+v", out)
	}
	failed, err := h.store.HasLookupFailedRecently(ctx, episodePath, true)
	if err != nil || !failed {
		t.Fatalf("expected recorded failure, got %v %v", failed, err)
	}
	if calls := h.catalog.count("/api/media/series/v2"); calls != 1 {
		t.Fatalf("expected series lookup after rejection, got %d calls", calls)
	}
	if series, _ := h.store.GetSeriesByTitle(ctx, "Show Name (2010)", 2010); series == nil {
		t.Fatal("expected series stored despite episode rejection")
	}
}

func TestMovieYearMismatchIsNotRetried(t *testing.T) {
	h := newHarness(t)
	h.catalog.set("/api/media/video/v2", http.StatusOK, `{"type":"movie","year":"2001","title":"Movie","imdbID":"tt0000001"}`)

	const path = "/media/movies/Movie (1999).mp4"
	ctx := context.Background()
	out, err := h.enricher.LookupNow(ctx, path, 5, mediaInfoFor(path))
	if err != nil {
		t.Fatalf("LookupNow returned error: %v", err)
	}
	if out.Stored || out.Reason != enrichment.ReasonDataMismatch {
		t.Fatalf("expected rejection, got %+v", out)
	}

	again, err := h.enricher.LookupNow(ctx, path, 5, mediaInfoFor(path))
	if err != nil {
		t.Fatalf("second LookupNow returned error: %v", err)
	}
	if again.Skipped != enrichment.SkipRecentFailure {
		t.Fatalf("expected recent failure skip, got %+v", again)
	}
	if calls := h.catalog.count("/api/media/video/v2"); calls != 1 {
		t.Fatalf("expected no second remote call, got %d", calls)
	}
	if calls := h.catalog.count("/api/media/series/v2"); calls != 0 {
		t.Fatalf("movies must not query series, got %d", calls)
	}
}

func TestTimeoutLeavesNoFailureRecord(t *testing.T) {
	h := newHarness(t, catalog.WithTimeout(50*time.Millisecond))
	release := make(chan struct{})
	h.catalog.mu.Lock()
	h.catalog.block = release
	h.catalog.mu.Unlock()
	defer close(release)
	h.catalog.set("/api/media/video/v2", http.StatusOK, `{"type":"movie"}`)

	const path = "/media/movies/Slow (2005).mkv"
	ctx := context.Background()
	_, err := h.enricher.LookupNow(ctx, path, 1, mediaInfoFor(path))
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !services.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	rows, err := h.store.ListFailedLookups(ctx, 10)
	if err != nil {
		t.Fatalf("ListFailedLookups: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no failure rows, got %+v", rows)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	h := newHarness(t)
	h.catalog.set("/api/media/video/v2", http.StatusInternalServerError, `oops`)

	const path = "/media/movies/Broken (2005).mkv"
	ctx := context.Background()
	if _, err := h.enricher.LookupNow(ctx, path, 1, mediaInfoFor(path)); !services.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if failed, _ := h.store.HasLookupFailedRecently(ctx, path, true); failed {
		t.Fatal("transient failures must not be recorded")
	}
}

func TestNotFoundIsRecorded(t *testing.T) {
	h := newHarness(t)
	h.catalog.set("/api/media/video/v2", http.StatusNotFound, `{"message":"Metadata not found"}`)

	const path = "/media/movies/Unknown Film (1970).mkv"
	ctx := context.Background()
	out, err := h.enricher.LookupNow(ctx, path, 1, mediaInfoFor(path))
	if err != nil {
		t.Fatalf("LookupNow returned error: %v", err)
	}
	if out.Reason != enrichment.ReasonNoResult || !out.SuppressRetry {
		t.Fatalf("unexpected outcome %+v", out)
	}
	rows, _ := h.store.ListFailedLookups(ctx, 10)
	if len(rows) != 1 || rows[0].Reason != enrichment.ReasonNoResult || !rows[0].FileLevel {
		t.Fatalf("unexpected failure rows %+v", rows)
	}
}

func TestPartialResponsePreservesFields(t *testing.T) {
	h := newHarness(t)
	h.catalog.set("/api/media/video/v2", http.StatusOK,
		`{"type":"movie","year":"1999","title":"Movie","imdbID":"tt0000001","tagline":"New tagline","plot":null}`)

	const path = "/media/movies/Movie (1999).mp4"
	vm := mediainfo.FromFilename(path)
	vm.Genres = []string{"Drama"}
	vm.Overview = "kept overview"
	vm.Actors = []string{"Someone"}
	mi := mediainfo.New()
	mi.SetVideoMetadata(vm)

	out, err := h.enricher.LookupNow(context.Background(), path, 1, mi)
	if err != nil {
		t.Fatalf("LookupNow returned error: %v", err)
	}
	got := out.Metadata
	if !out.Stored || got == nil {
		t.Fatalf("expected stored metadata, got %+v", out)
	}
	if got.Overview != "kept overview" || len(got.Genres) != 1 || len(got.Actors) != 1 {
		t.Fatalf("omitted fields were cleared: %+v", got)
	}
	if got.Tagline != "New tagline" || got.IMDbID != "tt0000001" || got.Year != 1999 {
		t.Fatalf("expected response fields applied: %+v", got)
	}
}

func TestMissingIDsStoresAndSuppresses(t *testing.T) {
	h := newHarness(t)
	h.catalog.set("/api/media/video/v2", http.StatusOK, `{"type":"movie","year":"1999","title":"Movie"}`)

	const path = "/media/movies/Movie (1999).mp4"
	ctx := context.Background()
	out, err := h.enricher.LookupNow(ctx, path, 1, mediaInfoFor(path))
	if err != nil {
		t.Fatalf("LookupNow returned error: %v", err)
	}
	if !out.Stored || !out.SuppressRetry || out.Reason != enrichment.ReasonMissingIDs {
		t.Fatalf("expected stored and suppressed outcome, got %+v", out)
	}
	rows, _ := h.store.ListFailedLookups(ctx, 10)
	if len(rows) != 1 || rows[0].Reason != enrichment.ReasonMissingIDs {
		t.Fatalf("unexpected failure rows %+v", rows)
	}
}

func TestDisabledLookupsSkip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	e, err := enrichment.New(enrichment.Deps{Config: cfg, Store: st, Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("enrichment.New: %v", err)
	}
	out, err := e.LookupNow(context.Background(), "/media/a.mkv", 1, nil)
	if err != nil {
		t.Fatalf("LookupNow returned error: %v", err)
	}
	if out.Skipped != enrichment.SkipDisabled {
		t.Fatalf("expected disabled skip, got %+v", out)
	}
}

func TestVersionsFallBackToStoredValues(t *testing.T) {
	h := newHarness(t)
	h.catalog.set("/api/subversions", http.StatusInternalServerError, `down`)
	h.catalog.set("/api/configuration", http.StatusInternalServerError, `down`)
	ctx := context.Background()
	if err := h.store.SetOrUpdateMetadataValue(ctx, "SERIES_VERSION", "7"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := h.store.SetOrUpdateMetadataValue(ctx, "VIDEO_VERSION", "8"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := h.store.SetOrUpdateMetadataValue(ctx, "IMAGE_BASE_URL", "https://img/"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	v := h.enricher.Versions(ctx)
	if v.Series != "7-1" || v.Video != "8-1" || v.ImageBaseURL != "https://img/" {
		t.Fatalf("unexpected versions %+v", v)
	}
}

type gate struct {
	release chan struct{}
	waiting chan struct{}
}

func (g *gate) WaitScan(ctx context.Context) error {
	close(g.waiting)
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestLookupWaitsForScan(t *testing.T) {
	fc := newFakeCatalog(t)
	fc.set("/api/media/video/v2", http.StatusOK, `{"type":"movie","year":"1999","title":"Movie","imdbID":"tt0000001"}`)
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog(fc.server.URL))
	st := testsupport.MustOpenStore(t, cfg)
	g := &gate{release: make(chan struct{}), waiting: make(chan struct{})}
	e, err := enrichment.New(enrichment.Deps{Config: cfg, Store: st, ScanGate: g, Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("enrichment.New: %v", err)
	}

	const path = "/media/movies/Movie (1999).mp4"
	done := make(chan enrichment.Outcome, 1)
	go func() {
		out, _ := e.LookupNow(context.Background(), path, 1, mediaInfoFor(path))
		done <- out
	}()

	<-g.waiting
	if calls := fc.count("/api/media/video/v2"); calls != 0 {
		t.Fatalf("expected no remote call during scan, got %d", calls)
	}
	close(g.release)
	select {
	case out := <-done:
		if !out.Stored {
			t.Fatalf("expected stored outcome, got %+v", out)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("lookup did not finish after scan released")
	}
}

func TestEnqueueRunsInBackground(t *testing.T) {
	h := newHarness(t)
	h.catalog.set("/api/media/video/v2", http.StatusOK, `{"type":"movie","year":"1999","title":"Movie","imdbID":"tt0000001"}`)
	h.enricher.Start(context.Background())

	const path = "/media/movies/Movie (1999).mp4"
	h.enricher.Enqueue(path, 1, mediaInfoFor(path))

	ctx := context.Background()
	deadline := time.Now().Add(5 * time.Second)
	for {
		fresh, err := h.store.DoesLatestAPIMetadataExist(ctx, path, 1, "3-1")
		if err != nil {
			t.Fatalf("freshness check: %v", err)
		}
		if fresh {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("background enrichment did not store metadata")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestLocalizeCachesResult(t *testing.T) {
	h := newHarness(t)
	h.catalog.set("/api/media/localize", http.StatusOK,
		`{"title":"Der Film","overview":"Handlung","tmdbID":603,"posterRelativePath":"/de.jpg"}`)

	ctx := context.Background()
	req := enrichment.LocalizeRequest{Language: "de-DE", MediaType: enrichment.MediaMovie, IMDbID: "tt0133093"}
	first, err := h.enricher.Localize(ctx, req)
	if err != nil {
		t.Fatalf("Localize returned error: %v", err)
	}
	if first.Title != "Der Film" || first.ResolvedTMDbID != 603 {
		t.Fatalf("unexpected record %+v", first)
	}
	if first.Poster != h.catalog.server.URL+"/images/w500/de.jpg" {
		t.Fatalf("unexpected poster %q", first.Poster)
	}
	second, err := h.enricher.Localize(ctx, req)
	if err != nil {
		t.Fatalf("second Localize returned error: %v", err)
	}
	if second.Overview != "Handlung" {
		t.Fatalf("unexpected cached record %+v", second)
	}
	if calls := h.catalog.count("/api/media/localize"); calls != 1 {
		t.Fatalf("expected one remote call, got %d", calls)
	}

	if _, err := h.enricher.Localize(ctx, enrichment.LocalizeRequest{MediaType: enrichment.MediaMovie}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error without ids, got %v", err)
	}
}

func TestSeriesFailureKeepsExistingLink(t *testing.T) {
	h := newHarness(t)
	h.catalog.set("/api/media/video/v2", http.StatusOK,
		`{"type":"episode","season":"2","episode":"5","seriesIMDbID":"tt9","title":"Ep Title","imdbID":"tt5"}`)
	h.catalog.set("/api/media/series/v2", http.StatusInternalServerError, `down`)

	ctx := context.Background()
	seriesID, err := h.store.UpsertSeries(ctx, "Show Name (2010)", 2010)
	if err != nil {
		t.Fatalf("seed series: %v", err)
	}
	vm := mediainfo.FromFilename(episodePath)
	vm.TVSeriesID = seriesID
	mi := mediainfo.New()
	mi.SetVideoMetadata(vm)

	out, err := h.enricher.LookupNow(ctx, episodePath, 1000, mi)
	if err != nil {
		t.Fatalf("LookupNow returned error: %v", err)
	}
	if !out.Stored || out.SeriesID != 0 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if got := out.Metadata.TVSeriesID; got != seriesID {
		t.Fatalf("expected series link %d kept, got %d", seriesID, got)
	}
	if got := mi.VideoMetadata().TVSeriesID; got != seriesID {
		t.Fatalf("expected in-memory series link %d kept, got %d", seriesID, got)
	}
	fileID, err := h.store.FileID(ctx, episodePath, 1000)
	if err != nil || fileID == 0 {
		t.Fatalf("expected stored file, got %d %v", fileID, err)
	}
	stored, err := h.store.GetVideoMetadata(ctx, fileID)
	if err != nil || stored == nil {
		t.Fatalf("expected stored metadata, got %v %v", stored, err)
	}
	if stored.TVSeriesID != seriesID {
		t.Fatalf("expected stored series link %d kept, got %d", seriesID, stored.TVSeriesID)
	}
}

func TestEmptyResultIsRecordedAsNoResult(t *testing.T) {
	h := newHarness(t)
	h.catalog.set("/api/media/video/v2", http.StatusOK, `{}`)

	const path = "/media/movies/Movie (1999).mp4"
	ctx := context.Background()
	out, err := h.enricher.LookupNow(ctx, path, 1, mediaInfoFor(path))
	if err != nil {
		t.Fatalf("LookupNow returned error: %v", err)
	}
	if out.Stored || !out.SuppressRetry || out.Reason != enrichment.ReasonNoResult {
		t.Fatalf("expected no-result outcome, got %+v", out)
	}
	fresh, err := h.store.DoesLatestAPIMetadataExist(ctx, path, 1, "3-1")
	if err != nil || fresh {
		t.Fatalf("empty result must not be stored as current metadata, got %v %v", fresh, err)
	}
	rows, _ := h.store.ListFailedLookups(ctx, 10)
	if len(rows) != 1 || rows[0].Reason != enrichment.ReasonNoResult || !rows[0].FileLevel {
		t.Fatalf("unexpected failure rows %+v", rows)
	}
}

func TestEmptyEpisodeResultStillLooksUpSeries(t *testing.T) {
	h := newHarness(t)
	h.catalog.set("/api/media/video/v2", http.StatusOK, `{}`)
	h.catalog.set("/api/media/series/v2", http.StatusOK,
		`{"type":"series","title":"Show Name","imdbID":"tt1","tmdbID":77}`)

	out, err := h.enricher.LookupNow(context.Background(), episodePath, 1000, mediaInfoFor(episodePath))
	if err != nil {
		t.Fatalf("LookupNow returned error: %v", err)
	}
	if out.Stored || out.Reason != enrichment.ReasonNoResult {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if calls := h.catalog.count("/api/media/series/v2"); calls != 1 {
		t.Fatalf("expected series lookup, got %d calls", calls)
	}
	if out.SeriesID == 0 {
		t.Fatalf("expected series stored, got %+v", out)
	}
}

func TestAcceptedEpisodeTakesCatalogEpisodeNumber(t *testing.T) {
	h := newHarness(t)
	h.catalog.set("/api/media/video/v2", http.StatusOK,
		`{"type":"episode","season":"2","episode":"5","seriesIMDbID":"tt1","title":"Double","imdbID":"tt5"}`)
	h.catalog.set("/api/media/series/v2", http.StatusOK,
		`{"type":"series","title":"Show Name","imdbID":"tt1"}`)

	const path = "/media/tv/Show Name (2010) S02E05-E06.mkv"
	mi := mediaInfoFor(path)
	if got := mi.VideoMetadata().TVEpisode; got != "05-06" {
		t.Fatalf("expected filename episode range, got %q", got)
	}
	out, err := h.enricher.LookupNow(context.Background(), path, 1, mi)
	if err != nil {
		t.Fatalf("LookupNow returned error: %v", err)
	}
	if !out.Stored || out.Metadata.TVEpisode != "05" {
		t.Fatalf("expected catalog episode number, got %+v", out.Metadata)
	}
}

func TestVersionsFailureIsNotRetriedImmediately(t *testing.T) {
	h := newHarness(t)
	h.catalog.set("/api/subversions", http.StatusInternalServerError, `down`)
	h.catalog.set("/api/configuration", http.StatusInternalServerError, `down`)
	ctx := context.Background()

	h.enricher.Versions(ctx)
	h.enricher.Versions(ctx)
	h.enricher.Versions(ctx)
	if calls := h.catalog.count("/api/subversions"); calls != 1 {
		t.Fatalf("expected one subversions call, got %d", calls)
	}
	if calls := h.catalog.count("/api/configuration"); calls != 1 {
		t.Fatalf("expected one configuration call, got %d", calls)
	}
}
