package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"mediahub/internal/api"
	"mediahub/internal/daemon"
	"mediahub/internal/logging"
	"mediahub/internal/store"
	"mediahub/internal/testsupport"
)

func TestFormatsListsRegistry(t *testing.T) {
	out, _, err := runCLI(t, "", "formats")
	if err != nil {
		t.Fatalf("formats: %v", err)
	}
	requireContains(t, out, "MKV")
	requireContains(t, out, "mkv")

	out, _, err = runCLI(t, "", "--json", "formats")
	if err != nil {
		t.Fatalf("formats --json: %v", err)
	}
	var rows []formatRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode formats: %v", err)
	}
	found := false
	for _, row := range rows {
		if row.ID == "MKV" && row.Type == "video" {
			found = true
		}
	}
	if !found {
		t.Fatalf("MKV missing from %+v", rows)
	}
}

func TestProbeReportsLocalFile(t *testing.T) {
	stubProbers(t)
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)
	path := writeMediaFile(t, testsupport.MediaDir(cfg), "Heat (1995).mkv")

	out, _, err := runCLI(t, configPath, "probe", path)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	requireContains(t, out, "Valid:      yes")
	requireContains(t, out, "Title:      Heat (1995)")
	requireContains(t, out, "hevc 1920x1080")

	out, _, err = runCLI(t, configPath, "--json", "probe", path)
	if err != nil {
		t.Fatalf("probe --json: %v", err)
	}
	var resp api.ResolveResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode probe: %v", err)
	}
	if !resp.Valid || resp.Format != "MKV" || resp.Media == nil || resp.Media.ParsedBy != "stub" {
		t.Fatalf("unexpected probe result %+v", resp)
	}

	if _, _, err := runCLI(t, configPath, "probe", filepath.Join(testsupport.MediaDir(cfg), "missing.mkv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestProbeSavePersistsMetadata(t *testing.T) {
	stubProbers(t)
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)
	path := writeMediaFile(t, testsupport.MediaDir(cfg), "Heat (1995).mkv")

	if _, _, err := runCLI(t, configPath, "probe", "--save", path); err != nil {
		t.Fatalf("probe --save: %v", err)
	}
	st := testsupport.MustOpenStore(t, cfg)
	stats, err := st.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.MediaFiles != 1 {
		t.Fatalf("expected one stored media file, got %+v", stats)
	}
}

func TestFailedLookupsListForgetAndPrune(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	if err := st.RecordFailedLookup(context.Background(), "/media/Unknown (2001).mkv", "No API result", true); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	st.Close()

	out, _, err := runCLI(t, configPath, "failed-lookups")
	if err != nil {
		t.Fatalf("failed-lookups: %v", err)
	}
	requireContains(t, out, "/media/Unknown (2001).mkv")
	requireContains(t, out, "No API result")

	out, _, err = runCLI(t, configPath, "--json", "failed-lookups")
	if err != nil {
		t.Fatalf("failed-lookups --json: %v", err)
	}
	var resp api.FailedLookupsResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode failed lookups: %v", err)
	}
	if len(resp.Items) != 1 || !resp.Items[0].FileLevel || resp.Items[0].Attempts != 1 {
		t.Fatalf("unexpected failed lookups %+v", resp.Items)
	}

	out, _, err = runCLI(t, configPath, "failed-lookups", "prune")
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	requireContains(t, out, "Pruned 0 failed lookups")

	if _, _, err := runCLI(t, configPath, "failed-lookups", "forget", "/media/Unknown (2001).mkv"); err != nil {
		t.Fatalf("forget: %v", err)
	}
	out, _, err = runCLI(t, configPath, "failed-lookups")
	if err != nil {
		t.Fatalf("failed-lookups after forget: %v", err)
	}
	requireContains(t, out, "No failed lookups recorded")
}

func TestLookupRequiresCatalog(t *testing.T) {
	stubProbers(t)
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)
	path := writeMediaFile(t, testsupport.MediaDir(cfg), "Heat (1995).mkv")

	_, _, err := runCLI(t, configPath, "lookup", path)
	if err == nil || !strings.Contains(err.Error(), "catalog lookups are disabled") {
		t.Fatalf("expected disabled error, got %v", err)
	}
}

func TestLookupStoresMovie(t *testing.T) {
	stubProbers(t)
	var videoCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/subversions":
			fmt.Fprint(w, `{"series":"2","video":"3"}`)
		case "/api/configuration":
			fmt.Fprint(w, `{"imageBaseURL":"http://`+r.Host+`/images/"}`)
		case "/api/media/video/v2":
			videoCalls.Add(1)
			fmt.Fprint(w, `{"type":"movie","year":"1995","title":"Heat","imdbID":"tt0113277","tmdbID":949}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithCatalog(server.URL))
	configPath := writeTestConfig(t, cfg)
	path := writeMediaFile(t, testsupport.MediaDir(cfg), "Heat (1995).mkv")

	out, _, err := runCLI(t, configPath, "--json", "lookup", path)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	var result lookupResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode lookup: %v", err)
	}
	if !result.Stored || result.Metadata == nil || result.Metadata.IMDbID != "tt0113277" || result.Metadata.TMDbID != 949 {
		t.Fatalf("unexpected lookup result %+v", result)
	}

	out, _, err = runCLI(t, configPath, "lookup", path)
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	requireContains(t, out, "skipped (fresh)")
	if calls := videoCalls.Load(); calls != 1 {
		t.Fatalf("expected one catalog call, got %d", calls)
	}
}

func TestStatusFallsBackToDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = "127.0.0.1:1"
	configPath := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "not running")
	requireContains(t, out, "Media files")

	out, _, err = runCLI(t, configPath, "--json", "status")
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var status api.DaemonStatus
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Running || status.DatabasePath != cfg.DatabasePath() {
		t.Fatalf("unexpected offline status %+v", status)
	}

	if _, _, err := runCLI(t, configPath, "scan"); err == nil || !strings.Contains(err.Error(), "mediahub serve") {
		t.Fatalf("expected connect hint, got %v", err)
	}
}

func TestScanReportsDaemonAddressProblems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	configPath := writeTestConfig(t, cfg)
	if _, _, err := runCLI(t, configPath, "scan"); err == nil || !strings.Contains(err.Error(), "paths.api_bind") {
		t.Fatalf("expected disabled API error, got %v", err)
	}

	cfg.Paths.APIBind = "http://[::1"
	configPath = writeTestConfig(t, cfg)
	if _, _, err := runCLI(t, configPath, "scan"); err == nil || !strings.Contains(err.Error(), "daemon API address") {
		t.Fatalf("expected address error, got %v", err)
	}
}

func TestCommandsAgainstRunningDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Parser.UseMediaInfo = true
	cfg.Paths.APIToken = "cli-token"
	path := writeMediaFile(t, testsupport.MediaDir(cfg), "Heat (1995).mkv")

	st := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, st, logging.NewNop(), daemon.WithParser(stubParser{}, nil))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon start: %v", err)
	}
	t.Cleanup(d.Stop)

	cliCfg := *cfg
	cliCfg.Paths.APIBind = d.APIAddress()
	configPath := writeTestConfig(t, &cliCfg)

	out, _, err := runCLI(t, configPath, "--json", "scan")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	var scan api.ScanResult
	if err := json.Unmarshal([]byte(out), &scan); err != nil {
		t.Fatalf("decode scan: %v", err)
	}
	if scan.Files != 1 || scan.Valid != 1 {
		t.Fatalf("unexpected scan result %+v", scan)
	}

	out, _, err = runCLI(t, configPath, "--json", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status api.DaemonStatus
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running || status.Store.MediaFiles != 1 || status.Library.LastScan == nil {
		t.Fatalf("unexpected status %+v", status)
	}

	out, _, err = runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status text: %v", err)
	}
	requireContains(t, out, "== Library ==")
	requireContains(t, out, "1 files, 1 valid")

	out, _, err = runCLI(t, configPath, "resolve", path)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	requireContains(t, out, "Valid:      yes")
	requireContains(t, out, "Format:     MKV")
}

func TestDoctorReportsChecks(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	configPath := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, configPath, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "FFprobe")
	requireContains(t, out, "lookups disabled")
	requireContains(t, out, "All checks passed")

	cfg.Paths.SharedFolders = append(cfg.Paths.SharedFolders, filepath.Join(testsupport.BaseDir(cfg), "unmounted"))
	configPath = writeTestConfig(t, cfg)
	out, _, err = runCLI(t, configPath, "--json", "doctor")
	if err == nil {
		t.Fatal("expected failure for missing shared folder")
	}
	var report doctorReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Filesystem) != 4 || report.Filesystem[3].Passed {
		t.Fatalf("unexpected filesystem checks %+v", report.Filesystem)
	}
}

func TestTestNotifySendsToTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	out, _, err := runCLI(t, writeTestConfig(t, cfg), "test-notify")
	if err != nil {
		t.Fatalf("test-notify disabled: %v", err)
	}
	requireContains(t, out, "Notifications disabled")

	var posts atomic.Int32
	ntfy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.Header.Get("Title") == "mediahub - Test" {
			posts.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ntfy.Close()

	cfg.Notifications.NtfyTopic = ntfy.URL + "/mediahub"
	out, _, err = runCLI(t, writeTestConfig(t, cfg), "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	if posts.Load() != 1 {
		t.Fatalf("expected one ntfy post, got %d", posts.Load())
	}
}

func TestLogsPrintsTail(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, configPath, "logs")
	if err != nil {
		t.Fatalf("logs without file: %v", err)
	}
	requireContains(t, out, "No log output")

	testsupport.WriteText(t, filepath.Join(cfg.Paths.LogDir, logging.LogFileName), "one\ntwo\nthree\n")
	out, _, err = runCLI(t, configPath, "logs", "-n", "2")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "two\nthree\n" {
		t.Fatalf("unexpected output %q", out)
	}
}
