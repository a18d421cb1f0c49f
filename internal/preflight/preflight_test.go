package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediahub/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestRunAllChecksSharedFolders(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SharedFolders = []string{filepath.Join(base, "movies"), filepath.Join(base, "absent")}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.SharedFolders[0]} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	results := RunAll(context.Background(), &cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %+v", results)
	}
	for _, r := range results[:3] {
		if !r.Passed {
			t.Fatalf("expected %s to pass: %s", r.Name, r.Detail)
		}
	}
	if results[3].Passed || results[3].Name != "Shared folder" {
		t.Fatalf("expected missing shared folder to fail, got %+v", results[3])
	}
	if RunAll(context.Background(), nil) != nil {
		t.Fatal("expected nil results without config")
	}
}

func TestCheckSystemDepsReportsFFprobe(t *testing.T) {
	cfg := config.Default()
	cfg.Parser.FFprobeBinary = "definitely-missing-ffprobe"
	statuses := CheckSystemDeps(&cfg)
	if len(statuses) != 1 || statuses[0].Name != "FFprobe" || statuses[0].Available {
		t.Fatalf("unexpected statuses %+v", statuses)
	}
}

func TestCheckCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/subversions" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"series":"2","video":"3"}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Catalog.BaseURL = srv.URL
	result := CheckCatalog(context.Background(), &cfg)
	if !result.Passed || !strings.Contains(result.Detail, "video API 3") {
		t.Fatalf("expected pass, got %+v", result)
	}

	cfg.Network.ExternalNetwork = false
	result = CheckCatalog(context.Background(), &cfg)
	if !result.Passed || result.Detail != "lookups disabled" {
		t.Fatalf("expected disabled pass, got %+v", result)
	}
}

func TestCheckCatalogServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Catalog.BaseURL = srv.URL
	result := CheckCatalog(context.Background(), &cfg)
	if result.Passed || !strings.Contains(result.Detail, "502") {
		t.Fatalf("expected status failure, got %+v", result)
	}
}
