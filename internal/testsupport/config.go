package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"mediahub/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Network access is disabled so tests never reach the public catalog.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.SharedFolders = []string{filepath.Join(base, "media")}
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Network.ExternalNetwork = false
	cfgVal.Catalog.BaseURL = "http://127.0.0.1:0"
	cfgVal.Library.ScanOnStart = false
	cfgVal.Library.RescanSchedule = ""
	cfgVal.Library.PruneSchedule = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}
	if err := os.MkdirAll(cfgVal.Paths.SharedFolders[0], 0o755); err != nil {
		t.Fatalf("mkdir media dir: %v", err)
	}

	return builder.cfg
}

// WithCatalog points the config at a test catalog server and enables lookups.
func WithCatalog(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Network.ExternalNetwork = true
		b.cfg.Catalog.LookupsEnabled = true
		b.cfg.Catalog.BaseURL = baseURL
		b.cfg.Catalog.RequestsPerSecond = 1000
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffprobe is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

// MediaDir returns the first shared folder of a generated config.
func MediaDir(cfg *config.Config) string {
	return cfg.Paths.SharedFolders[0]
}
