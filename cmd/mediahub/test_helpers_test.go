package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mediahub/internal/config"
	"mediahub/internal/format"
	"mediahub/internal/mediacache"
	"mediahub/internal/mediainfo"
	"mediahub/internal/resource"
)

type stubParser struct{}

func (stubParser) Name() string { return "stub" }

func (stubParser) Parse(_ context.Context, mi *mediainfo.MediaInfo, locator string, _ *format.Format, _ format.Type) error {
	mi.Container = "matroska"
	mi.AddVideoTrack(mediainfo.VideoTrack{Codec: "hevc", Width: 1920, Height: 1080})
	mi.VideoCodec = "hevc"
	mi.Width, mi.Height = 1920, 1080
	mi.ParsedBy = "stub"
	mi.SetVideoMetadata(mediainfo.FromFilename(locator))
	return nil
}

// stubProbers swaps ffprobe for stubParser until the test ends.
func stubProbers(t *testing.T) {
	t.Helper()
	previous := newProbers
	newProbers = func(*config.Config, *slog.Logger) (mediacache.Parser, resource.Prober) {
		return stubParser{}, stubParser{}
	}
	t.Cleanup(func() { newProbers = previous })
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(filepath.Dir(cfg.Paths.DataDir), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func writeMediaFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x1a}, 4096), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
