// Package daemonrun hosts the mediahubd process loop shared by the daemon
// binary and the CLI's foreground mode.
package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"mediahub/internal/config"
	"mediahub/internal/daemon"
	"mediahub/internal/logging"
	"mediahub/internal/preflight"
	"mediahub/internal/store"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the daemon and blocks until SIGINT, SIGTERM or cmdCtx ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logPath := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(signalCtx, logger, cfg)
	logging.CleanupOldLogs(logger, cfg.Paths.LogDir, "mediahub*.log", cfg.Logging.RetentionDays)

	pidPath := filepath.Join(cfg.Paths.DataDir, "mediahubd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	st, err := store.Open(cfg)
	if err != nil {
		logging.ErrorWithContext(logger, "open media store", "store_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.data_dir permissions"),
		)
		return err
	}

	d, err := daemon.New(cfg, st, logger)
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check configuration, the api_bind address and the lock file"),
			logging.String(logging.FieldImpact, "shared folders are not served"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("mediahub daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	for _, status := range preflight.CheckSystemDeps(cfg) {
		if status.Satisfied() {
			logger.Info("dependency available",
				logging.String(logging.FieldEventType, "dependency_snapshot"),
				logging.String("dependency", status.Name),
				logging.String("path", status.Path),
			)
			continue
		}
		logging.WarnWithContext(logger, "dependency missing", "dependency_missing",
			logging.String("dependency", status.Name),
			logging.String("detail", status.Detail),
			logging.String(logging.FieldErrorHint, "install it or set parser.ffprobe_binary"),
			logging.String(logging.FieldImpact, "media files cannot be parsed and may be hidden"),
		)
	}
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "affected folders are skipped until fixed"),
		)
	}
	logger.Info("runtime configuration",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("external_network", cfg.Network.ExternalNetwork),
		logging.Bool("catalog_lookups", cfg.CatalogActive()),
		logging.String("catalog_url", cfg.Catalog.BaseURL),
		logging.Bool("persistent_cache", cfg.Cache.Enabled),
		logging.Int("shared_folders", len(cfg.Paths.SharedFolders)),
	)
}
