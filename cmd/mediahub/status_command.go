package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mediahub/internal/api"
	"mediahub/internal/config"
	"mediahub/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, library and enrichment status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var status api.DaemonStatus
			client, err := ctx.apiClient()
			if err == nil {
				status, err = client.Status(cmd.Context())
				if err != nil && !api.IsAPIUnavailable(err) {
					return err
				}
			}
			if err != nil {
				// Daemon is down or has no API; report what the database knows.
				status, err = offlineStatus(cmd, ctx)
				if err != nil {
					return err
				}
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, status)
			}
			printStatus(cmd, status)
			return nil
		},
	}
}

func offlineStatus(cmd *cobra.Command, ctx *commandContext) (api.DaemonStatus, error) {
	var status api.DaemonStatus
	err := ctx.withStore(func(cfg *config.Config, st *store.Store) error {
		stats, err := st.Stats(cmd.Context())
		if err != nil {
			return err
		}
		status = api.DaemonStatus{
			DatabasePath: st.Path(),
			LockFilePath: cfg.LockPath(),
			Store:        api.FromStoreStats(stats),
			Library:      api.LibraryStatus{Folders: cfg.Paths.SharedFolders},
		}
		return nil
	})
	if err != nil {
		return api.DaemonStatus{}, errors.Join(errors.New("daemon not reachable"), err)
	}
	return status, nil
}

func printStatus(cmd *cobra.Command, status api.DaemonStatus) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	daemonLine := statusLine{label: "Daemon", kind: statusWarn, message: "not running"}
	if status.Running {
		daemonLine = statusLine{label: "Daemon", kind: statusOK, message: "running (pid " + strconv.Itoa(status.PID) + ")"}
	}
	writeSection(out, "Daemon", []statusLine{
		daemonLine,
		{label: "Started", kind: statusInfo, message: fallback(status.StartedAt, "-")},
		{label: "Database", kind: statusInfo, message: status.DatabasePath},
		{label: "Cache entries", kind: statusInfo, message: strconv.Itoa(status.CacheEntries)},
	}, colorize)

	s := status.Store
	writeSection(out, "Store", []statusLine{
		{label: "Media files", kind: statusInfo, message: fmt.Sprintf("%d (%d parsed)", s.MediaFiles, s.ParsedFiles)},
		{label: "Video metadata", kind: statusInfo, message: strconv.FormatInt(s.VideoMetadata, 10)},
		{label: "Series", kind: statusInfo, message: strconv.FormatInt(s.Series, 10)},
		{label: "Thumbnails", kind: statusInfo, message: strconv.FormatInt(s.Thumbnails, 10)},
		failedLookupsLine(s.FailedLookups),
	}, colorize)

	if status.Running {
		e := status.Enrichment
		enrichLine := statusLine{label: "Lookups", kind: statusWarn, message: "disabled"}
		if e.Active {
			enrichLine = statusLine{label: "Lookups", kind: statusOK, message: fmt.Sprintf("%d workers, %d pending", e.Workers, e.Pending)}
		}
		lines := []statusLine{enrichLine}
		if e.Current != "" {
			lines = append(lines, statusLine{label: "Current", kind: statusInfo, message: e.Current})
		}
		if e.VideoVersion != "" || e.SeriesVersion != "" {
			lines = append(lines, statusLine{label: "API versions", kind: statusInfo, message: "video " + fallback(e.VideoVersion, "?") + ", series " + fallback(e.SeriesVersion, "?")})
		}
		writeSection(out, "Enrichment", lines, colorize)
	}

	lib := status.Library
	lines := []statusLine{libraryFoldersLine(lib.Folders)}
	if status.Running {
		lines = append(lines, statusLine{label: "Watching", kind: statusInfo, message: yesNo(lib.Watching)})
		if lib.Scanning {
			lines = append(lines, statusLine{label: "Scan", kind: statusInfo, message: "in progress"})
		}
	}
	if last := lib.LastScan; last != nil {
		kind := statusOK
		if len(last.Errors) > 0 {
			kind = statusWarn
		}
		lines = append(lines, statusLine{
			label:   "Last scan",
			kind:    kind,
			message: fmt.Sprintf("%d files, %d valid, %d invalid (%d ms)", last.Files, last.Valid, last.Invalid, last.DurationMs),
		})
	}
	writeSection(out, "Library", lines, colorize)
}

func failedLookupsLine(n int64) statusLine {
	if n == 0 {
		return statusLine{label: "Failed lookups", kind: statusOK, message: "none"}
	}
	return statusLine{label: "Failed lookups", kind: statusWarn, message: strconv.FormatInt(n, 10)}
}

func libraryFoldersLine(folders []string) statusLine {
	if len(folders) == 0 {
		return statusLine{label: "Folders", kind: statusWarn, message: "none configured"}
	}
	var missing []string
	for _, folder := range folders {
		if info, err := os.Stat(folder); err != nil || !info.IsDir() {
			missing = append(missing, folder)
		}
	}
	if len(missing) > 0 {
		return statusLine{label: "Folders", kind: statusError, message: "missing " + strings.Join(missing, ", ")}
	}
	return statusLine{label: "Folders", kind: statusOK, message: strings.Join(folders, ", ")}
}
