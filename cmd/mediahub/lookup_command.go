package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediahub/internal/config"
	"mediahub/internal/enrichment"
	"mediahub/internal/mediainfo"
	"mediahub/internal/resource"
	"mediahub/internal/store"
)

type lookupResult struct {
	Path          string                   `json:"path"`
	Stored        bool                     `json:"stored"`
	SuppressRetry bool                     `json:"suppressRetry"`
	Skipped       string                   `json:"skipped,omitempty"`
	Reason        string                   `json:"reason,omitempty"`
	SeriesID      int64                    `json:"seriesId,omitempty"`
	Metadata      *mediainfo.VideoMetadata `json:"metadata,omitempty"`
}

func newLookupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <file>",
		Short: "Run a catalog lookup for one video file now",
		Long: "Lookup parses the file, queries the metadata catalog and stores the result\n" +
			"in the media database, honouring the freshness check and the failed-lookup\n" +
			"window. It works without a running daemon.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				if !cfg.CatalogActive() {
					return fmt.Errorf("catalog lookups are disabled: enable network.external_network and catalog.lookups_enabled")
				}
				deps, err := ctx.resourceDeps(cfg, st)
				if err != nil {
					return err
				}
				rf := resource.NewRealFile(args[0], deps)
				if !rf.IsValid(cmd.Context()) {
					return fmt.Errorf("%s is not a valid media file", rf.Path())
				}
				if f := rf.Format(); f == nil || !f.IsVideo() {
					return fmt.Errorf("%s is not a video", rf.Path())
				}
				key, err := rf.Key()
				if err != nil {
					return fmt.Errorf("stat %s: %w", rf.Path(), err)
				}

				enricher, err := enrichment.New(enrichment.Deps{
					Config: cfg,
					Store:  st,
					Logger: deps.Logger,
				})
				if err != nil {
					return err
				}
				defer enricher.Shutdown()

				outcome, err := enricher.LookupNow(cmd.Context(), key.StoreKey(), key.ModTime, rf.MediaInfo())
				if err != nil {
					return fmt.Errorf("lookup %s: %w", rf.Path(), err)
				}
				result := lookupResult{
					Path:          rf.Path(),
					Stored:        outcome.Stored,
					SuppressRetry: outcome.SuppressRetry,
					Skipped:       outcome.Skipped,
					Reason:        outcome.Reason,
					SeriesID:      outcome.SeriesID,
					Metadata:      outcome.Metadata,
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, result)
				}
				printLookup(cmd, result)
				return nil
			})
		},
	}
}

func printLookup(cmd *cobra.Command, r lookupResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Path:       %s\n", r.Path)
	switch {
	case r.Skipped != "":
		fmt.Fprintf(out, "Result:     skipped (%s)\n", r.Skipped)
	case r.Stored:
		fmt.Fprintln(out, "Result:     stored")
	default:
		fmt.Fprintln(out, "Result:     rejected")
	}
	if r.Reason != "" {
		fmt.Fprintf(out, "Reason:     %s\n", r.Reason)
	}
	if r.SuppressRetry {
		fmt.Fprintln(out, "Retry:      suppressed for the failed-lookup window")
	}
	if meta := r.Metadata; meta != nil {
		fmt.Fprintf(out, "Title:      %s\n", meta.Title)
		if meta.Year > 0 {
			fmt.Fprintf(out, "Year:       %d\n", meta.Year)
		}
		if meta.IMDbID != "" {
			fmt.Fprintf(out, "IMDb:       %s\n", meta.IMDbID)
		}
		if meta.TMDbID > 0 {
			fmt.Fprintf(out, "TMDb:       %d\n", meta.TMDbID)
		}
	}
}
