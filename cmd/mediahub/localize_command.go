package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediahub/internal/config"
	"mediahub/internal/enrichment"
	"mediahub/internal/store"
)

type localizedResult struct {
	Language  string `json:"language"`
	MediaType string `json:"mediaType"`
	IMDbID    string `json:"imdbId,omitempty"`
	TMDbID    int64  `json:"tmdbId,omitempty"`
	Title     string `json:"title,omitempty"`
	Overview  string `json:"overview,omitempty"`
	Tagline   string `json:"tagline,omitempty"`
	Homepage  string `json:"homepage,omitempty"`
	Poster    string `json:"poster,omitempty"`
}

func newLocalizeCommand(ctx *commandContext) *cobra.Command {
	var req enrichment.LocalizeRequest

	cmd := &cobra.Command{
		Use:   "localize",
		Short: "Fetch language-specific catalog fields for a title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				enricher, err := enrichment.New(enrichment.Deps{
					Config: cfg,
					Store:  st,
					Logger: ctx.logger(),
				})
				if err != nil {
					return err
				}
				defer enricher.Shutdown()

				rec, err := enricher.Localize(cmd.Context(), req)
				if err != nil {
					return err
				}
				result := localizedResult{
					Language:  rec.Key.Language,
					MediaType: rec.Key.MediaType,
					IMDbID:    rec.Key.IMDbID,
					TMDbID:    rec.Key.TMDbID,
					Title:     rec.Title,
					Overview:  rec.Overview,
					Tagline:   rec.Tagline,
					Homepage:  rec.Homepage,
					Poster:    rec.Poster,
				}
				if rec.ResolvedTMDbID > 0 {
					result.TMDbID = rec.ResolvedTMDbID
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, result)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Title:      %s\n", fallback(result.Title, "-"))
				if result.Tagline != "" {
					fmt.Fprintf(out, "Tagline:    %s\n", result.Tagline)
				}
				if result.Overview != "" {
					fmt.Fprintf(out, "Overview:   %s\n", result.Overview)
				}
				if result.Homepage != "" {
					fmt.Fprintf(out, "Homepage:   %s\n", result.Homepage)
				}
				if result.Poster != "" {
					fmt.Fprintf(out, "Poster:     %s\n", result.Poster)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Language, "language", "", "Language tag (defaults to catalog.language)")
	cmd.Flags().StringVar(&req.MediaType, "type", enrichment.MediaMovie, "Media type: movie, tv or tv_episode")
	cmd.Flags().StringVar(&req.IMDbID, "imdb", "", "IMDb id")
	cmd.Flags().Int64Var(&req.TMDbID, "tmdb", 0, "TMDb id")
	cmd.Flags().IntVar(&req.Season, "season", 0, "Season number for tv_episode")
	cmd.Flags().IntVar(&req.Episode, "episode", 0, "Episode number for tv_episode")
	return cmd
}
