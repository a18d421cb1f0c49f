package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mediahub/internal/api"
	"mediahub/internal/config"
	"mediahub/internal/language"
	"mediahub/internal/resource"
	"mediahub/internal/store"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Parse a local file the way the server would",
		Long: "Probe resolves the file format, runs ffprobe and applies the validity rules\n" +
			"without a running daemon. With --save the parsed metadata is written to the\n" +
			"media database.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if _, err := os.Stat(args[0]); err != nil {
				return fmt.Errorf("probe %s: %w", args[0], err)
			}
			run := func(deps *resource.Deps) error {
				resp := resolveLocal(cmd.Context(), args[0], deps)
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				printResolve(cmd.OutOrStdout(), resp)
				return nil
			}
			if !save {
				deps, err := ctx.resourceDeps(cfg, nil)
				if err != nil {
					return err
				}
				return run(deps)
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				deps, err := ctx.resourceDeps(cfg, st)
				if err != nil {
					return err
				}
				return run(deps)
			})
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "Persist parsed metadata to the media database")
	return cmd
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <file>",
		Short: "Ask the running daemon to resolve a file in a shared folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.Resolve(cmd.Context(), args[0])
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}
			printResolve(cmd.OutOrStdout(), resp)
			return nil
		},
	}
}

func resolveLocal(ctx context.Context, path string, deps *resource.Deps) api.ResolveResponse {
	rf := resource.NewRealFile(path, deps)
	valid := rf.IsValid(ctx)
	resp := api.ResolveResponse{
		Path:  rf.Path(),
		Valid: valid,
		State: rf.State().String(),
	}
	if f := rf.Format(); f != nil {
		resp.Format = string(f.ID)
	}
	if mi := rf.MediaInfo(); mi != nil {
		resp.Media = api.FromMediaInfo(mi)
		resp.Metadata = mi.VideoMetadata()
	}
	return resp
}

func printResolve(w io.Writer, resp api.ResolveResponse) {
	fmt.Fprintf(w, "Path:       %s\n", resp.Path)
	fmt.Fprintf(w, "Valid:      %s\n", yesNo(resp.Valid))
	fmt.Fprintf(w, "Format:     %s\n", fallback(resp.Format, "unknown"))
	if m := resp.Media; m != nil {
		fmt.Fprintf(w, "Container:  %s\n", fallback(m.Container, "-"))
		fmt.Fprintf(w, "MIME:       %s\n", fallback(m.MimeType, "-"))
		if m.Duration > 0 {
			fmt.Fprintf(w, "Duration:   %s s\n", strconv.FormatFloat(m.Duration, 'f', 1, 64))
		}
		if m.Width > 0 {
			fmt.Fprintf(w, "Video:      %s %dx%d\n", fallback(m.VideoCodec, "?"), m.Width, m.Height)
		}
		fmt.Fprintf(w, "Tracks:     %d audio, %d subtitle\n", m.AudioTracks, m.Subtitles)
		if len(m.AudioLangs) > 0 {
			names := make([]string, 0, len(m.AudioLangs))
			for _, code := range m.AudioLangs {
				names = append(names, language.DisplayName(code))
			}
			fmt.Fprintf(w, "Audio:      %s\n", strings.Join(names, ", "))
		}
		if m.ParsedBy != "" {
			fmt.Fprintf(w, "Parsed by:  %s\n", m.ParsedBy)
		}
	}
	if meta := resp.Metadata; meta != nil {
		title := meta.Title
		if meta.Year > 0 {
			title += " (" + strconv.Itoa(meta.Year) + ")"
		}
		fmt.Fprintf(w, "Title:      %s\n", strings.TrimSpace(title))
		if meta.IsTVEpisode {
			fmt.Fprintf(w, "Episode:    %s S%02d E%s\n", meta.SeriesTitle, meta.TVSeason, meta.TVEpisode)
		}
		if meta.IMDbID != "" {
			fmt.Fprintf(w, "IMDb:       %s\n", meta.IMDbID)
		}
	}
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
