package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mediahub/internal/format"
)

type formatRow struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Extensions []string `json:"extensions,omitempty"`
	Protocols  []string `json:"protocols,omitempty"`
	MimeType   string   `json:"mimeType"`
}

func newFormatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "formats",
		Short:       "List recognised media formats in match order",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := format.NewDefaultRegistry().Formats()
			items := make([]formatRow, 0, len(formats))
			for _, f := range formats {
				items = append(items, formatRow{
					ID:         string(f.ID),
					Type:       f.Type.String(),
					Extensions: f.Extensions,
					Protocols:  f.Protocols,
					MimeType:   f.Mime(),
				})
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, items)
			}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{
					item.ID,
					item.Type,
					strings.Join(item.Extensions, " "),
					strings.Join(item.Protocols, " "),
					item.MimeType,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Format", "Type", "Extensions", "Protocols", "MIME"},
				rows,
				nil,
			))
			return nil
		},
	}
}
