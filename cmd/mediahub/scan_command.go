package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Ask the daemon to rescan the shared folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			result, err := client.Scan(cmd.Context())
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scanned %d folders in %s\n", result.Folders, (time.Duration(result.DurationMs) * time.Millisecond).String())
			fmt.Fprintf(out, "Files: %d (valid %d, invalid %d, skipped %d)\n", result.Files, result.Valid, result.Invalid, result.Skipped)
			for _, msg := range result.Errors {
				fmt.Fprintf(out, "Error: %s\n", msg)
			}
			return nil
		},
	}
}
