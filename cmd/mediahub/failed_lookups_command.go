package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mediahub/internal/api"
	"mediahub/internal/config"
	"mediahub/internal/store"
)

func newFailedLookupsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "failed-lookups",
		Aliases: []string{"failed"},
		Short:   "List catalog lookups that recently failed",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				rows, err := st.ListFailedLookups(cmd.Context(), limit)
				if err != nil {
					return err
				}
				items := make([]api.FailedLookup, 0, len(rows))
				for _, row := range rows {
					items = append(items, api.FromFailedLookup(row))
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.FailedLookupsResponse{Items: items})
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No failed lookups recorded")
					return nil
				}
				table := make([][]string, 0, len(items))
				for _, item := range items {
					scope := "series"
					if item.FileLevel {
						scope = "file"
					}
					table = append(table, []string{
						item.Key,
						scope,
						item.Reason,
						strconv.Itoa(item.Attempts),
						item.LastAttempt,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Key", "Scope", "Reason", "Attempts", "Last attempt"},
					table,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "Maximum rows to list")

	cmd.AddCommand(newFailedLookupsForgetCommand(ctx))
	cmd.AddCommand(newFailedLookupsPruneCommand(ctx))
	return cmd
}

func newFailedLookupsForgetCommand(ctx *commandContext) *cobra.Command {
	var series bool

	cmd := &cobra.Command{
		Use:   "forget <key>",
		Short: "Remove a failure so the next scan retries the lookup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				if err := st.RemoveFailedLookup(cmd.Context(), args[0], !series); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Forgot failed lookup for %s\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&series, "series", false, "Key names a series title rather than a file")
	return cmd
}

func newFailedLookupsPruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete failures older than the failed-lookup window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				removed, err := st.PruneFailedLookups(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d failed lookups\n", removed)
				return nil
			})
		},
	}
}
