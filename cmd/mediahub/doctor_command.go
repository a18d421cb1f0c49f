package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mediahub/internal/preflight"
)

type doctorReport struct {
	Dependencies []doctorCheck `json:"dependencies"`
	Filesystem   []doctorCheck `json:"filesystem"`
	Catalog      doctorCheck   `json:"catalog"`
}

type doctorCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check binaries, directories and catalog connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var report doctorReport
			failed := false
			for _, status := range preflight.CheckSystemDeps(cfg) {
				detail := status.Path
				if !status.Available {
					detail = status.Detail
				}
				report.Dependencies = append(report.Dependencies, doctorCheck{Name: status.Name, Passed: status.Satisfied(), Detail: detail})
				failed = failed || !status.Satisfied()
			}
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				report.Filesystem = append(report.Filesystem, doctorCheck(result))
				failed = failed || !result.Passed
			}
			report.Catalog = doctorCheck(preflight.CheckCatalog(cmd.Context(), cfg))
			failed = failed || !report.Catalog.Passed

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				writeSection(out, "Dependencies", checkLines(report.Dependencies), colorize)
				writeSection(out, "Filesystem", checkLines(report.Filesystem), colorize)
				writeSection(out, "Catalog", checkLines([]doctorCheck{report.Catalog}), colorize)
			}
			if failed {
				return errors.New("one or more checks failed")
			}
			if !ctx.jsonOutput() {
				fmt.Fprintln(cmd.OutOrStdout(), "All checks passed")
			}
			return nil
		},
	}
}

func checkLines(checks []doctorCheck) []statusLine {
	lines := make([]statusLine, 0, len(checks))
	for _, check := range checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		lines = append(lines, statusLine{label: check.Name, kind: kind, message: check.Detail})
	}
	return lines
}
