package preflight

import (
	"context"

	"mediahub/internal/config"
	"mediahub/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks for cfg. It never touches the network.
func RunAll(_ context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	for _, folder := range cfg.Paths.SharedFolders {
		results = append(results, CheckSharedFolder(folder))
	}
	return results
}

// CheckSystemDeps evaluates the binaries required by cfg.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFprobe",
			Command:     cfg.Parser.FFprobeBinary,
			Description: "Required for media parsing",
		},
	})
}
