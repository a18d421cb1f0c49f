// Package main hosts the mediahub CLI entrypoint and command graph.
//
// Commands either talk to a running daemon over its HTTP API (status, scan,
// resolve) or open the media database directly for offline work such as
// probing a file, forcing a catalog lookup or inspecting failed lookups.
// Configuration resolution and logger setup live in commandContext so each
// subcommand only renders results.
package main
