// Package daemon coordinates the long-running mediahub process.
//
// It wires configuration, the media store, the metadata cache, the enrichment
// pool and the library scanner, watcher and scheduler into a single lifecycle
// with flock-based locking to prevent multiple instances. The daemon serves
// the HTTP API (status, scans, single-file resolution, failed lookups and
// prometheus metrics).
//
// Keep orchestration logic here: resolution, enrichment and scanning live in
// their own packages while the daemon focuses on startup, shutdown and high
// level coordination.
package daemon
