// Package api defines the wire-format types shared by the daemon HTTP API and
// the mediahub CLI, plus a small client for that API.
//
// # Key Types
//
// DaemonStatus: lock state, store counts, enrichment pool and library scan
// state in one payload.
//
// ScanResult: counts from one library scan.
//
// ResolveResponse: validity, format and media summary for one file, with any
// catalog metadata attached to it.
//
// FailedLookup: one negative-cache row.
//
// # Converters
//
// FromScanResult, FromFailedLookup and FromMediaInfo translate internal models
// into these DTOs.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// Catalog metadata is passed through as the mediainfo.VideoMetadata JSON.
package api
