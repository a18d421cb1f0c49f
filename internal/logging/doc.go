// Package logging assembles structured slog loggers and formatting helpers used
// across mediahub services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so request handlers and
// enrichment jobs tag their log lines with correlation and job identifiers. The
// package also provides a no-op logger for tests and wiring code that cannot fail.
package logging
