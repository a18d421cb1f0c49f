// Package services defines shared utilities consumed by the media cache,
// the enrichment pipeline and the daemon API.
//
// Key responsibilities:
//   - Context helpers that stamp request and enrichment job identifiers for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper, and IsTransient which
//     decides whether a failed lookup may be remembered or must be retried.
//
// Use these helpers when wiring new components so error handling and
// observability stay uniform across the server.
package services
