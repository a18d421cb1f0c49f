// Package config loads, normalizes, and validates mediahub configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MEDIAHUB_CATALOG_URL. The Config type centralizes every knob the daemon and
// CLI need: shared folders, the external network and catalog switches, cache
// bounds, parser settings and the enrichment worker pool.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
