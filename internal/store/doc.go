// Package store persists parsed media, catalog metadata and lookup failures in
// SQLite.
//
// The Store manages the database connection, schema initialization and
// busy-retry handling. Every operation is available both on the Store and on
// a Session, which wraps one transaction so an enrichment worker can commit or
// roll back all of its writes together.
//
// Tables:
//   - media_files: serialized MediaInfo keyed by path, valid for one mod time
//   - metadata: small name/value settings such as catalog versions
//   - failed_lookups: the negative cache consulted before catalog calls
//   - video_metadata / tv_series: accepted catalog data
//   - localized_metadata: per-language catalog overrides
//   - thumbnails: images deduplicated by content hash
//   - update_counters: per-path counters bumped when metadata changes
//
// Schema changes bump schemaVersion; users delete the database to adopt them.
package store
