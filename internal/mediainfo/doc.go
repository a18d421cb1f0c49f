// Package mediainfo models parsed technical metadata for one resource and the
// catalog-derived facts layered on top of it.
//
// A MediaInfo is created empty, filled once by the parser, and then shared by
// every consumer of the same file state. Parse state, track lists, metadata and
// thumbnail are guarded by an internal lock; the scalar technical fields are
// written only while the parse is in flight and read afterwards.
//
// VideoMetadata starts from signals extracted from the file name (FromFilename)
// and is later enriched from the remote catalog. TvSeriesMetadata is the shared
// series record linked from episodes.
package mediainfo
