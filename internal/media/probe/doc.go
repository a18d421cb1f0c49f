// Package probe fills MediaInfo values from files and streams.
//
// Parser runs ffprobe (the primary prober), maps streams, chapters and
// container fields onto mediainfo, picks a default audio track, reads audio
// tags with github.com/dhowden/tag and seeds VideoMetadata from the file name.
// Secondary returns a Parser that runs the deeper ffprobe pass used when the
// primary probe could not identify the container.
package probe
