// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams, chapters and format metadata
//   - Stream: individual audio/video/subtitle stream properties, dispositions and tags
//   - Format: container-level metadata (duration, size, bitrate)
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - Decode: parses previously captured ffprobe JSON
//
// Helper methods on Result and Stream cover stream counts, frame rates,
// encryption markers and tag lookup.
package ffprobe
