// Package audio chooses the default audio track for parsed media.
//
// Containers frequently carry several audio streams without marking any of
// them default. SelectDefault keeps an existing default flag and otherwise
// ranks streams in the configured language by channel count, then lossless
// codecs over lossy, falling back to every stream when none match the language.
package audio
