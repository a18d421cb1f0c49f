// Package format classifies file names and stream URLs into media formats.
//
// A Registry holds an ordered list of Format descriptors built once at startup
// by NewDefaultRegistry (or assembled by hand for tests). Matching walks the
// list in order and returns a duplicate of the first hit, so callers may record
// per-file state such as the matched extension without touching the shared
// descriptor. Protocol-qualified names never match by extension; the WEB format
// claims them by scheme instead.
package format
