// Package resource implements the resolve-once state machine shared by every
// browsable item.
//
// A resource starts Unresolved, moves to Resolving while its MediaInfo is
// fetched from the media cache, and ends Resolved. Validity is tracked
// separately: a resolved file may still be invalid, for example when the
// prober reports encryption. Resolve and IsValid serialize on a per-resource
// mutex so concurrent renderer requests for one file trigger a single parse,
// while different resources resolve in parallel.
package resource
