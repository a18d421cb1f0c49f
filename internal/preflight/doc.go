// Package preflight provides readiness checks for the directories, binaries
// and remote catalog mediahub depends on.
//
// The daemon runs the local checks at startup and logs failures without
// refusing to start, since a shared folder may be mounted later. The CLI
// "mediahub doctor" command runs every check, including a live catalog
// request, and renders the results.
package preflight
