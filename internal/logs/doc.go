// Package logs reads the daemon log file for the CLI.
//
// Last returns the final N lines with bounded memory, ReadFrom continues from
// a byte offset, and Follow streams appended lines until its context ends.
// Follow watches the log directory with fsnotify so it survives the file
// being removed and recreated by an external rotation.
package logs
