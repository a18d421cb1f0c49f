// Package library keeps the persistent store in step with the shared folders.
//
// Scanner walks every shared folder and resolves each recognised file, which
// parses it through the media cache and queues videos for enrichment. While a
// scan runs, the ScanGate is held and enrichment workers wait on it. Watcher
// reacts to individual file changes, and Scheduler runs rescans and
// failed-lookup pruning on cron schedules.
package library
