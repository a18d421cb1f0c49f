// Package notifications pushes daemon events to ntfy.
//
// NewService returns an ntfy-backed Service when notifications.ntfy_topic is
// set and a no-op Service otherwise, so callers never branch on whether
// notifications are configured. Each event has its own method; the ntfy
// title, tags and priority for an event live here and nowhere else.
package notifications
