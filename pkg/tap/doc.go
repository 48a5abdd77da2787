// Package tap owns the OS-level listen port used to observe global input:
// creation bound to an event mask and intercept mode, attachment to the
// backend's event loop, synchronous recovery from forced disables, and
// idempotent teardown. On darwin it wraps a Quartz CGEventTap; elsewhere it
// falls back to the gohook keyboard hook, and tests inject a replay source.
package tap
