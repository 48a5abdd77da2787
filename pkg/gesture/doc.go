// Package gesture recognises the "function modifier pressed and released by
// itself" gesture from a normalised input event stream. The Machine holds
// the three-state classifier and the debounce window; the Dispatcher
// marshals events from the OS callback context onto the single goroutine
// that owns the machine, preserving arrival order.
//
// A release only triggers when the debounce window elapsed while the key
// was held and no key-down or system-defined event intervened. The window
// timer itself never triggers; it only opens the release's eligibility.
package gesture
