// Package engine wires the permission gate, event tap, dispatcher, and
// gesture machine into one facade with an atomic start/stop lifecycle.
// Trigger delay changes apply live; intercept mode changes are staged for
// the next start because the tap placement is fixed at creation.
package engine
