// Package orchestrator sequences the hotplug pass: capture the focused
// workspace, probe outputs, apply one xrandr layout, wait for i3 to migrate
// workspaces, reconcile the store and replay moves and focus.
//
// Raw hotplug events are coalesced by a debounce timer. Passes never overlap;
// an event that settles while a pass runs schedules exactly one follow-up.
package orchestrator
