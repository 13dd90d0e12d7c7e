// Package preflight provides readiness checks for the X server, the i3 IPC
// socket, the xrandr binary and the runtime directories hotdock depends on.
//
// The CLI "hotdock doctor" command runs RunAll and renders the results; the
// daemon logs the same checks once at startup so a misconfigured session is
// visible in the log before the first hotplug event arrives.
package preflight
