// Package display probes X11 outputs over RandR and drives xrandr to
// enable, disable and position them.
//
// An output counts as connected only when it exposes a non-empty EDID
// property. BuildLayoutArgs turns the probe result and the configured
// Policy into a single xrandr invocation that LayoutApplier runs.
package display
