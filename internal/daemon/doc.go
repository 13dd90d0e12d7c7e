// Package daemon coordinates the long-running hotdock process.
//
// It takes a flock-based single-instance lock, seeds the workspace store from
// i3, and wires the udev hotplug monitor, the i3 event listener and the
// config file watcher into one lifecycle around the orchestrator. The IPC
// server and CLI reach the running process only through the methods here.
package daemon
