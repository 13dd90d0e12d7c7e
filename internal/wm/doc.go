// Package wm talks to the i3 window manager over its IPC socket.
//
// I3Session reads workspace snapshots and runs commands. Listener keeps a
// subscription to workspace and window events open, reconnecting with a
// capped backoff when i3 restarts.
package wm
