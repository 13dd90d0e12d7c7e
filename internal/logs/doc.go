// Package logs reads the daemon log for "hotdock logs".
//
// Last returns the final N matching lines with bounded memory. Follow then
// streams appended lines from the returned offset, waking on fsnotify write
// events with a slow poll as backstop for filesystems that do not deliver
// them.
package logs
