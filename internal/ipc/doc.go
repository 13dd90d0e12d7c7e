// Package ipc exposes the daemon over JSON-RPC on a Unix socket and ships the
// matching client used by the CLI.
//
// Request and response types here are the wire contract; keep them stable
// when adding endpoints.
package ipc
