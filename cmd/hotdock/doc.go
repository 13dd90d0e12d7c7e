// Package main hosts the hotdock CLI entrypoint and command graph.
//
// "hotdock run" is the daemon itself. Every other command is a thin client
// that dials the daemon's control socket, calls one JSON-RPC method and
// renders the answer as a table or JSON. Configuration resolution and socket
// discovery live in commandContext so subcommands stay declarative.
package main
