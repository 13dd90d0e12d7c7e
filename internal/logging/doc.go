// Package logging assembles the slog loggers used by the hotdock daemon and CLI.
//
// It owns the console and JSON handlers, resolves level and output routing
// from configuration, and tags records with the component name and the
// hotplug pass identifier carried on the context. A no-op logger is provided
// for tests and for wiring code that has no logger yet.
package logging
