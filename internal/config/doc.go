// Package config loads, normalizes, and validates hotdock configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DISPLAY and I3SOCK. The Config type centralizes the layout policy, debounce
// timing, and runtime paths the daemon and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
