// Package workspace owns the in-memory model of which i3 workspace lives on
// which output, and which output each workspace should return to once it is
// reconnected.
//
// The Store is the single owner of that model. Seed populates it at startup
// and Reconcile folds live window-manager snapshots into it. Snapshot and
// Read give callers a consistent view without exposing the map.
package workspace
