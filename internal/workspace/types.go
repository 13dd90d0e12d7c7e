package workspace

import "context"

// TrackedWorkspace is the reconciled state of one workspace number.
type TrackedWorkspace struct {
	Num     int64  `json:"num"`
	Output  string `json:"output"`
	Focused bool   `json:"focused"`
	// RememberedOutput is the output to restore the workspace to. Empty when
	// no restoration is pending.
	RememberedOutput string `json:"remembered_output,omitempty"`
	// WasFocused only has meaning while RememberedOutput is set.
	WasFocused bool `json:"was_focused,omitempty"`
}

// Pending reports whether the workspace is waiting to move back.
func (w TrackedWorkspace) Pending() bool {
	return w.RememberedOutput != ""
}

// Observation is a single workspace entry from a window-manager snapshot.
type Observation struct {
	Num     int64
	Output  string
	Focused bool
	Visible bool
}

// EffectiveFocus treats a visible workspace as focused on its output.
func (o Observation) EffectiveFocus() bool {
	return o.Focused || o.Visible
}

// ConnectionChecker answers whether an output is currently connected.
// Implementations must never fail; any probe error reads as disconnected.
type ConnectionChecker interface {
	IsConnected(ctx context.Context, name string) bool
}

// ConnectionCheckerFunc adapts a function to ConnectionChecker.
type ConnectionCheckerFunc func(ctx context.Context, name string) bool

// IsConnected calls f.
func (f ConnectionCheckerFunc) IsConnected(ctx context.Context, name string) bool {
	return f(ctx, name)
}

// ReconcileResult summarizes one Reconcile call.
type ReconcileResult struct {
	Added      []int64
	Remembered []int64
	Cleared    []int64
	Unchanged  int
}

// Changed reports whether any entry gained, lost or started tracking memory.
func (r ReconcileResult) Changed() bool {
	return len(r.Added) > 0 || len(r.Remembered) > 0 || len(r.Cleared) > 0
}
