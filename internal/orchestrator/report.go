package orchestrator

import (
	"time"

	"hotdock/internal/display"
	"hotdock/internal/workspace"
)

// Trigger names what started a pass.
const (
	TriggerHotplug = "hotplug"
	TriggerManual  = "manual"
)

// Failure is one collaborator error swallowed during a pass.
type Failure struct {
	Step    string `json:"step"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// PassReport records what a hotplug pass observed and did.
type PassReport struct {
	ID         string                    `json:"id"`
	Trigger    string                    `json:"trigger"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt time.Time                 `json:"finished_at"`
	Existing   []int64                   `json:"existing"`
	Focused    *int64                    `json:"focused,omitempty"`
	Outputs    []display.Output          `json:"outputs"`
	LayoutArgs []string                  `json:"layout_args,omitempty"`
	Reconcile  workspace.ReconcileResult `json:"reconcile"`
	Commands   []string                  `json:"commands,omitempty"`
	Failures   []Failure                 `json:"failures,omitempty"`
	Cancelled  bool                      `json:"cancelled,omitempty"`
}

// Duration is the wall time the pass took.
func (r *PassReport) Duration() time.Duration {
	if r == nil || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// OK reports whether every step succeeded.
func (r *PassReport) OK() bool {
	return r != nil && !r.Cancelled && len(r.Failures) == 0
}
