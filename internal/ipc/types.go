package ipc

import "time"

// serviceName is the JSON-RPC receiver name.
const serviceName = "Hotdock"

// StatusRequest requests daemon status.
type StatusRequest struct{}

// StatusResponse summarizes the running daemon.
type StatusResponse struct {
	Running        bool        `json:"running"`
	PID            int         `json:"pid"`
	StartedAt      time.Time   `json:"started_at"`
	LockPath       string      `json:"lock_path"`
	ConfigPath     string      `json:"config_path"`
	State          string      `json:"state"`
	DebounceArmed  bool        `json:"debounce_armed"`
	RerunPending   bool        `json:"rerun_pending"`
	Passes         int64       `json:"passes"`
	Primary        string      `json:"primary"`
	Position       string      `json:"position"`
	Workspaces     int         `json:"workspaces"`
	Pending        int         `json:"pending"`
	HotplugRunning bool        `json:"hotplug_running"`
	HotplugEvents  int64       `json:"hotplug_events"`
	LastPass       *PassReport `json:"last_pass,omitempty"`
}

// Workspace is a tracked workspace on the wire.
type Workspace struct {
	Num              int64  `json:"num"`
	Output           string `json:"output"`
	Focused          bool   `json:"focused"`
	RememberedOutput string `json:"remembered_output"`
	WasFocused       bool   `json:"was_focused"`
}

// WorkspacesRequest lists tracked workspaces.
type WorkspacesRequest struct{}

// WorkspacesResponse carries tracked workspaces in ascending order.
type WorkspacesResponse struct {
	Workspaces []Workspace `json:"workspaces"`
}

// Output is a probed RandR output on the wire.
type Output struct {
	Name           string `json:"name"`
	Connected      bool   `json:"connected"`
	RandRConnected bool   `json:"randr_connected"`
	EDIDBytes      int    `json:"edid_bytes"`
}

// OutputsRequest probes outputs.
type OutputsRequest struct{}

// OutputsResponse lists outputs in probe order.
type OutputsResponse struct {
	Outputs []Output `json:"outputs"`
}

// LayoutRequest previews the xrandr arguments of the next pass.
type LayoutRequest struct{}

// LayoutResponse carries the xrandr argument list.
type LayoutResponse struct {
	Args []string `json:"args"`
}

// Failure is one swallowed pass error.
type Failure struct {
	Step    string `json:"step"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// PassReport is the outcome of a hotplug pass on the wire.
type PassReport struct {
	ID         string    `json:"id"`
	Trigger    string    `json:"trigger"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Existing   []int64   `json:"existing"`
	Focused    *int64    `json:"focused,omitempty"`
	Outputs    []Output  `json:"outputs"`
	LayoutArgs []string  `json:"layout_args"`
	Remembered []int64   `json:"remembered"`
	Cleared    []int64   `json:"cleared"`
	Commands   []string  `json:"commands"`
	Failures   []Failure `json:"failures"`
	Cancelled  bool      `json:"cancelled"`
}

// TriggerRequest runs a pass now.
type TriggerRequest struct{}

// TriggerResponse carries the pass report.
type TriggerResponse struct {
	Report PassReport `json:"report"`
}

// ReconcileRequest folds a fresh i3 snapshot into the store.
type ReconcileRequest struct{}

// ReconcileResponse lists what changed.
type ReconcileResponse struct {
	Added      []int64 `json:"added"`
	Remembered []int64 `json:"remembered"`
	Cleared    []int64 `json:"cleared"`
	Unchanged  int     `json:"unchanged"`
}

// ReloadRequest re-reads the config file.
type ReloadRequest struct{}

// ReloadResponse reports the policy in effect after reload.
type ReloadResponse struct {
	Reloaded bool   `json:"reloaded"`
	Message  string `json:"message"`
}

// StopRequest asks the daemon process to exit.
type StopRequest struct{}

// StopResponse acknowledges a stop request.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}
