package orchestrator

// State is the orchestrator's position in a hotplug pass.
type State int32

const (
	StateIdle State = iota
	StateLayoutPending
	StateLayoutApplied
	StateReconciling
	StateReplaying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLayoutPending:
		return "layout_pending"
	case StateLayoutApplied:
		return "layout_applied"
	case StateReconciling:
		return "reconciling"
	case StateReplaying:
		return "replaying"
	default:
		return "unknown"
	}
}
