package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"hotdock/internal/display"
	"hotdock/internal/logging"
	"hotdock/internal/wm"
	"hotdock/internal/workspace"
)

const passKey = "hotplug-pass"

// LayoutApplier runs a prepared xrandr argument list.
type LayoutApplier interface {
	Apply(ctx context.Context, args []string) error
}

// Options configures an Orchestrator.
type Options struct {
	Store           *workspace.Store
	Session         wm.Session
	Prober          display.Prober
	Applier         LayoutApplier
	Policy          display.Policy
	SettleDelay     time.Duration
	PostLayoutDelay time.Duration
	Logger          *slog.Logger
}

// Status is a point-in-time view of the orchestrator.
type Status struct {
	State         State       `json:"-"`
	StateName     string      `json:"state"`
	DebounceArmed bool        `json:"debounce_armed"`
	RerunPending  bool        `json:"rerun_pending"`
	Passes        int64       `json:"passes"`
	Primary       string      `json:"primary"`
	Position      string      `json:"position,omitempty"`
	LastPass      *PassReport `json:"last_pass,omitempty"`
}

// Orchestrator owns the hotplug state machine.
type Orchestrator struct {
	logger  *slog.Logger
	store   *workspace.Store
	session wm.Session
	prober  display.Prober
	applier LayoutApplier

	state    atomic.Int32
	group    singleflight.Group
	debounce *debouncer
	sleep    func(ctx context.Context, d time.Duration) bool

	mu              sync.Mutex
	baseCtx         context.Context
	policy          display.Policy
	settleDelay     time.Duration
	postLayoutDelay time.Duration
	active          int
	pending         bool
	passes          int64
	last            *PassReport
}

// New constructs an Orchestrator in the Idle state.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		logger:          logging.NewComponentLogger(opts.Logger, "orchestrator"),
		store:           opts.Store,
		session:         opts.Session,
		prober:          opts.Prober,
		applier:         opts.Applier,
		policy:          opts.Policy,
		settleDelay:     opts.SettleDelay,
		postLayoutDelay: opts.PostLayoutDelay,
		baseCtx:         context.Background(),
		sleep:           sleepContext,
	}
	o.debounce = newDebouncer(o.fire)
	return o
}

// Start sets the context used by debounced passes.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	o.baseCtx = ctx
	o.mu.Unlock()
}

// Stop cancels any armed debounce timer.
func (o *Orchestrator) Stop() {
	o.debounce.Stop()
}

// State returns the current state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

func (o *Orchestrator) setState(ctx context.Context, s State) {
	prev := State(o.state.Swap(int32(s)))
	if prev != s {
		logging.WithContext(ctx, o.logger).Debug("state transition",
			logging.String("from", prev.String()),
			logging.String("to", s.String()),
		)
	}
}

// SetPolicy replaces the layout policy used by subsequent passes.
func (o *Orchestrator) SetPolicy(policy display.Policy) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.policy = policy
}

// SetDelays replaces the debounce and post-layout delays.
func (o *Orchestrator) SetDelays(settle, postLayout time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.settleDelay = settle
	o.postLayoutDelay = postLayout
}

// Status returns a snapshot for the status command.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	state := o.State()
	status := Status{
		State:         state,
		StateName:     state.String(),
		DebounceArmed: o.debounce.Armed(),
		RerunPending:  o.pending,
		Passes:        o.passes,
		Primary:       o.policy.Primary,
		LastPass:      o.last,
	}
	if pos := o.policy.Position; pos != nil {
		status.Position = pos.Output
	}
	return status
}

// Notify records a raw hotplug event and re-arms the debounce timer.
func (o *Orchestrator) Notify() {
	o.mu.Lock()
	delay := o.settleDelay
	o.mu.Unlock()
	o.debounce.Arm(delay)
}

// Trigger runs a pass immediately, sharing an in-flight pass if one exists.
func (o *Orchestrator) Trigger(ctx context.Context) *PassReport {
	report, _ := o.execute(ctx, TriggerManual)
	return report
}

// Reconcile folds a fresh window-manager snapshot into the store without
// touching the pass state. It serves workspace events and the reconcile
// command.
func (o *Orchestrator) Reconcile(ctx context.Context) (workspace.ReconcileResult, error) {
	observations, err := o.session.Workspaces(ctx)
	if err != nil {
		return workspace.ReconcileResult{}, wrap(ErrSnapshot, "reconcile", "get workspaces", err)
	}
	return o.store.Reconcile(ctx, observations, o.prober), nil
}

// fire runs when the debounce settles.
func (o *Orchestrator) fire() {
	o.mu.Lock()
	if o.active > 0 {
		o.pending = true
		o.mu.Unlock()
		o.logger.Info("hotplug settled during active pass; rerun scheduled",
			logging.String(logging.FieldEventType, "pass_rerun_scheduled"),
		)
		return
	}
	ctx := o.baseCtx
	o.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	go o.execute(ctx, TriggerHotplug)
}

func (o *Orchestrator) execute(ctx context.Context, trigger string) (*PassReport, bool) {
	v, _, shared := o.group.Do(passKey, func() (any, error) {
		o.mu.Lock()
		o.active++
		o.mu.Unlock()
		return o.runPass(ctx, trigger), nil
	})
	report, _ := v.(*PassReport)
	if shared {
		return report, true
	}

	o.mu.Lock()
	o.active--
	o.passes++
	o.last = report
	rerun := o.pending
	o.pending = false
	delay := o.settleDelay
	o.mu.Unlock()

	if rerun {
		o.debounce.Arm(delay)
	}
	return report, false
}

func (o *Orchestrator) sendCommand(ctx context.Context, logger *slog.Logger, report *PassReport, step, command string) {
	report.Commands = append(report.Commands, command)
	if err := o.session.RunCommand(ctx, command); err != nil {
		o.recordFailure(logger, report, step, wrap(ErrCommand, step, command, err))
		return
	}
	logger.Debug("command sent", logging.String("command", command))
}

func (o *Orchestrator) recordFailure(logger *slog.Logger, report *PassReport, step string, err error) {
	kind := failureKind(err)
	report.Failures = append(report.Failures, Failure{Step: step, Kind: kind, Message: err.Error()})
	logging.WarnWithContext(logger, "hotplug pass step failed", "pass_step_failed",
		logging.String("step", step),
		logging.String("kind", kind),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hintFor(kind)),
		logging.String(logging.FieldImpact, "pass continues with the remaining steps"),
	)
}

func hintFor(kind string) string {
	switch kind {
	case "layout_apply":
		return "run the logged xrandr arguments by hand to see the error"
	case "snapshot", "command":
		return "check that i3 is running and its IPC socket is reachable"
	case "probe":
		return "check that the X server is reachable and DISPLAY is set"
	default:
		return "check logs for details"
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
