package orchestrator

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"hotdock/internal/display"
	"hotdock/internal/logging"
	"hotdock/internal/wm"
	"hotdock/internal/workspace"
)

// passContext is what the pass remembers from before the layout change.
type passContext struct {
	Existing map[int64]struct{}
	Focused  *int64
}

func (p passContext) has(num int64) bool {
	_, ok := p.Existing[num]
	return ok
}

func (o *Orchestrator) runPass(ctx context.Context, trigger string) *PassReport {
	report := &PassReport{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		StartedAt: time.Now(),
	}
	ctx = logging.WithPassID(ctx, report.ID)
	logger := logging.WithContext(ctx, o.logger)

	o.mu.Lock()
	policy := o.policy
	postLayoutDelay := o.postLayoutDelay
	o.mu.Unlock()

	logger.Info("hotplug pass started",
		logging.String(logging.FieldEventType, "pass_started"),
		logging.String("trigger", trigger),
	)
	defer func() {
		o.setState(ctx, StateIdle)
		report.FinishedAt = time.Now()
		logger.Info("hotplug pass finished",
			logging.String(logging.FieldEventType, "pass_finished"),
			logging.Duration("elapsed", report.Duration()),
			logging.Int("commands", len(report.Commands)),
			logging.Int("failures", len(report.Failures)),
			logging.Bool("cancelled", report.Cancelled),
		)
	}()

	o.setState(ctx, StateLayoutPending)
	pc := o.captureContext(ctx, logger, report)
	outputs := o.probeOutputs(ctx, logger, report)
	o.applyLayout(ctx, logger, report, outputs, policy)

	o.setState(ctx, StateLayoutApplied)
	if !o.sleep(ctx, postLayoutDelay) {
		report.Cancelled = true
		return report
	}

	o.setState(ctx, StateReconciling)
	o.reconcile(ctx, logger, report)

	if ctx.Err() != nil {
		report.Cancelled = true
		return report
	}
	o.setState(ctx, StateReplaying)
	o.replay(ctx, logger, report, pc)
	return report
}

func (o *Orchestrator) captureContext(ctx context.Context, logger *slog.Logger, report *PassReport) passContext {
	pc := passContext{Existing: make(map[int64]struct{})}
	observations, err := o.session.Workspaces(ctx)
	if err != nil {
		o.recordFailure(logger, report, "capture", wrap(ErrSnapshot, "capture", "get workspaces", err))
		return pc
	}
	for _, obs := range observations {
		pc.Existing[obs.Num] = struct{}{}
		report.Existing = append(report.Existing, obs.Num)
	}
	sort.Slice(report.Existing, func(i, j int) bool { return report.Existing[i] < report.Existing[j] })
	if num, ok := wm.FocusedWorkspace(observations); ok {
		pc.Focused = &num
		report.Focused = &num
	}
	return pc
}

func (o *Orchestrator) probeOutputs(ctx context.Context, logger *slog.Logger, report *PassReport) []display.Output {
	outputs, err := o.prober.Outputs(ctx)
	if err != nil {
		o.recordFailure(logger, report, "probe", wrap(ErrProbe, "probe", "enumerate outputs", err))
		return nil
	}
	report.Outputs = outputs
	connected := make([]string, 0, len(outputs))
	for _, out := range outputs {
		if out.Connected {
			connected = append(connected, out.Name)
		}
	}
	logger.Info("outputs probed",
		logging.Int("outputs", len(outputs)),
		logging.Strings("connected", connected),
	)
	return outputs
}

func (o *Orchestrator) applyLayout(ctx context.Context, logger *slog.Logger, report *PassReport, outputs []display.Output, policy display.Policy) {
	if len(outputs) == 0 {
		logger.Info("no outputs probed; skipping xrandr")
		return
	}
	args := display.BuildLayoutArgs(outputs, policy)
	report.LayoutArgs = args
	if err := o.applier.Apply(ctx, args); err != nil {
		o.recordFailure(logger, report, "layout", wrap(ErrLayoutApply, "layout", "xrandr", err))
		return
	}
	logger.Info("layout applied",
		logging.String(logging.FieldEventType, "layout_applied"),
		logging.Strings("args", args),
	)
}

func (o *Orchestrator) reconcile(ctx context.Context, logger *slog.Logger, report *PassReport) {
	observations, err := o.session.Workspaces(ctx)
	if err != nil {
		o.recordFailure(logger, report, "reconcile", wrap(ErrSnapshot, "reconcile", "get workspaces", err))
		return
	}
	result := o.store.Reconcile(ctx, observations, o.prober)
	report.Reconcile = result
	logger.Info("store reconciled",
		logging.Int("workspaces", len(observations)),
		logging.Int("remembered", len(result.Remembered)),
		logging.Int("cleared", len(result.Cleared)),
		logging.Int("added", len(result.Added)),
	)
}

// replay moves remembered workspaces back to reconnected outputs, restores
// their focus, then returns focus to the workspace focused before the change.
func (o *Orchestrator) replay(ctx context.Context, logger *slog.Logger, report *PassReport, pc passContext) {
	o.store.Read(func(entries []workspace.TrackedWorkspace) {
		for _, entry := range entries {
			if !entry.Pending() || !o.prober.IsConnected(ctx, entry.RememberedOutput) {
				continue
			}
			logger.Info("restoring workspace",
				logging.Workspace(entry.Num),
				logging.Output(entry.RememberedOutput),
			)
			o.sendCommand(ctx, logger, report, "replay_move", wm.MoveCommand(entry.Num, entry.RememberedOutput))
		}
		for _, entry := range entries {
			if !entry.WasFocused || !entry.Pending() || !pc.has(entry.Num) {
				continue
			}
			o.sendCommand(ctx, logger, report, "replay_focus", wm.FocusCommand(entry.Num))
		}
	})

	if pc.Focused != nil && pc.has(*pc.Focused) {
		o.sendCommand(ctx, logger, report, "restore_focus", wm.FocusCommand(*pc.Focused))
	}
}
