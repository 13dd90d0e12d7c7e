package ipc

import (
	"hotdock/internal/display"
	"hotdock/internal/orchestrator"
	"hotdock/internal/workspace"
)

func fromWorkspace(w workspace.TrackedWorkspace) Workspace {
	return Workspace{
		Num:              w.Num,
		Output:           w.Output,
		Focused:          w.Focused,
		RememberedOutput: w.RememberedOutput,
		WasFocused:       w.WasFocused,
	}
}

func fromOutputs(outputs []display.Output) []Output {
	converted := make([]Output, 0, len(outputs))
	for _, out := range outputs {
		converted = append(converted, Output{
			Name:           out.Name,
			Connected:      out.Connected,
			RandRConnected: out.RandRConnected,
			EDIDBytes:      out.EDIDBytes,
		})
	}
	return converted
}

func fromReport(r *orchestrator.PassReport) *PassReport {
	if r == nil {
		return nil
	}
	report := &PassReport{
		ID:         r.ID,
		Trigger:    r.Trigger,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Existing:   r.Existing,
		Focused:    r.Focused,
		Outputs:    fromOutputs(r.Outputs),
		LayoutArgs: r.LayoutArgs,
		Remembered: r.Reconcile.Remembered,
		Cleared:    r.Reconcile.Cleared,
		Commands:   r.Commands,
		Cancelled:  r.Cancelled,
	}
	for _, f := range r.Failures {
		report.Failures = append(report.Failures, Failure{Step: f.Step, Kind: f.Kind, Message: f.Message})
	}
	return report
}
