package preflight

import (
	"context"
	"strings"

	"hotdock/internal/config"
	"hotdock/internal/display"
	"hotdock/internal/logging"
	"hotdock/internal/wm"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	if cfg.Paths.LogDir != "" && cfg.Paths.LogDir != cfg.Paths.StateDir {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	prober := display.NewRandRProber(cfg.Display.XDisplay, logging.NewNop())
	results = append(results, CheckDisplay(ctx, prober, cfg.Display.PrimaryOutput))

	if strings.TrimSpace(cfg.Display.Position) != "" {
		results = append(results, CheckPosition(cfg.Display.Position))
	}

	results = append(results, CheckI3(ctx, wm.NewI3Session(cfg.I3.SocketPath)))

	for _, dep := range CheckSystemDeps(cfg) {
		result := Result{Name: dep.Name, Passed: dep.Available, Detail: dep.Command}
		if !dep.Available {
			result.Detail = dep.Detail
		}
		results = append(results, result)
	}

	return results
}

// Failed counts results that did not pass.
func Failed(results []Result) int {
	failed := 0
	for _, r := range results {
		if !r.Passed {
			failed++
		}
	}
	return failed
}
