package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"hotdock/internal/config"
	"hotdock/internal/deps"
	"hotdock/internal/display"
)

const checkTimeout = 5 * time.Second

// VersionReporter is satisfied by wm.I3Session.
type VersionReporter interface {
	Version(ctx context.Context) (string, error)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDisplay probes RandR and reports how many outputs carry an EDID. The
// check fails when the configured primary output is not known to the server.
func CheckDisplay(ctx context.Context, prober display.Prober, primary string) Result {
	const name = "X display"

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	outputs, err := prober.Outputs(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("RandR query failed (%v)", err)}
	}
	connected := 0
	primaryKnown := primary == ""
	for _, out := range outputs {
		if out.Connected {
			connected++
		}
		if out.Name == primary {
			primaryKnown = true
		}
	}
	detail := fmt.Sprintf("%d outputs, %d connected", len(outputs), connected)
	if !primaryKnown {
		return Result{Name: name, Detail: fmt.Sprintf("%s (primary output %q not found)", detail, primary)}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckPosition verifies the positional directive parses.
func CheckPosition(raw string) Result {
	const name = "Position directive"
	pos, ok := display.ParsePosition(raw)
	if !ok {
		return Result{Name: name, Detail: fmt.Sprintf("%q (error: expected <output>:<xrandr args>)", raw)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s %v", pos.Output, pos.Args)}
}

// CheckI3 verifies the i3 IPC socket answers a version request.
func CheckI3(ctx context.Context, session VersionReporter) Result {
	const name = "i3 IPC"

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	type answer struct {
		version string
		err     error
	}
	ch := make(chan answer, 1)
	go func() {
		v, err := session.Version(checkCtx)
		ch <- answer{version: v, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("unreachable (%v)", res.err)}
		}
		return Result{Name: name, Passed: true, Detail: "i3 " + res.version}
	case <-checkCtx.Done():
		err := checkCtx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{Name: name, Detail: "version request timed out (i3 unresponsive)"}
		}
		return Result{Name: name, Detail: err.Error()}
	}
}

// CheckSystemDeps evaluates the external binaries a pass shells out to.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "xrandr",
			Command:     cfg.Display.XrandrBinary,
			Description: "Required to apply the output layout",
		},
	}
	return deps.CheckBinaries(requirements)
}
