package wm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.i3wm.org/i3/v4"

	"hotdock/internal/workspace"
)

// Session is the subset of window-manager IPC the daemon needs.
type Session interface {
	Workspaces(ctx context.Context) ([]workspace.Observation, error)
	RunCommand(ctx context.Context, command string) error
}

var socketHookOnce sync.Once

// I3Session implements Session on top of go.i3wm.org/i3.
type I3Session struct {
	getWorkspaces func() ([]i3.Workspace, error)
	runCommand    func(string) ([]i3.CommandResult, error)
	getVersion    func() (i3.Version, error)
}

// NewI3Session returns a session. A non-empty socketPath replaces the
// library's discovery through i3 --get-socketpath for the whole process.
func NewI3Session(socketPath string) *I3Session {
	if path := strings.TrimSpace(socketPath); path != "" {
		socketHookOnce.Do(func() {
			i3.SocketPathHook = func() (string, error) { return path, nil }
		})
	}
	return &I3Session{
		getWorkspaces: i3.GetWorkspaces,
		runCommand:    i3.RunCommand,
		getVersion:    i3.GetVersion,
	}
}

// Workspaces returns the current workspace list as observations.
func (s *I3Session) Workspaces(ctx context.Context) ([]workspace.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := s.getWorkspaces()
	if err != nil {
		return nil, fmt.Errorf("get workspaces: %w", err)
	}
	observations := make([]workspace.Observation, 0, len(raw))
	for _, ws := range raw {
		observations = append(observations, workspace.Observation{
			Num:     ws.Num,
			Output:  ws.Output,
			Focused: ws.Focused,
			Visible: ws.Visible,
		})
	}
	return observations, nil
}

// RunCommand sends one command and fails if i3 rejects it.
func (s *I3Session) RunCommand(ctx context.Context, command string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	results, err := s.runCommand(command)
	if err != nil {
		return fmt.Errorf("run %q: %w", command, err)
	}
	var errs []error
	for _, res := range results {
		if !res.Success {
			errs = append(errs, errors.New(res.Error))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("run %q: %w", command, errors.Join(errs...))
	}
	return nil
}

// Version returns the human readable version of the running i3.
func (s *I3Session) Version(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, err := s.getVersion()
	if err != nil {
		return "", fmt.Errorf("get version: %w", err)
	}
	return v.HumanReadable, nil
}

// FocusedWorkspace returns the number of the focused workspace, if any.
func FocusedWorkspace(observations []workspace.Observation) (int64, bool) {
	for _, obs := range observations {
		if obs.Focused {
			return obs.Num, true
		}
	}
	return 0, false
}
