package wm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.i3wm.org/i3/v4"

	"hotdock/internal/logging"
	"hotdock/internal/workspace"
)

func TestCommands(t *testing.T) {
	assert.Equal(t, `[workspace="3"] move workspace to output DVI-D-0`, MoveCommand(3, "DVI-D-0"))
	assert.Equal(t, "workspace 12", FocusCommand(12))
}

func TestI3SessionWorkspaces(t *testing.T) {
	s := &I3Session{
		getWorkspaces: func() ([]i3.Workspace, error) {
			return []i3.Workspace{
				{Num: 1, Name: "1", Output: "HDMI-A-0", Focused: true, Visible: true},
				{Num: 2, Name: "2:web", Output: "DVI-D-0", Visible: true},
			}, nil
		},
	}
	got, err := s.Workspaces(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []workspace.Observation{
		{Num: 1, Output: "HDMI-A-0", Focused: true, Visible: true},
		{Num: 2, Output: "DVI-D-0", Visible: true},
	}, got)

	num, ok := FocusedWorkspace(got)
	assert.True(t, ok)
	assert.Equal(t, int64(1), num)
}

func TestI3SessionWorkspacesError(t *testing.T) {
	s := &I3Session{getWorkspaces: func() ([]i3.Workspace, error) { return nil, errors.New("socket gone") }}
	_, err := s.Workspaces(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "socket gone")
}

func TestI3SessionRunCommand(t *testing.T) {
	var sent []string
	s := &I3Session{runCommand: func(cmd string) ([]i3.CommandResult, error) {
		sent = append(sent, cmd)
		if cmd == "workspace 9" {
			return []i3.CommandResult{{Success: false, Error: "no such workspace"}}, nil
		}
		return []i3.CommandResult{{Success: true}}, nil
	}}
	ctx := context.Background()

	require.NoError(t, s.RunCommand(ctx, "workspace 1"))
	err := s.RunCommand(ctx, "workspace 9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such workspace")
	assert.Equal(t, []string{"workspace 1", "workspace 9"}, sent)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, s.RunCommand(cancelled, "workspace 2"), context.Canceled)
	assert.Len(t, sent, 2)
}

func TestI3SessionVersion(t *testing.T) {
	s := &I3Session{getVersion: func() (i3.Version, error) {
		return i3.Version{Major: 4, Minor: 23, HumanReadable: "4.23 (2023-10-29)"}, nil
	}}
	v, err := s.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "4.23 (2023-10-29)", v)
}

type fakeStream struct {
	events []i3.Event
	idx    int
	closed bool
	mu     sync.Mutex
}

func (f *fakeStream) Next() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.idx >= len(f.events) {
		return false
	}
	f.idx++
	return true
}

func (f *fakeStream) Event() i3.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[f.idx-1]
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestListenerForwardsWorkspaceEventsAndBacksOff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	streams := []*fakeStream{
		{events: []i3.Event{&i3.WorkspaceEvent{Change: "focus"}, &i3.WindowEvent{Change: "new"}, &i3.WorkspaceEvent{Change: "move"}}},
		{},
		{},
		{},
		{},
		{},
		{},
	}
	var changes []string
	listener := NewListener(func(_ context.Context, change string) {
		changes = append(changes, change)
	}, 4*time.Second, logging.NewNop())

	next := 0
	listener.subscribe = func() eventStream {
		s := streams[next]
		next++
		return s
	}
	var delays []time.Duration
	listener.sleep = func(_ context.Context, d time.Duration) bool {
		delays = append(delays, d)
		if len(delays) == len(streams) {
			cancel()
			return false
		}
		return true
	}

	require.NoError(t, listener.Run(ctx))
	assert.Equal(t, []string{"focus", "move"}, changes)
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 4 * time.Second, 4 * time.Second, 4 * time.Second, 4 * time.Second,
	}, delays)
}

func TestListenerResetsBackoffAfterDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	streams := []*fakeStream{
		{},
		{},
		{events: []i3.Event{&i3.WorkspaceEvent{Change: "init"}}},
	}
	listener := NewListener(nil, 30*time.Second, logging.NewNop())
	next := 0
	listener.subscribe = func() eventStream {
		s := streams[next]
		next++
		return s
	}
	var delays []time.Duration
	listener.sleep = func(_ context.Context, d time.Duration) bool {
		delays = append(delays, d)
		if len(delays) == len(streams) {
			cancel()
			return false
		}
		return true
	}

	require.NoError(t, listener.Run(ctx))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, time.Second}, delays)
}
