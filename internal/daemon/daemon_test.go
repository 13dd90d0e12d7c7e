package daemon_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotdock/internal/config"
	"hotdock/internal/daemon"
	"hotdock/internal/display"
	"hotdock/internal/logging"
	"hotdock/internal/testsupport"
	"hotdock/internal/workspace"
)

type stubSession struct {
	mu       sync.Mutex
	obs      []workspace.Observation
	commands []string
}

func (s *stubSession) Workspaces(context.Context) ([]workspace.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]workspace.Observation(nil), s.obs...), nil
}

func (s *stubSession) RunCommand(_ context.Context, cmd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, cmd)
	return nil
}

type stubProber struct {
	outputs []display.Output
}

func (p stubProber) Outputs(context.Context) ([]display.Output, error) { return p.outputs, nil }

func (p stubProber) IsConnected(_ context.Context, name string) bool {
	for _, out := range p.outputs {
		if out.Name == name {
			return out.Connected
		}
	}
	return false
}

type stubApplier struct {
	mu   sync.Mutex
	args [][]string
}

func (a *stubApplier) Apply(_ context.Context, args []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.args = append(a.args, args)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return testsupport.NewConfig(t)
}

func newTestDaemon(t *testing.T, cfg *config.Config, configPath string) (*daemon.Daemon, *stubSession, *stubApplier) {
	t.Helper()
	session := &stubSession{obs: []workspace.Observation{
		{Num: 1, Output: "HDMI-A-0", Focused: true},
		{Num: 2, Output: "DVI-D-0", Visible: true},
	}}
	applier := &stubApplier{}
	prober := stubProber{outputs: []display.Output{
		{Name: "HDMI-A-0", Connected: true},
		{Name: "DVI-D-0", Connected: true},
	}}
	d, err := daemon.New(cfg, configPath, logging.NewNop(),
		daemon.WithSession(session),
		daemon.WithProber(prober),
		daemon.WithApplier(applier),
		daemon.WithoutEventSources(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d, session, applier
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testConfig(t)
	d, _, _ := newTestDaemon(t, cfg, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, d.Start(ctx))
	status := d.Status()
	assert.True(t, status.Running)
	assert.Equal(t, 2, status.Workspaces)
	assert.Equal(t, "idle", status.Orchestrator.StateName)
	assert.Equal(t, cfg.LockPath(), status.LockPath)
	assert.Error(t, d.Start(ctx), "second start must fail")

	d.Stop()
	assert.False(t, d.Status().Running)
}

func TestDaemonLockIsExclusive(t *testing.T) {
	cfg := testConfig(t)
	first, _, _ := newTestDaemon(t, cfg, "")
	second, _, _ := newTestDaemon(t, cfg, "")
	ctx := context.Background()

	require.NoError(t, first.Start(ctx))
	err := second.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	first.Stop()
	require.NoError(t, second.Start(ctx))
}

func TestDaemonTriggerRunsPass(t *testing.T) {
	cfg := testConfig(t)
	d, session, applier := newTestDaemon(t, cfg, "")
	ctx := context.Background()

	_, err := d.Trigger(ctx)
	require.Error(t, err, "trigger requires a running daemon")

	require.NoError(t, d.Start(ctx))
	report, err := d.Trigger(ctx)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, []string{
		"--output", "HDMI-A-0", "--auto", "--primary",
		"--output", "DVI-D-0", "--auto",
	}, report.LayoutArgs)
	assert.Len(t, applier.args, 1)
	assert.Equal(t, []string{"workspace 1"}, session.commands)

	args, err := d.LayoutArgs(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.LayoutArgs, args)

	outputs, err := d.Outputs(ctx)
	require.NoError(t, err)
	assert.Len(t, outputs, 2)
	assert.Len(t, d.Workspaces(), 2)
}

func TestDaemonReloadConfig(t *testing.T) {
	cfg := testConfig(t)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, configPath, cfg.Paths.StateDir, "HDMI-A-0", "")

	d, _, _ := newTestDaemon(t, cfg, configPath)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, d.Start(ctx))

	writeConfig(t, configPath, cfg.Paths.StateDir, "DVI-D-0", "DVI-D-0:--left-of HDMI-A-0")
	require.Eventually(t, func() bool {
		return d.Status().Orchestrator.Primary == "DVI-D-0"
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, "DVI-D-0", d.Status().Orchestrator.Position)

	args, err := d.LayoutArgs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"--output", "HDMI-A-0", "--auto",
		"--output", "DVI-D-0", "--auto", "--left-of", "HDMI-A-0", "--primary",
	}, args)
}

func TestDaemonReloadConfigRejectsBrokenFile(t *testing.T) {
	cfg := testConfig(t)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[display\n"), 0o644))

	d, _, _ := newTestDaemon(t, cfg, configPath)
	require.Error(t, d.ReloadConfig())
	assert.Equal(t, "HDMI-A-0", d.Status().Orchestrator.Primary)
}

func writeConfig(t *testing.T, path, stateDir, primary, position string) {
	t.Helper()
	body := "[paths]\nstate_dir = \"" + stateDir + "\"\n\n[display]\nprimary_output = \"" + primary + "\"\nposition = \"" + position + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}
