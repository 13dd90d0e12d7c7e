package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"hotdock/internal/config"
	"hotdock/internal/daemon"
	"hotdock/internal/display"
	"hotdock/internal/ipc"
	"hotdock/internal/logging"
	"hotdock/internal/testsupport"
	"hotdock/internal/workspace"
)

type fakeSession struct {
	mu       sync.Mutex
	obs      []workspace.Observation
	commands []string
}

func (s *fakeSession) Workspaces(context.Context) ([]workspace.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]workspace.Observation(nil), s.obs...), nil
}

func (s *fakeSession) RunCommand(_ context.Context, cmd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, cmd)
	return nil
}

type fakeProber struct{}

func (fakeProber) Outputs(context.Context) ([]display.Output, error) {
	return []display.Output{
		{Name: "HDMI-A-0", Connected: true, RandRConnected: true, EDIDBytes: 256},
		{Name: "DVI-D-0", Connected: false, RandRConnected: true},
	}, nil
}

func (fakeProber) IsConnected(_ context.Context, name string) bool { return name == "HDMI-A-0" }

type fakeApplier struct{}

func (fakeApplier) Apply(context.Context, []string) error { return nil }

type cliTestEnv struct {
	cfg        *config.Config
	session    *fakeSession
	daemon     *daemon.Daemon
	socketPath string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(base, "config.toml")
	testsupport.WriteConfig(t, configPath, cfg)

	session := &fakeSession{obs: []workspace.Observation{
		{Num: 1, Output: "HDMI-A-0", Focused: true},
		{Num: 2, Output: "DVI-D-0", Visible: true},
	}}
	logger := logging.NewNop()
	d, err := daemon.New(cfg, configPath, logger,
		daemon.WithSession(session),
		daemon.WithProber(fakeProber{}),
		daemon.WithApplier(fakeApplier{}),
		daemon.WithoutEventSources(),
	)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon start: %v", err)
	}

	socketPath := testsupport.SocketPath(t)
	srv, err := ipc.NewServer(ctx, socketPath, d, logger, nil)
	if err != nil {
		cancel()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	t.Cleanup(func() {
		cancel()
		srv.Close()
		_ = d.Close()
	})

	return &cliTestEnv{
		cfg:        cfg,
		session:    session,
		daemon:     d,
		socketPath: socketPath,
		configPath: configPath,
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if socket != "" {
		flags = append(flags, "--socket", socket)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
