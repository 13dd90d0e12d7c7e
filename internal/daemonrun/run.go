package daemonrun

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"hotdock/internal/config"
	"hotdock/internal/daemon"
	"hotdock/internal/ipc"
	"hotdock/internal/logging"
	"hotdock/internal/preflight"
)

// Options configures daemon process runtime behavior.
type Options struct {
	ConfigPath  string
	SocketPath  string
	LogLevel    string
	Development bool
	Diagnostic  bool
}

// Run starts the hotdock daemon and blocks until SIGINT, SIGTERM or an IPC
// stop request.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("hotdock-%s.log", runID))

	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if opts.Diagnostic {
		sessionID := uuid.NewString()
		debugDir := filepath.Join(cfg.Paths.LogDir, "debug")
		handler, closer, debugLogPath, debugErr := logging.OpenDiagnosticHandler(debugDir, runID)
		if debugErr != nil {
			fmt.Fprintf(os.Stderr, "warn: unable to initialize diagnostic log: %v\n", debugErr)
		} else {
			defer closeQuietly(closer)
			logger = logging.TeeLogger(logger, handler).With(logging.String("session_id", sessionID))
			if err := ensureCurrentLogPointer(debugDir, debugLogPath); err != nil {
				fmt.Fprintf(os.Stderr, "warn: unable to update debug/hotdock.log link: %v\n", err)
			}
			logger.Info("diagnostic mode enabled",
				logging.String(logging.FieldEventType, "diagnostic_mode_enabled"),
				logging.String("debug_log_path", debugLogPath),
			)
		}
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update hotdock.log link: %v\n", err)
	}
	logPreflight(signalCtx, logger, cfg)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	d, err := daemon.New(cfg, opts.ConfigPath, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	socketPath := cfg.SocketPath()
	if strings.TrimSpace(opts.SocketPath) != "" {
		socketPath = opts.SocketPath
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger, cancel)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	logger.Info("hotdock daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("socket", socketPath),
		logging.Int("pid", os.Getpid()),
	)

	<-signalCtx.Done()
	logger.Info("hotdock daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "hotdock.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

// logPreflight records the environment once so a broken session shows up
// before the first hotplug event.
func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	results := preflight.RunAll(ctx, cfg)
	attrs := []any{logging.String(logging.FieldEventType, "dependency_snapshot")}
	for _, r := range results {
		key := strings.ReplaceAll(strings.ToLower(r.Name), " ", "_")
		attrs = append(attrs, logging.Bool(key+"_ok", r.Passed))
	}
	logger.Info("dependency snapshot", attrs...)
	for _, r := range results {
		if r.Passed {
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "run hotdock doctor for details"),
			logging.String(logging.FieldImpact, "hotplug passes may fail until the environment is fixed"),
		)
	}
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
