package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"hotdock/internal/config"
	"hotdock/internal/display"
	"hotdock/internal/hotplug"
	"hotdock/internal/logging"
	"hotdock/internal/orchestrator"
	"hotdock/internal/wm"
	"hotdock/internal/workspace"
)

// Daemon owns the store, the orchestrator and every event source.
type Daemon struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger

	session wm.Session
	prober  display.Prober
	applier orchestrator.LayoutApplier

	store    *workspace.Store
	orch     *orchestrator.Orchestrator
	monitor  *hotplug.Monitor
	listener *wm.Listener
	watcher  *configWatcher

	enableHotplug  bool
	enableListener bool

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	startedAt time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	cfgMu     sync.Mutex
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithSession replaces the i3 session.
func WithSession(s wm.Session) Option { return func(d *Daemon) { d.session = s } }

// WithProber replaces the RandR prober.
func WithProber(p display.Prober) Option { return func(d *Daemon) { d.prober = p } }

// WithApplier replaces the xrandr applier.
func WithApplier(a orchestrator.LayoutApplier) Option { return func(d *Daemon) { d.applier = a } }

// WithoutEventSources disables the udev monitor and the i3 listener, leaving
// manual triggers as the only way to start a pass.
func WithoutEventSources() Option {
	return func(d *Daemon) {
		d.enableHotplug = false
		d.enableListener = false
	}
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	PID            int
	StartedAt      time.Time
	LockPath       string
	ConfigPath     string
	Workspaces     int
	Pending        int
	HotplugRunning bool
	HotplugEvents  int64
	Orchestrator   orchestrator.Status
}

// New constructs a daemon. configPath may be empty when no file is in use.
func New(cfg *config.Config, configPath string, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	d := &Daemon{
		cfg:            cfg,
		configPath:     configPath,
		logger:         logging.NewComponentLogger(logger, "daemon"),
		enableHotplug:  true,
		enableListener: true,
		lockPath:       cfg.LockPath(),
		lock:           flock.New(cfg.LockPath()),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.session == nil {
		d.session = wm.NewI3Session(cfg.I3.SocketPath)
	}
	if d.prober == nil {
		d.prober = display.NewRandRProber(cfg.Display.XDisplay, logger)
	}
	if d.applier == nil {
		d.applier = display.NewLayoutApplier(cfg.Display.XrandrBinary, cfg.Display.XDisplay, logger)
	}

	d.store = workspace.NewStore(logger)
	d.orch = orchestrator.New(orchestrator.Options{
		Store:           d.store,
		Session:         d.session,
		Prober:          d.prober,
		Applier:         d.applier,
		Policy:          display.NewPolicy(cfg.Display.PrimaryOutput, cfg.Display.Position, logger),
		SettleDelay:     cfg.SettleDelay(),
		PostLayoutDelay: cfg.PostLayoutDelay(),
		Logger:          logger,
	})
	if d.enableHotplug {
		d.monitor = hotplug.NewMonitor(cfg.Hotplug, logger, d.onHotplug)
	}
	if d.enableListener {
		d.listener = wm.NewListener(d.onWorkspaceEvent, cfg.ReconnectMax(), logger)
	}
	return d, nil
}

// Start acquires the lock, seeds the store and starts every event source.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := os.MkdirAll(d.cfg.Paths.StateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another hotdock daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.seed(runCtx)
	d.orch.Start(runCtx)

	if err := d.monitor.Start(runCtx); err != nil {
		d.logger.Warn("hotplug monitor start failed", logging.Error(err))
	}
	if d.listener != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			_ = d.listener.Run(runCtx)
		}()
	}
	if d.configPath != "" {
		watcher, err := newConfigWatcher(d.configPath, d.logger, d.reloadFromWatcher)
		if err != nil {
			logging.WarnWithContext(d.logger, "config watcher unavailable", "config_watch_failed",
				logging.Error(err),
				logging.String("path", d.configPath),
				logging.String(logging.FieldErrorHint, "restart the daemon after editing the config"),
				logging.String(logging.FieldImpact, "layout policy changes are not picked up live"),
			)
		} else {
			d.watcher = watcher
			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				watcher.Run(runCtx)
			}()
		}
	}

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("hotdock daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.Int("workspaces", d.store.Len()),
	)
	return nil
}

// Stop shuts event sources down and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.orch.Stop()
	d.monitor.Stop()
	if d.watcher != nil {
		d.watcher.Close()
		d.watcher = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("hotdock daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	pending := 0
	entries := d.store.Snapshot()
	for _, entry := range entries {
		if entry.Pending() {
			pending++
		}
	}
	d.cfgMu.Lock()
	configPath := d.configPath
	d.cfgMu.Unlock()
	return Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		StartedAt:      d.startedAt,
		LockPath:       d.lockPath,
		ConfigPath:     configPath,
		Workspaces:     len(entries),
		Pending:        pending,
		HotplugRunning: d.monitor.Running(),
		HotplugEvents:  d.monitor.EventsSeen(),
		Orchestrator:   d.orch.Status(),
	}
}

// Workspaces returns the tracked workspaces in ascending order.
func (d *Daemon) Workspaces() []workspace.TrackedWorkspace {
	return d.store.Snapshot()
}

// Outputs probes RandR outputs.
func (d *Daemon) Outputs(ctx context.Context) ([]display.Output, error) {
	return d.prober.Outputs(ctx)
}

// LayoutArgs returns the xrandr arguments the next pass would run.
func (d *Daemon) LayoutArgs(ctx context.Context) ([]string, error) {
	outputs, err := d.prober.Outputs(ctx)
	if err != nil {
		return nil, err
	}
	d.cfgMu.Lock()
	policy := display.NewPolicy(d.cfg.Display.PrimaryOutput, d.cfg.Display.Position, d.logger)
	d.cfgMu.Unlock()
	return display.BuildLayoutArgs(outputs, policy), nil
}

// Trigger runs a hotplug pass immediately.
func (d *Daemon) Trigger(ctx context.Context) (*orchestrator.PassReport, error) {
	if !d.running.Load() {
		return nil, errors.New("daemon not running")
	}
	return d.orch.Trigger(ctx), nil
}

// Reconcile folds a fresh i3 snapshot into the store.
func (d *Daemon) Reconcile(ctx context.Context) (workspace.ReconcileResult, error) {
	return d.orch.Reconcile(ctx)
}

// ReloadConfig re-reads the config file and applies the layout policy and
// timing to subsequent passes. Paths and sockets need a restart.
func (d *Daemon) ReloadConfig() error {
	d.cfgMu.Lock()
	defer d.cfgMu.Unlock()
	if d.configPath == "" {
		return errors.New("no config file in use")
	}
	cfg, _, _, err := config.Load(d.configPath)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}
	d.cfg.Display = cfg.Display
	d.cfg.Timing = cfg.Timing
	d.orch.SetPolicy(display.NewPolicy(cfg.Display.PrimaryOutput, cfg.Display.Position, d.logger))
	d.orch.SetDelays(cfg.SettleDelay(), cfg.PostLayoutDelay())
	d.logger.Info("config reloaded",
		logging.String(logging.FieldEventType, "config_reloaded"),
		logging.String("primary", cfg.Display.PrimaryOutput),
		logging.String("position", cfg.Display.Position),
	)
	return nil
}

func (d *Daemon) reloadFromWatcher() {
	if err := d.ReloadConfig(); err != nil {
		logging.WarnWithContext(d.logger, "config reload failed; keeping previous policy", "config_reload_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the TOML syntax and save again"),
			logging.String(logging.FieldImpact, "layout policy unchanged"),
		)
	}
}

func (d *Daemon) seed(ctx context.Context) {
	observations, err := d.session.Workspaces(ctx)
	if err != nil {
		logging.WarnWithContext(d.logger, "initial workspace snapshot failed; starting with empty store", "seed_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that i3 is running and I3SOCK is correct"),
			logging.String(logging.FieldImpact, "workspaces are tracked from the next workspace event"),
		)
		return
	}
	d.store.Seed(observations)
}

func (d *Daemon) onHotplug(_ context.Context, event hotplug.Event) {
	d.logger.Debug("hotplug event queued",
		logging.String("action", event.Action),
		logging.String("device", event.Device),
	)
	d.orch.Notify()
}

func (d *Daemon) onWorkspaceEvent(ctx context.Context, change string) {
	if _, err := d.orch.Reconcile(ctx); err != nil {
		logging.WarnWithContext(d.logger, "reconcile after workspace event failed", "reconcile_failed",
			logging.String("change", change),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that i3 is running"),
			logging.String(logging.FieldImpact, "store may lag until the next event"),
		)
	}
}
