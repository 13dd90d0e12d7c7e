package hotplug

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pilebones/go-udev/netlink"

	"hotdock/internal/config"
	"hotdock/internal/logging"
)

// Event is a matched udev event.
type Event struct {
	Action string
	KObj   string
	Device string
}

// Handler receives matched events. It must not block for long; the daemon
// only arms a debounce timer from it.
type Handler func(ctx context.Context, event Event)

// Monitor listens for udev netlink events on the DRM subsystem.
type Monitor struct {
	logger    *slog.Logger
	handler   Handler
	subsystem string
	devtype   string

	events atomic.Int64

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewMonitor creates a monitor filtering on the configured subsystem and
// devtype, defaulting to drm/drm_minor.
func NewMonitor(cfg config.Hotplug, logger *slog.Logger, handler Handler) *Monitor {
	defaults := config.Default().Hotplug
	subsystem := strings.TrimSpace(cfg.Subsystem)
	if subsystem == "" {
		subsystem = defaults.Subsystem
	}
	devtype := strings.TrimSpace(cfg.Devtype)
	if devtype == "" {
		devtype = defaults.Devtype
	}
	return &Monitor{
		logger:    logging.NewComponentLogger(logger, "hotplug"),
		handler:   handler,
		subsystem: subsystem,
		devtype:   devtype,
	}
}

// Start connects to the netlink socket. A connection failure is logged and
// not returned; the daemon still works through manual triggers.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(m.logger, "failed to connect to netlink socket; hotplug detection disabled", "netlink_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ensure the daemon may open NETLINK_KOBJECT_UEVENT sockets"),
			logging.String(logging.FieldImpact, "run `hotdock trigger` after plugging monitors"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, conn, quit)

	m.logger.Info("hotplug monitor started",
		logging.String(logging.FieldEventType, "hotplug_monitor_started"),
		logging.String("subsystem", m.subsystem),
		logging.String("devtype", m.devtype),
	)
	return nil
}

// Stop shuts down the monitor.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("hotplug monitor stopped",
		logging.String(logging.FieldEventType, "hotplug_monitor_stopped"),
	)
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// EventsSeen returns the number of matched events handled so far.
func (m *Monitor) EventsSeen() int64 {
	if m == nil {
		return 0
	}
	return m.events.Load()
}

func (m *Monitor) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			logging.WarnWithContext(m.logger, "netlink monitor error", "netlink_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "a hotplug event may have been missed"),
			)
		}
	}
}

// buildMatcher matches SUBSYSTEM=<subsystem>, DEVTYPE=<devtype>, ACTION=add|change.
func (m *Monitor) buildMatcher() netlink.Matcher {
	action := "add|change"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": m.subsystem,
			"DEVTYPE":   m.devtype,
		},
	})
	return rules
}

func (m *Monitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	event := Event{
		Action: string(uevent.Action),
		KObj:   uevent.KObj,
		Device: deviceName(uevent),
	}
	m.events.Add(1)

	m.logger.Debug("hotplug event",
		logging.String(logging.FieldEventType, "hotplug_event"),
		logging.String("action", event.Action),
		logging.String("device", event.Device),
		logging.String("kobj", event.KObj),
	)

	if m.handler != nil {
		m.handler(ctx, event)
	}
}

// deviceName prefers DEVNAME and falls back to the last DEVPATH segment.
func deviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		return devname
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return parts[len(parts)-1]
}
