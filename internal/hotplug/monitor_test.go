package hotplug

import (
	"context"
	"testing"

	"github.com/pilebones/go-udev/netlink"

	"hotdock/internal/config"
)

func TestNewMonitorDefaults(t *testing.T) {
	m := NewMonitor(config.Hotplug{}, nil, nil)
	if m.subsystem != "drm" {
		t.Fatalf("expected drm subsystem, got %q", m.subsystem)
	}
	if m.devtype != "drm_minor" {
		t.Fatalf("expected drm_minor devtype, got %q", m.devtype)
	}

	m = NewMonitor(config.Hotplug{Subsystem: " usb ", Devtype: "usb_device"}, nil, nil)
	if m.subsystem != "usb" || m.devtype != "usb_device" {
		t.Fatalf("unexpected filter %q/%q", m.subsystem, m.devtype)
	}
}

func TestMonitorNilSafety(t *testing.T) {
	var m *Monitor
	if m.Running() {
		t.Error("nil monitor must not report running")
	}
	m.Stop()
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start on nil monitor should return nil, got %v", err)
	}
	if m.EventsSeen() != 0 {
		t.Error("nil monitor must report zero events")
	}
}

func TestMonitorStopStartIdempotency(t *testing.T) {
	m := NewMonitor(config.Hotplug{}, nil, nil)
	m.Stop()
	m.Stop()
	if m.Running() {
		t.Fatal("expected monitor to be stopped")
	}
	// Netlink may be unavailable in the test sandbox; Start must not fail hard.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	m.Stop()
	if m.Running() {
		t.Fatal("expected monitor to be stopped after Stop")
	}
}

func TestBuildMatcher(t *testing.T) {
	m := NewMonitor(config.Hotplug{}, nil, nil)
	matcher := m.buildMatcher()

	drm := map[string]string{"SUBSYSTEM": "drm", "DEVTYPE": "drm_minor"}

	tests := []struct {
		name  string
		event netlink.UEvent
		want  bool
	}{
		{name: "change", event: netlink.UEvent{Action: netlink.CHANGE, Env: drm}, want: true},
		{name: "add", event: netlink.UEvent{Action: netlink.ADD, Env: drm}, want: true},
		{name: "remove", event: netlink.UEvent{Action: netlink.REMOVE, Env: drm}, want: false},
		{name: "other subsystem", event: netlink.UEvent{Action: netlink.CHANGE, Env: map[string]string{"SUBSYSTEM": "block", "DEVTYPE": "drm_minor"}}, want: false},
		{name: "missing devtype", event: netlink.UEvent{Action: netlink.CHANGE, Env: map[string]string{"SUBSYSTEM": "drm"}}, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := matcher.Evaluate(tc.event); got != tc.want {
				t.Fatalf("Evaluate() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHandleEvent(t *testing.T) {
	var received []Event
	m := NewMonitor(config.Hotplug{}, nil, func(_ context.Context, ev Event) {
		received = append(received, ev)
	})

	m.handleEvent(context.Background(), netlink.UEvent{
		Action: netlink.CHANGE,
		KObj:   "/devices/pci0000:00/0000:00:01.0/0000:01:00.0/drm/card0",
		Env: map[string]string{
			"DEVNAME": "dri/card0",
		},
	})
	m.handleEvent(context.Background(), netlink.UEvent{
		Action: netlink.ADD,
		Env: map[string]string{
			"DEVPATH": "/devices/pci0000:00/0000:00:01.0/0000:01:00.0/drm/card1",
		},
	})

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if received[0].Device != "dri/card0" || received[0].Action != "change" {
		t.Fatalf("unexpected first event %+v", received[0])
	}
	if received[1].Device != "card1" {
		t.Fatalf("expected device from DEVPATH, got %q", received[1].Device)
	}
	if m.EventsSeen() != 2 {
		t.Fatalf("expected 2 events seen, got %d", m.EventsSeen())
	}
}
