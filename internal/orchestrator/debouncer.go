package orchestrator

import (
	"sync"
	"time"
)

// debouncer calls fire once after Arm has not been called for the requested
// delay. Each Arm replaces the previous timer.
type debouncer struct {
	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	armed   bool
	stopped bool
	fire    func()
}

func newDebouncer(fire func()) *debouncer {
	return &debouncer{fire: fire}
}

// Arm starts or restarts the timer.
func (d *debouncer) Arm(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.armed = true
	d.timer = time.AfterFunc(delay, func() { d.expire(gen) })
}

func (d *debouncer) expire(gen uint64) {
	d.mu.Lock()
	// A Stop-then-AfterFunc race can deliver a superseded timer.
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.armed = false
	d.timer = nil
	d.mu.Unlock()
	d.fire()
}

// Armed reports whether a timer is waiting to fire.
func (d *debouncer) Armed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

// Stop cancels any pending timer and ignores further Arm calls.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.armed = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
