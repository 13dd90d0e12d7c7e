package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"hotdock/internal/display"
	"hotdock/internal/workspace"
)

// fakeWorld simulates i3 workspaces on a set of RandR outputs.
type fakeWorld struct {
	mu         sync.Mutex
	order      []string
	connected  map[string]bool
	workspaces map[int64]string
	focused    int64
	commands   []string
	applied    [][]string

	failSnapshot bool
	failProbe    bool
	failApply    bool
	failCommands bool
}

func newFakeWorld(outputs ...string) *fakeWorld {
	w := &fakeWorld{
		order:      outputs,
		connected:  make(map[string]bool),
		workspaces: make(map[int64]string),
	}
	for _, out := range outputs {
		w.connected[out] = true
	}
	return w
}

func (w *fakeWorld) place(num int64, output string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.workspaces[num] = output
}

func (w *fakeWorld) focus(num int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focused = num
}

// unplug disconnects output. Its workspaces migrate on the next Apply, the
// way i3 reacts once xrandr turns the output off.
func (w *fakeWorld) unplug(output string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected[output] = false
}

func (w *fakeWorld) plug(output string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected[output] = true
}

func (w *fakeWorld) migrateLocked() {
	var target string
	for _, out := range w.order {
		if w.connected[out] {
			target = out
			break
		}
	}
	for num, out := range w.workspaces {
		if !w.connected[out] && target != "" {
			w.workspaces[num] = target
		}
	}
}

func (w *fakeWorld) outputOf(num int64) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.workspaces[num]
}

func (w *fakeWorld) focusedWorkspace() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused
}

func (w *fakeWorld) sentCommands() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.commands...)
}

// Workspaces implements wm.Session. The focused workspace and the most
// recently numbered workspace on each other output are visible.
func (w *fakeWorld) Workspaces(context.Context) ([]workspace.Observation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failSnapshot {
		return nil, errors.New("i3 socket closed")
	}
	focusedOutput := w.workspaces[w.focused]
	visible := make(map[string]int64)
	nums := make([]int64, 0, len(w.workspaces))
	for num := range w.workspaces {
		nums = append(nums, num)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	for _, num := range nums {
		out := w.workspaces[num]
		if out == focusedOutput {
			continue
		}
		if _, ok := visible[out]; !ok {
			visible[out] = num
		}
	}
	observations := make([]workspace.Observation, 0, len(nums))
	for _, num := range nums {
		out := w.workspaces[num]
		observations = append(observations, workspace.Observation{
			Num:     num,
			Output:  out,
			Focused: num == w.focused,
			Visible: num == w.focused || visible[out] == num,
		})
	}
	return observations, nil
}

var (
	moveRe  = regexp.MustCompile(`^\[workspace="(\d+)"\] move workspace to output (\S+)$`)
	focusRe = regexp.MustCompile(`^workspace (\d+)$`)
)

// RunCommand implements wm.Session.
func (w *fakeWorld) RunCommand(_ context.Context, command string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.commands = append(w.commands, command)
	if w.failCommands {
		return errors.New("command rejected")
	}
	if m := moveRe.FindStringSubmatch(command); m != nil {
		num, _ := strconv.ParseInt(m[1], 10, 64)
		if !w.connected[m[2]] {
			return fmt.Errorf("no output %s", m[2])
		}
		w.workspaces[num] = m[2]
		return nil
	}
	if m := focusRe.FindStringSubmatch(command); m != nil {
		num, _ := strconv.ParseInt(m[1], 10, 64)
		if _, ok := w.workspaces[num]; !ok {
			return fmt.Errorf("no workspace %d", num)
		}
		w.focused = num
		return nil
	}
	return fmt.Errorf("unknown command %q", command)
}

// Outputs implements display.Prober.
func (w *fakeWorld) Outputs(context.Context) ([]display.Output, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failProbe {
		return nil, errors.New("cannot open display")
	}
	outputs := make([]display.Output, 0, len(w.order))
	for _, name := range w.order {
		outputs = append(outputs, display.Output{Name: name, Connected: w.connected[name], RandRConnected: w.connected[name]})
	}
	return outputs, nil
}

// IsConnected implements display.Prober.
func (w *fakeWorld) IsConnected(_ context.Context, name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failProbe {
		return false
	}
	return w.connected[name]
}

// Apply implements LayoutApplier.
func (w *fakeWorld) Apply(_ context.Context, args []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.applied = append(w.applied, append([]string(nil), args...))
	if w.failApply {
		return errors.New("xrandr: configure crtc 0 failed")
	}
	w.migrateLocked()
	return nil
}

func (w *fakeWorld) applyCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.applied)
}
