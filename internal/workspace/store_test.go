package workspace_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotdock/internal/logging"
	"hotdock/internal/workspace"
)

type connectedSet map[string]bool

func (c connectedSet) IsConnected(_ context.Context, name string) bool {
	return c[name]
}

func newStore(t *testing.T, seed ...workspace.Observation) *workspace.Store {
	t.Helper()
	store := workspace.NewStore(logging.NewNop())
	store.Seed(seed)
	return store
}

func TestSeedUsesEffectiveFocus(t *testing.T) {
	store := newStore(t,
		workspace.Observation{Num: 1, Output: "HDMI-A-0", Focused: true},
		workspace.Observation{Num: 2, Output: "DVI-D-0", Visible: true},
		workspace.Observation{Num: 3, Output: "DVI-D-0"},
	)

	entries := store.Snapshot()
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Focused)
	assert.True(t, entries[1].Focused, "visible workspace counts as focused")
	assert.False(t, entries[2].Focused)
	for _, entry := range entries {
		assert.Empty(t, entry.RememberedOutput)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	store := newStore(t,
		workspace.Observation{Num: 1, Output: "HDMI-A-0", Focused: true},
		workspace.Observation{Num: 2, Output: "DVI-D-0", Visible: true},
	)
	ctx := context.Background()
	moved := []workspace.Observation{
		{Num: 1, Output: "HDMI-A-0", Focused: true},
		{Num: 2, Output: "HDMI-A-0"},
	}
	checker := connectedSet{"HDMI-A-0": true}

	store.Reconcile(ctx, moved, checker)
	first := store.Snapshot()
	result := store.Reconcile(ctx, moved, checker)
	second := store.Snapshot()

	assert.Equal(t, first, second)
	assert.False(t, result.Changed())
	assert.Equal(t, 2, result.Unchanged)
}

func TestReconcileRemembersOnlyDisconnectedOutputs(t *testing.T) {
	ctx := context.Background()

	t.Run("old output disconnected", func(t *testing.T) {
		store := newStore(t, workspace.Observation{Num: 2, Output: "DVI-D-0", Visible: true})
		result := store.Reconcile(ctx, []workspace.Observation{{Num: 2, Output: "HDMI-A-0"}}, connectedSet{"HDMI-A-0": true})

		entry, ok := store.Get(2)
		require.True(t, ok)
		assert.Equal(t, "HDMI-A-0", entry.Output)
		assert.Equal(t, "DVI-D-0", entry.RememberedOutput)
		assert.True(t, entry.WasFocused)
		assert.False(t, entry.Focused)
		assert.Equal(t, []int64{2}, result.Remembered)
	})

	t.Run("old output still connected", func(t *testing.T) {
		store := newStore(t, workspace.Observation{Num: 2, Output: "DVI-D-0"})
		store.Reconcile(ctx, []workspace.Observation{{Num: 2, Output: "HDMI-A-0"}}, connectedSet{"HDMI-A-0": true, "DVI-D-0": true})

		entry, _ := store.Get(2)
		assert.Empty(t, entry.RememberedOutput)
		assert.False(t, entry.WasFocused)
	})

	t.Run("unchanged output never sets memory", func(t *testing.T) {
		store := newStore(t, workspace.Observation{Num: 4, Output: "DVI-D-0"})
		store.Reconcile(ctx, []workspace.Observation{{Num: 4, Output: "DVI-D-0"}}, connectedSet{})

		entry, _ := store.Get(4)
		assert.Empty(t, entry.RememberedOutput)
	})

	t.Run("nil checker reads as disconnected", func(t *testing.T) {
		store := newStore(t, workspace.Observation{Num: 5, Output: "DP-1"})
		store.Reconcile(ctx, []workspace.Observation{{Num: 5, Output: "DP-2"}}, nil)

		entry, _ := store.Get(5)
		assert.Equal(t, "DP-1", entry.RememberedOutput)
	})
}

func TestReconcileCarriesMemoryWhileOutputUnchanged(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, workspace.Observation{Num: 3, Output: "DVI-D-0", Focused: true})
	store.Reconcile(ctx, []workspace.Observation{{Num: 3, Output: "HDMI-A-0"}}, connectedSet{"HDMI-A-0": true})

	store.Reconcile(ctx, []workspace.Observation{{Num: 3, Output: "HDMI-A-0", Focused: true}}, connectedSet{"HDMI-A-0": true})

	entry, _ := store.Get(3)
	assert.Equal(t, "DVI-D-0", entry.RememberedOutput)
	assert.True(t, entry.WasFocused, "was_focused is not refreshed while output is unchanged")
	assert.True(t, entry.Focused)
}

func TestManualMoveClearsMemory(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, workspace.Observation{Num: 3, Output: "DVI-D-0"})
	store.Reconcile(ctx, []workspace.Observation{{Num: 3, Output: "HDMI-A-0"}}, connectedSet{"HDMI-A-0": true})

	// DVI returns; the user moves workspace 3 to DP-1 by hand first.
	checker := connectedSet{"HDMI-A-0": true, "DVI-D-0": true, "DP-1": true}
	result := store.Reconcile(ctx, []workspace.Observation{{Num: 3, Output: "DP-1"}}, checker)

	entry, _ := store.Get(3)
	assert.Equal(t, "DP-1", entry.Output)
	assert.Empty(t, entry.RememberedOutput)
	assert.False(t, entry.WasFocused)
	assert.Equal(t, []int64{3}, result.Cleared)
}

func TestReconcileLeavesAbsentEntriesUntouched(t *testing.T) {
	ctx := context.Background()
	store := newStore(t,
		workspace.Observation{Num: 1, Output: "HDMI-A-0"},
		workspace.Observation{Num: 7, Output: "DVI-D-0", Focused: true},
	)

	result := store.Reconcile(ctx, []workspace.Observation{
		{Num: 1, Output: "HDMI-A-0"},
		{Num: 9, Output: "HDMI-A-0", Focused: true},
	}, connectedSet{"HDMI-A-0": true})

	assert.Equal(t, []int64{9}, result.Added)
	assert.Equal(t, 3, store.Len())
	seven, ok := store.Get(7)
	require.True(t, ok)
	assert.Equal(t, workspace.TrackedWorkspace{Num: 7, Output: "DVI-D-0", Focused: true}, seven)
	nine, _ := store.Get(9)
	assert.Empty(t, nine.RememberedOutput)
}

func TestReadIteratesInOrder(t *testing.T) {
	store := newStore(t,
		workspace.Observation{Num: 10, Output: "A"},
		workspace.Observation{Num: 2, Output: "B"},
		workspace.Observation{Num: 5, Output: "A"},
	)
	var nums []int64
	store.Read(func(entries []workspace.TrackedWorkspace) {
		for _, entry := range entries {
			nums = append(nums, entry.Num)
		}
	})
	assert.Equal(t, []int64{2, 5, 10}, nums)
}

func TestConnectionCheckerFunc(t *testing.T) {
	var asked string
	checker := workspace.ConnectionCheckerFunc(func(_ context.Context, name string) bool {
		asked = name
		return true
	})
	assert.True(t, checker.IsConnected(context.Background(), "DP-3"))
	assert.Equal(t, "DP-3", asked)
}
