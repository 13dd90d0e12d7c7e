package workspace

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"hotdock/internal/logging"
)

// Store holds one TrackedWorkspace per workspace number for the lifetime of
// the process. Entries are never removed.
type Store struct {
	mu      sync.RWMutex
	entries map[int64]TrackedWorkspace
	logger  *slog.Logger
}

// NewStore returns an empty store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		entries: make(map[int64]TrackedWorkspace),
		logger:  logging.NewComponentLogger(logger, "workspace"),
	}
}

// Seed records the initial snapshot with no remembered outputs. Existing
// entries for the same numbers are replaced.
func (s *Store) Seed(observations []Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, obs := range observations {
		s.entries[obs.Num] = TrackedWorkspace{
			Num:     obs.Num,
			Output:  obs.Output,
			Focused: obs.EffectiveFocus(),
		}
	}
	s.logger.Debug("store seeded", logging.Int("workspaces", len(observations)))
}

// Reconcile folds a fresh snapshot into the store under a single write lock.
// Workspaces missing from the snapshot keep their previous entry.
func (s *Store) Reconcile(ctx context.Context, observations []Observation, checker ConnectionChecker) ReconcileResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result ReconcileResult
	for _, obs := range observations {
		next := TrackedWorkspace{
			Num:     obs.Num,
			Output:  obs.Output,
			Focused: obs.EffectiveFocus(),
		}

		prev, ok := s.entries[obs.Num]
		switch {
		case !ok:
			result.Added = append(result.Added, obs.Num)
		case prev.Output == obs.Output:
			next.RememberedOutput = prev.RememberedOutput
			next.WasFocused = prev.WasFocused
			result.Unchanged++
		case checker == nil || !checker.IsConnected(ctx, prev.Output):
			next.RememberedOutput = prev.Output
			next.WasFocused = prev.Focused
			result.Remembered = append(result.Remembered, obs.Num)
			s.logger.Info("workspace left disconnected output",
				logging.Workspace(obs.Num),
				logging.String("from", prev.Output),
				logging.Output(obs.Output),
				logging.Bool("was_focused", prev.Focused),
			)
		default:
			if prev.Pending() {
				result.Cleared = append(result.Cleared, obs.Num)
			}
			s.logger.Debug("workspace moved between connected outputs",
				logging.Workspace(obs.Num),
				logging.String("from", prev.Output),
				logging.Output(obs.Output),
			)
		}
		s.entries[obs.Num] = next
	}
	return result
}

// Get returns the entry for num.
func (s *Store) Get(num int64) (TrackedWorkspace, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[num]
	return entry, ok
}

// Len returns the number of tracked workspaces.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns a copy of every entry in ascending workspace order.
func (s *Store) Snapshot() []TrackedWorkspace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

// Read runs fn with the entries in ascending order while holding the read
// lock, so Reconcile cannot interleave. fn must not call back into the store
// for writes.
func (s *Store) Read(fn func([]TrackedWorkspace)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.sortedLocked())
}

func (s *Store) sortedLocked() []TrackedWorkspace {
	out := make([]TrackedWorkspace, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Num < out[j].Num })
	return out
}
