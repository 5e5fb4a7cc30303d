// Package memory provides an in-memory snapshot.Source (for testing/dev).
package memory

import (
	"context"
	"sync"

	"github.com/stride/habit-engine/habits"
	"github.com/stride/habit-engine/planner"
	"github.com/stride/habit-engine/snapshot"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Store struct {
	mu        sync.RWMutex
	snapshots map[string]*snapshot.Snapshot
	shares    map[string]snapshot.Share
	revisions map[string]int64
}

func New() *Store {
	return &Store{
		snapshots: make(map[string]*snapshot.Snapshot),
		shares:    make(map[string]snapshot.Share),
		revisions: make(map[string]int64),
	}
}

// Put replaces the user's snapshot and indexes its shares.
func (s *Store) Put(_ context.Context, snap *snapshot.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.snapshots[snap.UserID]; ok {
		for _, sh := range old.Shares {
			delete(s.shares, sh.Code)
		}
	}

	stored := clone(snap)
	for i := range stored.Shares {
		stored.Shares[i].UserID = snap.UserID
		s.shares[stored.Shares[i].Code] = stored.Shares[i]
	}
	s.snapshots[snap.UserID] = stored
	s.revisions[snap.UserID]++
}

// LoadSnapshot returns a copy; callers may not mutate the stored snapshot.
func (s *Store) LoadSnapshot(_ context.Context, userID string) (*snapshot.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[userID]
	if !ok {
		return nil, snapshot.ErrNotFound
	}
	return clone(snap), nil
}

func (s *Store) ShareByCode(_ context.Context, code string) (snapshot.Share, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sh, ok := s.shares[snapshot.NormalizeShareCode(code)]
	if !ok {
		return snapshot.Share{}, snapshot.ErrNotFound
	}
	return sh, nil
}

func (s *Store) Revision(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.snapshots[userID]; !ok {
		return 0, snapshot.ErrNotFound
	}
	return s.revisions[userID], nil
}

// ToggleCompletion flips the (habit, day) entry and returns the new state.
func (s *Store) ToggleCompletion(_ context.Context, userID string, id habits.HabitID, dateKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[userID]
	if !ok {
		return false, snapshot.ErrNotFound
	}
	if snap.Completions == nil {
		snap.Completions = make(habits.Completions)
	}
	days := snap.Completions[id]
	if days == nil {
		days = make(map[string]bool)
		snap.Completions[id] = days
	}
	done := !days[dateKey]
	if done {
		days[dateKey] = true
	} else {
		delete(days, dateKey)
	}
	s.revisions[userID]++
	return done, nil
}

func clone(snap *snapshot.Snapshot) *snapshot.Snapshot {
	out := *snap
	out.Habits = append([]habits.Habit(nil), snap.Habits...)
	out.Completions = snap.Completions.Clone()
	out.TimeBlocks = append([]planner.TimeBlock(nil), snap.TimeBlocks...)
	out.Tasks = append([]planner.Task(nil), snap.Tasks...)
	out.Shares = append([]snapshot.Share(nil), snap.Shares...)
	return &out
}
