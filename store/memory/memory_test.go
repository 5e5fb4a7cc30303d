package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stride/habit-engine/habits"
	"github.com/stride/habit-engine/snapshot"
	"github.com/stride/habit-engine/store/memory"
)

func seed() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		UserID:      "u1",
		UserName:    "Sam",
		Habits:      []habits.Habit{{ID: "read", Name: "Read", Frequency: habits.FrequencyDaily}},
		Completions: habits.Completions{"read": {"2025-01-10": true}},
		Shares:      []snapshot.Share{{ID: "s1", Code: "ABC123", Name: "Partner"}},
	}
}

func TestStore_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	s.Put(ctx, seed())

	snap, err := s.LoadSnapshot(ctx, "u1")
	require.NoError(t, err)
	snap.Completions["read"]["2025-01-11"] = true

	again, err := s.LoadSnapshot(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, again.Completions.Has("read", "2025-01-11"))
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, err := s.LoadSnapshot(ctx, "nobody")
	assert.ErrorIs(t, err, snapshot.ErrNotFound)
	_, err = s.ShareByCode(ctx, "ZZZZZZ")
	assert.ErrorIs(t, err, snapshot.ErrNotFound)
	_, err = s.Revision(ctx, "nobody")
	assert.ErrorIs(t, err, snapshot.ErrNotFound)
}

func TestStore_ShareLookupIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	s.Put(ctx, seed())

	sh, err := s.ShareByCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "u1", sh.UserID)

	// Replacing the snapshot drops shares it no longer carries
	next := seed()
	next.Shares = nil
	s.Put(ctx, next)
	_, err = s.ShareByCode(ctx, "ABC123")
	assert.ErrorIs(t, err, snapshot.ErrNotFound)
}

func TestStore_ToggleCompletionBumpsRevision(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	s.Put(ctx, seed())
	before, err := s.Revision(ctx, "u1")
	require.NoError(t, err)

	// WHEN: Toggling an existing completion off, then on again
	done, err := s.ToggleCompletion(ctx, "u1", "read", "2025-01-10")
	require.NoError(t, err)
	assert.False(t, done)

	done, err = s.ToggleCompletion(ctx, "u1", "read", "2025-01-10")
	require.NoError(t, err)
	assert.True(t, done)

	// THEN: Each write moved the revision forward
	after, err := s.Revision(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, before+2, after)
}
