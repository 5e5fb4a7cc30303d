/*
Package snapshot defines the per-user data set the engines read.

PURPOSE:
  The analytics and recurrence engines are pure functions over a user's
  habits, completions, time blocks and tasks. A Snapshot is that input, loaded in
  one piece from whatever persistence backs the deployment.

KEY CONCEPTS:
  - Snapshot: Everything one user owns, read at a single point in time
  - Share:    A public code that exposes the owner's summary to a partner
  - Source:   Read-side storage contract (memory, sqlite)
  - Revision: Monotonic per-user counter bumped on every write; readers
              use it to key memoized results

SEE ALSO:
  - codec.go:        Import / export file format
  - store/memory:    In-memory Source
  - store/sqlite:    SQLite Source with the write path
*/
package snapshot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stride/habit-engine/habits"
	"github.com/stride/habit-engine/planner"
)

var (
	// ErrNotFound is returned when a user or share code does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidSnapshot is returned when an import file cannot be decoded.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Share grants read access to the owner's shared summary.
type Share struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Snapshot is one user's complete data set.
type Snapshot struct {
	UserID      string              `json:"userId"`
	UserName    string              `json:"userName"`
	Habits      []habits.Habit      `json:"habits"`
	Completions habits.Completions  `json:"completions"`
	TimeBlocks  []planner.TimeBlock `json:"timeBlocks"`
	Tasks       []planner.Task      `json:"tasks"`
	Shares      []Share             `json:"shares"`
}

// Analytics returns the habits view over this snapshot.
func (s *Snapshot) Analytics() *habits.Analytics {
	return habits.New(s.Habits, s.Completions)
}

// TimeBlock looks up a block by id.
func (s *Snapshot) TimeBlock(id planner.BlockID) (planner.TimeBlock, bool) {
	for _, b := range s.TimeBlocks {
		if b.ID == id {
			return b, true
		}
	}
	return planner.TimeBlock{}, false
}

// Source loads snapshots. Implementations must be safe for concurrent use.
type Source interface {
	LoadSnapshot(ctx context.Context, userID string) (*Snapshot, error)
	ShareByCode(ctx context.Context, code string) (Share, error)
	Revision(ctx context.Context, userID string) (int64, error)
}

// =============================================================================
// SHARE CODES
// =============================================================================

const shareAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ShareCodeLength is the number of characters in a share code.
const ShareCodeLength = 6

// NewShareCode returns a random code of uppercase letters and digits.
func NewShareCode() string {
	id := uuid.New()
	var b strings.Builder
	b.Grow(ShareCodeLength)
	for i := 0; i < ShareCodeLength; i++ {
		b.WriteByte(shareAlphabet[int(id[i])%len(shareAlphabet)])
	}
	return b.String()
}

// NormalizeShareCode upper-cases and trims a user-entered code.
func NormalizeShareCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
