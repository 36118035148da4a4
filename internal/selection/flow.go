// Package selection drives a user's multi-step pick flow: collect an
// alias, choose a team, choose a driver, then attempt the atomic
// commit. Sessions are ephemeral and in-memory; nothing is persisted
// before the commit step, so an abandoned session leaves no residue.
package selection

import (
	"context"
	"fmt"
	"time"

	"scuderia-bot/internal/domain"
)

const (
	aliasMinLen = 1
	aliasMaxLen = 50
)

// Picker is the slice of the picker service the flow needs: live
// availability for each step's choices and the atomic commit.
type Picker interface {
	Roster() domain.Roster
	TotalAvailable(ctx context.Context) (int, error)
	AvailableByTeam(ctx context.Context) ([]domain.TeamAvailability, error)
	CommitPick(ctx context.Context, userID int64, alias, team, driver string) (*domain.Pick, error)
}

// Session is one user's in-flight selection. It advances strictly
// forward; terminal states remove it from the manager. Fields of a
// live session are guarded by the manager's mutex; steps work on
// copies taken under that lock.
type Session struct {
	ID        string
	UserID    int64
	State     domain.SessionState
	Alias     string
	Team      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Session) touch(state domain.SessionState) {
	s.State = state
	s.UpdatedAt = time.Now()
}

// expectState guards the strictly linear transition order: each step
// accepts exactly one prior state and no state is ever revisited.
func (s *Session) expectState(want domain.SessionState) error {
	if s.State != want {
		return fmt.Errorf("session %s is in state %s, expected %s", s.ID, s.State, want)
	}
	return nil
}
