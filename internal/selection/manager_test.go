package selection

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scuderia-bot/internal/availability"
	"scuderia-bot/internal/domain"
	apperrors "scuderia-bot/pkg/errors"
	"scuderia-bot/pkg/logger"
)

// stubPicker backs the flow with an in-memory picks map so tests can
// shift availability between steps, the way concurrent users would.
type stubPicker struct {
	roster    domain.Roster
	taken     map[string]struct{}
	commitErr error
	committed []domain.Pick
}

func newStubPicker() *stubPicker {
	return &stubPicker{
		roster: domain.Roster{Teams: []domain.Team{
			{Name: "Ferrari", Drivers: []string{"Charles Leclerc", "Lewis Hamilton"}},
			{Name: "Red Bull Racing", Drivers: []string{"Max Verstappen", "Yuki Tsunoda"}},
		}},
		taken: make(map[string]struct{}),
	}
}

func (p *stubPicker) Roster() domain.Roster { return p.roster }

func (p *stubPicker) TotalAvailable(ctx context.Context) (int, error) {
	return availability.Total(p.roster, len(p.taken)), nil
}

func (p *stubPicker) AvailableByTeam(ctx context.Context) ([]domain.TeamAvailability, error) {
	return availability.ByTeam(p.roster, p.taken), nil
}

func (p *stubPicker) CommitPick(ctx context.Context, userID int64, alias, team, driver string) (*domain.Pick, error) {
	if p.commitErr != nil {
		return nil, p.commitErr
	}
	if _, held := p.taken[driver]; held {
		return nil, apperrors.NewDriverTakenError(driver)
	}
	p.taken[driver] = struct{}{}
	pick := domain.Pick{UserID: userID, Alias: alias, Team: team, Driver: driver, UpdatedAt: time.Now()}
	p.committed = append(p.committed, pick)
	return &pick, nil
}

func newTestManager(t *testing.T, picker Picker) *Manager {
	t.Helper()
	log, err := logger.New("error")
	require.NoError(t, err)
	return NewManager(picker, 15*time.Minute, log)
}

func requireAppError(t *testing.T, err error, wantType apperrors.ErrorType) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok, "expected *AppError, got %T: %v", err, err)
	assert.Equal(t, wantType, appErr.Type)
	return appErr
}

// walkToDriverStep runs a session up to ChoosingDriver for the team.
func walkToDriverStep(t *testing.T, m *Manager, userID int64, alias, team string) string {
	t.Helper()
	ctx := context.Background()

	start, err := m.Start(ctx, userID)
	require.NoError(t, err)

	_, err = m.SubmitAlias(ctx, start.SessionID, userID, alias)
	require.NoError(t, err)

	_, err = m.ChooseTeam(ctx, start.SessionID, userID, team)
	require.NoError(t, err)

	return start.SessionID
}

func TestStart_DegradedRoster(t *testing.T) {
	picker := newStubPicker()
	picker.roster = domain.Roster{}
	m := newTestManager(t, picker)

	_, err := m.Start(context.Background(), 1)
	requireAppError(t, err, apperrors.ErrorTypeRosterUnavailable)
}

func TestStart_PoolExhausted(t *testing.T) {
	picker := newStubPicker()
	for _, team := range picker.roster.Teams {
		for _, d := range team.Drivers {
			picker.taken[d] = struct{}{}
		}
	}
	m := newTestManager(t, picker)

	_, err := m.Start(context.Background(), 1)
	requireAppError(t, err, apperrors.ErrorTypeAllDriversTaken)
}

func TestStart_OpensSession(t *testing.T) {
	m := newTestManager(t, newStubPicker())

	res, err := m.Start(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, domain.StateCollectingAlias, res.State)
}

func TestSubmitAlias_LengthValidation(t *testing.T) {
	tests := []struct {
		name  string
		alias string
		valid bool
	}{
		{name: "empty", alias: "", valid: false},
		{name: "single character", alias: "x", valid: true},
		{name: "fifty characters", alias: strings.Repeat("a", 50), valid: true},
		{name: "fifty-one characters", alias: strings.Repeat("a", 51), valid: false},
		{name: "multibyte counted as runes", alias: strings.Repeat("ü", 50), valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t, newStubPicker())
			start, err := m.Start(context.Background(), 1)
			require.NoError(t, err)

			res, err := m.SubmitAlias(context.Background(), start.SessionID, 1, tt.alias)
			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, domain.StateChoosingTeam, res.State)
			} else {
				requireAppError(t, err, apperrors.ErrorTypeValidation)
			}
		})
	}
}

func TestSubmitAlias_PoolEmptiedWhileTyping(t *testing.T) {
	picker := newStubPicker()
	m := newTestManager(t, picker)

	start, err := m.Start(context.Background(), 1)
	require.NoError(t, err)

	// Other users drain the pool between Start and the alias step.
	for _, team := range picker.roster.Teams {
		for _, d := range team.Drivers {
			picker.taken[d] = struct{}{}
		}
	}

	_, err = m.SubmitAlias(context.Background(), start.SessionID, 1, "racer")
	requireAppError(t, err, apperrors.ErrorTypeAllDriversTaken)

	// The session is gone; the flow cannot be resumed.
	_, err = m.SubmitAlias(context.Background(), start.SessionID, 1, "racer")
	requireAppError(t, err, apperrors.ErrorTypeNotFound)
}

func TestSubmitAlias_OffersTeamsWithCounts(t *testing.T) {
	picker := newStubPicker()
	picker.taken["Charles Leclerc"] = struct{}{}
	m := newTestManager(t, picker)

	start, err := m.Start(context.Background(), 1)
	require.NoError(t, err)

	res, err := m.SubmitAlias(context.Background(), start.SessionID, 1, "racer")
	require.NoError(t, err)
	require.Len(t, res.Teams, 2)
	assert.Equal(t, domain.TeamChoice{Name: "Ferrari", AvailableCount: 1}, res.Teams[0])
	assert.Equal(t, domain.TeamChoice{Name: "Red Bull Racing", AvailableCount: 2}, res.Teams[1])
}

func TestSubmitAlias_ExhaustedTeamNotOffered(t *testing.T) {
	picker := newStubPicker()
	picker.taken["Charles Leclerc"] = struct{}{}
	picker.taken["Lewis Hamilton"] = struct{}{}
	m := newTestManager(t, picker)

	start, err := m.Start(context.Background(), 1)
	require.NoError(t, err)

	res, err := m.SubmitAlias(context.Background(), start.SessionID, 1, "racer")
	require.NoError(t, err)
	require.Len(t, res.Teams, 1)
	assert.Equal(t, "Red Bull Racing", res.Teams[0].Name)
}

func TestChooseTeam_UnknownTeam(t *testing.T) {
	m := newTestManager(t, newStubPicker())
	start, err := m.Start(context.Background(), 1)
	require.NoError(t, err)
	_, err = m.SubmitAlias(context.Background(), start.SessionID, 1, "racer")
	require.NoError(t, err)

	_, err = m.ChooseTeam(context.Background(), start.SessionID, 1, "Brawn GP")
	requireAppError(t, err, apperrors.ErrorTypeValidation)
}

func TestChooseTeam_TeamDrainedAfterOffer(t *testing.T) {
	picker := newStubPicker()
	m := newTestManager(t, picker)

	start, err := m.Start(context.Background(), 1)
	require.NoError(t, err)
	_, err = m.SubmitAlias(context.Background(), start.SessionID, 1, "racer")
	require.NoError(t, err)

	// Ferrari loses both drivers a moment after being offered.
	picker.taken["Charles Leclerc"] = struct{}{}
	picker.taken["Lewis Hamilton"] = struct{}{}

	_, err = m.ChooseTeam(context.Background(), start.SessionID, 1, "Ferrari")
	requireAppError(t, err, apperrors.ErrorTypeAllDriversTaken)

	_, err = m.ChooseTeam(context.Background(), start.SessionID, 1, "Red Bull Racing")
	requireAppError(t, err, apperrors.ErrorTypeNotFound)
}

func TestChooseTeam_OffersOnlyFreeDrivers(t *testing.T) {
	picker := newStubPicker()
	picker.taken["Max Verstappen"] = struct{}{}
	m := newTestManager(t, picker)

	start, err := m.Start(context.Background(), 1)
	require.NoError(t, err)
	_, err = m.SubmitAlias(context.Background(), start.SessionID, 1, "racer")
	require.NoError(t, err)

	res, err := m.ChooseTeam(context.Background(), start.SessionID, 1, "Red Bull Racing")
	require.NoError(t, err)
	assert.Equal(t, domain.StateChoosingDriver, res.State)
	assert.Equal(t, []string{"Yuki Tsunoda"}, res.Drivers)
}

func TestChooseDriver_Commits(t *testing.T) {
	picker := newStubPicker()
	m := newTestManager(t, picker)
	sessionID := walkToDriverStep(t, m, 1, "racer", "Ferrari")

	res, err := m.ChooseDriver(context.Background(), sessionID, 1, "Charles Leclerc")
	require.NoError(t, err)
	assert.Equal(t, domain.StateCommitted, res.State)
	require.NotNil(t, res.Pick)
	assert.Equal(t, int64(1), res.Pick.UserID)
	assert.Equal(t, "racer", res.Pick.Alias)
	assert.Equal(t, "Ferrari", res.Pick.Team)
	assert.Equal(t, "Charles Leclerc", res.Pick.Driver)

	// Terminal: the session no longer exists.
	_, err = m.ChooseDriver(context.Background(), sessionID, 1, "Lewis Hamilton")
	requireAppError(t, err, apperrors.ErrorTypeNotFound)
}

func TestChooseDriver_UnknownDriver(t *testing.T) {
	m := newTestManager(t, newStubPicker())
	sessionID := walkToDriverStep(t, m, 1, "racer", "Ferrari")

	_, err := m.ChooseDriver(context.Background(), sessionID, 1, "Max Verstappen")
	requireAppError(t, err, apperrors.ErrorTypeValidation)
}

func TestChooseDriver_LostRace(t *testing.T) {
	picker := newStubPicker()
	m := newTestManager(t, picker)
	sessionID := walkToDriverStep(t, m, 1, "racer", "Ferrari")

	// Another user grabs the driver right before the commit.
	picker.taken["Charles Leclerc"] = struct{}{}

	_, err := m.ChooseDriver(context.Background(), sessionID, 1, "Charles Leclerc")
	appErr := requireAppError(t, err, apperrors.ErrorTypeDriverTaken)
	assert.Contains(t, appErr.Message, "Charles Leclerc")

	// The flow does not retry or redirect; the session is over.
	_, err = m.ChooseDriver(context.Background(), sessionID, 1, "Lewis Hamilton")
	requireAppError(t, err, apperrors.ErrorTypeNotFound)
}

func TestTwoSessions_RaceForSameDriver(t *testing.T) {
	picker := newStubPicker()
	m := newTestManager(t, picker)

	first := walkToDriverStep(t, m, 1, "alpha", "Ferrari")
	second := walkToDriverStep(t, m, 2, "bravo", "Ferrari")

	_, err := m.ChooseDriver(context.Background(), first, 1, "Charles Leclerc")
	require.NoError(t, err)

	_, err = m.ChooseDriver(context.Background(), second, 2, "Charles Leclerc")
	requireAppError(t, err, apperrors.ErrorTypeDriverTaken)

	require.Len(t, picker.committed, 1)
	assert.Equal(t, int64(1), picker.committed[0].UserID)
}

func TestSession_OwnershipEnforced(t *testing.T) {
	m := newTestManager(t, newStubPicker())
	start, err := m.Start(context.Background(), 1)
	require.NoError(t, err)

	_, err = m.SubmitAlias(context.Background(), start.SessionID, 99, "intruder")
	requireAppError(t, err, apperrors.ErrorTypeNotFound)
}

func TestNoBackwardTransitions(t *testing.T) {
	m := newTestManager(t, newStubPicker())
	start, err := m.Start(context.Background(), 1)
	require.NoError(t, err)

	_, err = m.SubmitAlias(context.Background(), start.SessionID, 1, "racer")
	require.NoError(t, err)

	// Repeating the alias step after advancing is rejected.
	_, err = m.SubmitAlias(context.Background(), start.SessionID, 1, "racer2")
	requireAppError(t, err, apperrors.ErrorTypeValidation)
}

func TestAbandonedSessionLeavesNoResidue(t *testing.T) {
	picker := newStubPicker()
	m := newTestManager(t, picker)

	sessionID := walkToDriverStep(t, m, 1, "racer", "Ferrari")
	_ = sessionID // user walks away at the driver step

	assert.Empty(t, picker.committed)
	total, err := picker.TotalAvailable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, total)
}

func TestEvictIdle(t *testing.T) {
	m := newTestManager(t, newStubPicker())
	start, err := m.Start(context.Background(), 1)
	require.NoError(t, err)

	m.mu.Lock()
	m.sessions[start.SessionID].UpdatedAt = time.Now().Add(-time.Hour)
	m.mu.Unlock()

	m.evictIdle()

	_, err = m.SubmitAlias(context.Background(), start.SessionID, 1, "racer")
	requireAppError(t, err, apperrors.ErrorTypeNotFound)
}

func TestSubmitAlias_ConcurrentDoubleSubmit(t *testing.T) {
	m := newTestManager(t, newStubPicker())
	start, err := m.Start(context.Background(), 1)
	require.NoError(t, err)

	// A gateway retry can deliver the same step twice at once. Exactly
	// one submission may perform the transition.
	aliases := []string{"first", "second", "third", "fourth"}
	results := make([]error, len(aliases))

	var wg sync.WaitGroup
	for i, alias := range aliases {
		wg.Add(1)
		go func(i int, alias string) {
			defer wg.Done()
			_, err := m.SubmitAlias(context.Background(), start.SessionID, 1, alias)
			results[i] = err
		}(i, alias)
	}
	wg.Wait()

	var won []string
	for i, err := range results {
		if err == nil {
			won = append(won, aliases[i])
			continue
		}
		requireAppError(t, results[i], apperrors.ErrorTypeValidation)
	}
	require.Len(t, won, 1)

	m.mu.Lock()
	sess := m.sessions[start.SessionID]
	m.mu.Unlock()
	require.NotNil(t, sess)
	assert.Equal(t, domain.StateChoosingTeam, sess.State)
	assert.Equal(t, won[0], sess.Alias)
}

func TestChooseTeam_ConcurrentDoubleSubmit(t *testing.T) {
	m := newTestManager(t, newStubPicker())
	start, err := m.Start(context.Background(), 1)
	require.NoError(t, err)
	_, err = m.SubmitAlias(context.Background(), start.SessionID, 1, "racer")
	require.NoError(t, err)

	teams := []string{"Ferrari", "Red Bull Racing"}
	results := make([]error, len(teams))

	var wg sync.WaitGroup
	for i, team := range teams {
		wg.Add(1)
		go func(i int, team string) {
			defer wg.Done()
			_, err := m.ChooseTeam(context.Background(), start.SessionID, 1, team)
			results[i] = err
		}(i, team)
	}
	wg.Wait()

	var won []string
	for i, err := range results {
		if err == nil {
			won = append(won, teams[i])
			continue
		}
		requireAppError(t, results[i], apperrors.ErrorTypeValidation)
	}
	require.Len(t, won, 1)

	m.mu.Lock()
	sess := m.sessions[start.SessionID]
	m.mu.Unlock()
	require.NotNil(t, sess)
	assert.Equal(t, domain.StateChoosingDriver, sess.State)
	assert.Equal(t, won[0], sess.Team)
}
