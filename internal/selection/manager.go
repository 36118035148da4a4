package selection

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"scuderia-bot/internal/availability"
	"scuderia-bot/internal/domain"
	apperrors "scuderia-bot/pkg/errors"
	"scuderia-bot/pkg/logger"
)

const msgStepCompleted = "This step has already been completed. Use /pick to start over."

// Manager owns every in-flight selection session. Flow steps arrive as
// independent HTTP events from the platform gateway, so the map and
// every session it holds are guarded by one mutex: reads go through
// point-in-time copies from get, writes through advance and finish.
// No lock is held while a step waits on the repository.
type Manager struct {
	picker      Picker
	logger      *logger.Logger
	idleTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a new selection manager.
func NewManager(picker Picker, idleTimeout time.Duration, log *logger.Logger) *Manager {
	return &Manager{
		picker:      picker,
		logger:      log,
		idleTimeout: idleTimeout,
		sessions:    make(map[string]*Session),
	}
}

// StartJanitor evicts sessions idle past the configured timeout until
// ctx is cancelled. Eviction only reclaims memory: an evicted session
// has written nothing, exactly like one the user walked away from.
func (m *Manager) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.evictIdle()
			}
		}
	}()
}

func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.idleTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sess := range m.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			m.logger.WithFields(map[string]interface{}{
				"session_id": id,
				"state":      sess.State,
			}).Debug("Evicted idle selection session")
		}
	}
}

// Start opens a new selection session for the user. Before anything is
// offered, the entry guard rejects a degraded roster and an exhausted
// driver pool.
func (m *Manager) Start(ctx context.Context, userID int64) (*domain.StepResult, error) {
	if m.picker.Roster().Empty() {
		return nil, apperrors.NewRosterUnavailableError()
	}

	total, err := m.picker.TotalAvailable(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, apperrors.NewAllDriversTakenError()
	}

	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		State:     domain.StateCollectingAlias,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	m.logger.WithFields(map[string]interface{}{
		"session_id": sess.ID,
		"user_id":    userID,
	}).Debug("Selection session started")

	return &domain.StepResult{
		SessionID: sess.ID,
		State:     domain.StateCollectingAlias,
		Message:   "Welcome to the F1 Scuderia Picker! Please enter your EA username (1-50 characters).",
	}, nil
}

// SubmitAlias records the free-text alias and offers the team choices.
// The pool is re-checked here: it may have emptied while the user was
// typing.
func (m *Manager) SubmitAlias(ctx context.Context, sessionID string, userID int64, alias string) (*domain.StepResult, error) {
	sess, err := m.get(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := sess.expectState(domain.StateCollectingAlias); err != nil {
		return nil, apperrors.NewValidationError(msgStepCompleted, nil)
	}

	if n := utf8.RuneCountInString(alias); n < aliasMinLen || n > aliasMaxLen {
		return nil, apperrors.NewValidationError("EA username must be between 1 and 50 characters.", map[string]interface{}{
			"length": n,
		})
	}

	byTeam, err := m.picker.AvailableByTeam(ctx)
	if err != nil {
		return nil, err
	}
	choices := availability.TeamChoices(byTeam)
	if len(choices) == 0 {
		m.remove(sessionID)
		return nil, apperrors.NewAllDriversTakenError()
	}

	if err := m.advance(sessionID, userID, domain.StateCollectingAlias, domain.StateChoosingTeam, func(s *Session) {
		s.Alias = alias
	}); err != nil {
		return nil, err
	}

	return &domain.StepResult{
		SessionID: sessionID,
		State:     domain.StateChoosingTeam,
		Teams:     choices,
		Message:   "Please select your favorite team:",
	}, nil
}

// ChooseTeam records the team and offers that team's free drivers. If
// the team lost its last free driver since it was offered, the session
// terminates just like a globally exhausted pool.
func (m *Manager) ChooseTeam(ctx context.Context, sessionID string, userID int64, team string) (*domain.StepResult, error) {
	sess, err := m.get(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := sess.expectState(domain.StateChoosingTeam); err != nil {
		return nil, apperrors.NewValidationError(msgStepCompleted, nil)
	}

	if m.picker.Roster().Team(team) == nil {
		return nil, apperrors.NewValidationError("Unknown team. Please choose one of the offered teams.", map[string]interface{}{
			"team": team,
		})
	}

	byTeam, err := m.picker.AvailableByTeam(ctx)
	if err != nil {
		return nil, err
	}
	drivers := driversForTeam(byTeam, team)
	if len(drivers) == 0 {
		m.remove(sessionID)
		return nil, apperrors.NewNoDriversAvailableError(team)
	}

	if err := m.advance(sessionID, userID, domain.StateChoosingTeam, domain.StateChoosingDriver, func(s *Session) {
		s.Team = team
	}); err != nil {
		return nil, err
	}

	return &domain.StepResult{
		SessionID: sessionID,
		State:     domain.StateChoosingDriver,
		Drivers:   drivers,
		Message:   "You have selected " + team + ". Now, please choose your driver:",
	}, nil
}

// ChooseDriver attempts the atomic commit. On success the session ends
// Committed; on a lost race it ends LostRace and the user is told to
// start over. The flow never silently retries or redirects. A storage
// failure leaves the session in place so the commit can be retried.
func (m *Manager) ChooseDriver(ctx context.Context, sessionID string, userID int64, driver string) (*domain.StepResult, error) {
	sess, err := m.get(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := sess.expectState(domain.StateChoosingDriver); err != nil {
		return nil, apperrors.NewValidationError(msgStepCompleted, nil)
	}

	rosterTeam := m.picker.Roster().Team(sess.Team)
	if rosterTeam == nil || !containsDriver(rosterTeam.Drivers, driver) {
		return nil, apperrors.NewValidationError("Unknown driver. Please choose one of the offered drivers.", map[string]interface{}{
			"driver": driver,
		})
	}

	pick, err := m.picker.CommitPick(ctx, userID, sess.Alias, sess.Team, driver)
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok && appErr.Type == apperrors.ErrorTypeDriverTaken {
			m.finish(sessionID, domain.StateLostRace)
		}
		return nil, err
	}

	m.finish(sessionID, domain.StateCommitted)

	return &domain.StepResult{
		SessionID: sessionID,
		State:     domain.StateCommitted,
		Pick:      pick,
		Message:   "Successfully saved your pick!",
	}, nil
}

// get returns a point-in-time copy of the live session owned by
// userID. A stranger's session id and a missing one are
// indistinguishable on purpose. The copy is for validation and
// reads only; mutation goes through advance.
func (m *Manager) get(sessionID string, userID int64) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok || sess.UserID != userID {
		return Session{}, apperrors.NewNotFoundError("Selection session not found or expired. Use /pick to start again.")
	}
	return *sess, nil
}

// advance moves the session from one state to the next. The from-state
// is re-checked under the lock, so of two concurrent requests for the
// same step exactly one performs the transition; the other sees the
// step as already completed.
func (m *Manager) advance(sessionID string, userID int64, from, to domain.SessionState, mutate func(*Session)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok || sess.UserID != userID {
		return apperrors.NewNotFoundError("Selection session not found or expired. Use /pick to start again.")
	}
	if err := sess.expectState(from); err != nil {
		return apperrors.NewValidationError(msgStepCompleted, nil)
	}

	if mutate != nil {
		mutate(sess)
	}
	sess.touch(to)
	return nil
}

// finish marks the terminal state and drops the session.
func (m *Manager) finish(sessionID string, state domain.SessionState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[sessionID]; ok {
		sess.touch(state)
		delete(m.sessions, sessionID)
	}
}

func (m *Manager) remove(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

func driversForTeam(byTeam []domain.TeamAvailability, team string) []string {
	for _, ta := range byTeam {
		if ta.Team == team {
			return ta.AvailableDrivers
		}
	}
	return nil
}

func containsDriver(drivers []string, driver string) bool {
	for _, d := range drivers {
		if d == driver {
			return true
		}
	}
	return false
}
