// Package roster owns the canonical team/driver list for the current
// meeting. The roster is loaded once at startup and replaced wholesale
// on manual reload; it is never merged incrementally.
package roster

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"scuderia-bot/internal/domain"
	"scuderia-bot/internal/openf1"
	"scuderia-bot/pkg/logger"
)

// Source provides the flat driver records a roster is built from.
type Source interface {
	FetchDrivers(ctx context.Context) ([]openf1.DriverRecord, error)
}

// Store holds the most recently loaded roster. A failed load keeps the
// previous roster in place; only at first boot can the store be empty.
type Store struct {
	source Source
	logger *logger.Logger

	mu     sync.RWMutex
	roster domain.Roster
}

// NewStore creates a new roster store. The store starts empty; call
// Load before serving pick flows.
func NewStore(source Source, log *logger.Logger) *Store {
	return &Store{source: source, logger: log}
}

// Load fetches the current driver list and replaces the held roster.
// On any fetch failure the previous roster (possibly empty at first
// boot) stays in place and the error is returned to the caller, which
// may retry; the store never retries on its own.
func (s *Store) Load(ctx context.Context) error {
	records, err := s.source.FetchDrivers(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Roster load failed, keeping previous roster")
		return fmt.Errorf("failed to load roster: %w", err)
	}

	roster := Build(records)
	if roster.Empty() {
		s.logger.Warn("Roster load produced no usable teams, keeping previous roster")
		return fmt.Errorf("roster source returned no usable teams")
	}

	s.mu.Lock()
	s.roster = roster
	s.mu.Unlock()

	s.logger.WithFields(map[string]interface{}{
		"teams":   len(roster.Teams),
		"drivers": roster.DriverCount(),
	}).Info("Roster loaded")

	return nil
}

// Current returns the most recently successfully loaded roster. The
// returned value shares no mutable state with the store; teams are
// immutable after load.
func (s *Store) Current() domain.Roster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster
}

// Build groups flat driver records into teams. Records without a team
// name, or with neither name fragment, are dropped. First-seen driver
// order is preserved within a team, drivers are deduplicated per team,
// duplicate team names are merged, and teams are sorted by name.
func Build(records []openf1.DriverRecord) domain.Roster {
	type teamAcc struct {
		name    string
		drivers []string
		seen    map[string]struct{}
	}

	byName := make(map[string]*teamAcc)
	var order []string

	for _, rec := range records {
		teamName := strings.TrimSpace(rec.TeamName)
		driverName := strings.TrimSpace(strings.TrimSpace(rec.FirstName) + " " + strings.TrimSpace(rec.LastName))
		if teamName == "" || driverName == "" {
			continue
		}

		acc, ok := byName[teamName]
		if !ok {
			acc = &teamAcc{name: teamName, seen: make(map[string]struct{})}
			byName[teamName] = acc
			order = append(order, teamName)
		}
		if _, dup := acc.seen[driverName]; dup {
			continue
		}
		acc.seen[driverName] = struct{}{}
		acc.drivers = append(acc.drivers, driverName)
	}

	teams := make([]domain.Team, 0, len(order))
	for _, name := range order {
		acc := byName[name]
		teams = append(teams, domain.Team{Name: acc.name, Drivers: acc.drivers})
	}

	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })

	return domain.Roster{Teams: teams}
}
