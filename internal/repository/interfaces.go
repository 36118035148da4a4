package repository

import (
	"context"

	"scuderia-bot/internal/domain"
)

// PickRepository defines the interface for pick persistence. It is the
// single source of truth for who holds which driver.
type PickRepository interface {
	// GetPick retrieves a user's committed pick, or nil if the user
	// has not picked yet
	GetPick(ctx context.Context, userID int64) (*domain.Pick, error)

	// GetAllPicks retrieves every committed pick, most recently
	// updated first
	GetAllPicks(ctx context.Context) ([]domain.Pick, error)

	// GetSelectedDrivers returns the set of driver names currently
	// held by any pick
	GetSelectedDrivers(ctx context.Context) (map[string]struct{}, error)

	// Commit atomically claims a driver for a user, replacing any
	// prior pick the user held. Returns ErrDriverTaken if another
	// user already holds the driver.
	Commit(ctx context.Context, userID int64, alias, team, driver string) (*domain.Pick, error)
}
