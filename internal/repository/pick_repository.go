package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"scuderia-bot/internal/domain"
	"scuderia-bot/pkg/database"
)

// pgUniqueViolation is the Postgres error code for a unique constraint
// violation.
const pgUniqueViolation = "23505"

// PostgresPickRepository stores picks in the user_picks table. The
// cross-user driver uniqueness invariant is enforced by the unique
// index on the driver column, so Commit is a single conditional write
// with no application-level check-then-write window.
type PostgresPickRepository struct {
	db *database.PostgresDB
}

// NewPickRepository creates a new pick repository
func NewPickRepository(db *database.PostgresDB) *PostgresPickRepository {
	return &PostgresPickRepository{db: db}
}

// GetPick gets a user's pick by user ID
func (r *PostgresPickRepository) GetPick(ctx context.Context, userID int64) (*domain.Pick, error) {
	var pick domain.Pick
	query := `
		SELECT user_id, ea_username, team, driver, updated_at
		FROM user_picks
		WHERE user_id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(
		&pick.UserID,
		&pick.Alias,
		&pick.Team,
		&pick.Driver,
		&pick.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pick: %w", err)
	}

	return &pick, nil
}

// GetAllPicks gets every pick ordered by updated_at descending, so the
// leaderboard shows the most recent change first.
func (r *PostgresPickRepository) GetAllPicks(ctx context.Context) ([]domain.Pick, error) {
	query := `
		SELECT user_id, ea_username, team, driver, updated_at
		FROM user_picks
		ORDER BY updated_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get picks: %w", err)
	}
	defer rows.Close()

	var picks []domain.Pick
	for rows.Next() {
		var pick domain.Pick
		err := rows.Scan(
			&pick.UserID,
			&pick.Alias,
			&pick.Team,
			&pick.Driver,
			&pick.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		picks = append(picks, pick)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read picks: %w", err)
	}

	return picks, nil
}

// GetSelectedDrivers returns the set of driver names held by any pick
func (r *PostgresPickRepository) GetSelectedDrivers(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT driver FROM user_picks`)
	if err != nil {
		return nil, fmt.Errorf("failed to get selected drivers: %w", err)
	}
	defer rows.Close()

	selected := make(map[string]struct{})
	for rows.Next() {
		var driver string
		if err := rows.Scan(&driver); err != nil {
			return nil, fmt.Errorf("failed to scan driver: %w", err)
		}
		selected[driver] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read drivers: %w", err)
	}

	return selected, nil
}

// Commit claims a driver for a user as one atomic upsert. Replacing the
// user's own row frees their previous driver in the same statement, and
// re-committing the driver a user already holds is a no-op update.
// Two concurrent commits for the same free driver resolve in Postgres:
// one row lands, the loser hits the unique driver index and gets
// ErrDriverTaken.
func (r *PostgresPickRepository) Commit(ctx context.Context, userID int64, alias, team, driver string) (*domain.Pick, error) {
	var pick domain.Pick
	query := `
		INSERT INTO user_picks (user_id, ea_username, team, driver, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id) DO UPDATE
		SET ea_username = EXCLUDED.ea_username,
		    team = EXCLUDED.team,
		    driver = EXCLUDED.driver,
		    updated_at = now()
		RETURNING user_id, ea_username, team, driver, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query, userID, alias, team, driver).Scan(
		&pick.UserID,
		&pick.Alias,
		&pick.Team,
		&pick.Driver,
		&pick.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == "user_picks_driver_key" {
			return nil, ErrDriverTaken
		}
		return nil, fmt.Errorf("failed to commit pick: %w", err)
	}

	return &pick, nil
}
