// picksadmin is the operator tool for the user_picks table. It runs
// between engine runs and acts on the persisted state directly:
//
//	go run ./cmd/picksadmin init    create or upgrade the schema
//	go run ./cmd/picksadmin reset   delete every pick
//	go run ./cmd/picksadmin seed    load the historical leaderboard
//	go run ./cmd/picksadmin stats   print table statistics
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/picksadmin [init|reset|seed|stats]")
		os.Exit(1)
	}

	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "init":
		if err := initSchema(ctx, conn); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		fmt.Println("Schema initialized successfully")

	case "reset":
		removed, err := resetPicks(ctx, conn)
		if err != nil {
			log.Fatalf("Failed to reset picks: %v", err)
		}
		fmt.Printf("Database reset successful: removed %d user pick(s)\n", removed)
		fmt.Println("Users can now start fresh with /pick")

	case "seed":
		inserted, err := seedPicks(ctx, conn)
		if err != nil {
			log.Fatalf("Failed to seed picks: %v", err)
		}
		fmt.Printf("Seeded %d pick(s)\n", inserted)

	case "stats":
		if err := printStats(ctx, conn); err != nil {
			log.Fatalf("Failed to read stats: %v", err)
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Usage: go run ./cmd/picksadmin [init|reset|seed|stats]")
		os.Exit(1)
	}
}

// initSchema mirrors the engine's startup bootstrap so the table can
// be prepared before the bot ever runs. Every statement is idempotent.
func initSchema(ctx context.Context, conn *pgx.Conn) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS user_picks (
			user_id BIGINT PRIMARY KEY,
			ea_username TEXT NOT NULL DEFAULT '',
			team TEXT NOT NULL,
			driver TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`ALTER TABLE user_picks ADD COLUMN IF NOT EXISTS ea_username TEXT NOT NULL DEFAULT ''`,
		`CREATE UNIQUE INDEX IF NOT EXISTS user_picks_driver_key ON user_picks (driver)`,
	}

	for _, stmt := range statements {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func resetPicks(ctx context.Context, conn *pgx.Conn) (int64, error) {
	tag, err := conn.Exec(ctx, `DELETE FROM user_picks`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// seedPicks loads the leaderboard as it stood before the bot was
// deployed, so returning players keep their drivers.
func seedPicks(ctx context.Context, conn *pgx.Conn) (int, error) {
	seed := []struct {
		userID int64
		alias  string
		team   string
		driver string
	}{
		{100000001, "gcadventure", "Aston Martin", "Fernando Alonso"},
		{100000002, "jphshield23", "Kick Sauber", "Nico Hulkenberg"},
		{100000003, "gacrmomo", "Aston Martin", "Lance Stroll"},
		{100000004, "jamesngoose69", "Red Bull Racing", "Max Verstappen"},
		{100000005, "lotusteve", "Kick Sauber", "Gabriel Bortoleto"},
		{100000006, "greyoak2462", "McLaren", "Oscar Piastri"},
		{100000007, "boonie7474", "McLaren", "Lando Norris"},
		{100000008, "scottyboy2373692", "Mercedes", "George Russell"},
	}

	inserted := 0
	for _, row := range seed {
		_, err := conn.Exec(ctx, `
			INSERT INTO user_picks (user_id, ea_username, team, driver, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (user_id) DO UPDATE
			SET ea_username = EXCLUDED.ea_username,
			    team = EXCLUDED.team,
			    driver = EXCLUDED.driver,
			    updated_at = now()
		`, row.userID, row.alias, row.team, row.driver)
		if err != nil {
			return inserted, fmt.Errorf("failed to seed pick for %s: %w", row.alias, err)
		}
		inserted++
	}
	return inserted, nil
}

func printStats(ctx context.Context, conn *pgx.Conn) error {
	var totalPicks, uniqueTeams, uniqueDrivers int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM user_picks`).Scan(&totalPicks); err != nil {
		return err
	}
	if err := conn.QueryRow(ctx, `SELECT COUNT(DISTINCT team) FROM user_picks`).Scan(&uniqueTeams); err != nil {
		return err
	}
	if err := conn.QueryRow(ctx, `SELECT COUNT(DISTINCT driver) FROM user_picks`).Scan(&uniqueDrivers); err != nil {
		return err
	}

	fmt.Println("Database statistics")
	fmt.Printf("  Total picks:    %d\n", totalPicks)
	fmt.Printf("  Unique teams:   %d\n", uniqueTeams)
	fmt.Printf("  Unique drivers: %d\n", uniqueDrivers)

	rows, err := conn.Query(ctx, `
		SELECT ea_username, team, driver, updated_at
		FROM user_picks
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	fmt.Println("  Picks (most recent first):")
	for rows.Next() {
		var alias, team, driver string
		var updatedAt time.Time
		if err := rows.Scan(&alias, &team, &driver, &updatedAt); err != nil {
			return err
		}
		fmt.Printf("    %-20s %-18s %-22s %s\n", alias, team, driver, updatedAt.Format("2006-01-02 15:04:05"))
	}
	return rows.Err()
}
