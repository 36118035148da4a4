package domain

import "time"

// Pick is a user's committed reservation of one driver. One row per
// user; a new commit replaces the previous one in full.
type Pick struct {
	UserID    int64     `json:"user_id"`
	Alias     string    `json:"ea_username"`
	Team      string    `json:"team"`
	Driver    string    `json:"driver"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TeamAvailability pairs a team with the subset of its drivers nobody
// has claimed yet, in roster order.
type TeamAvailability struct {
	Team             string   `json:"team"`
	AvailableDrivers []string `json:"available_drivers"`
}

// TeamChoice is one option offered at the team-selection step, labelled
// with how many of its drivers are still free.
type TeamChoice struct {
	Name           string `json:"name"`
	AvailableCount int    `json:"available_count"`
}

// LeaderboardResponse wraps the full list of picks, most recently
// updated first. An empty board is a reportable state, not an error.
type LeaderboardResponse struct {
	Picks   []Pick `json:"picks"`
	Message string `json:"message,omitempty"`
}

// AvailabilityResponse wraps the availability report. Only teams with
// at least one free driver appear.
type AvailabilityResponse struct {
	Teams   []TeamAvailability `json:"teams"`
	Message string             `json:"message,omitempty"`
}

// UserIdentity is the platform identity extracted from the gateway
// token by the auth middleware.
type UserIdentity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
}
