package domain

// Team groups the drivers racing under one constructor name. Teams are
// immutable once a roster has been built.
type Team struct {
	Name    string   `json:"name"`
	Drivers []string `json:"drivers"`
}

// Roster is the full list of teams for the current meeting, sorted by
// team name. An empty roster means the bot is running degraded: picking
// is disabled but the read commands still work.
type Roster struct {
	Teams []Team `json:"teams"`
}

// Empty reports whether no usable roster has been loaded.
func (r Roster) Empty() bool {
	return len(r.Teams) == 0
}

// DriverCount returns the total number of drivers across all teams.
func (r Roster) DriverCount() int {
	n := 0
	for _, t := range r.Teams {
		n += len(t.Drivers)
	}
	return n
}

// Team returns the team with the given name, or nil if the roster does
// not list it.
func (r Roster) Team(name string) *Team {
	for i := range r.Teams {
		if r.Teams[i].Name == name {
			return &r.Teams[i]
		}
	}
	return nil
}
