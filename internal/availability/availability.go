// Package availability derives the free-driver view from a roster and
// the set of drivers currently held by committed picks. All functions
// are pure; the caller supplies a consistent snapshot of both inputs.
package availability

import "scuderia-bot/internal/domain"

// ByTeam filters each team's drivers to those not in taken, preserving
// roster order and intra-team order. Teams with no free drivers are
// included with an empty list; use NonEmpty for presentation contexts
// that omit exhausted teams.
func ByTeam(roster domain.Roster, taken map[string]struct{}) []domain.TeamAvailability {
	out := make([]domain.TeamAvailability, 0, len(roster.Teams))
	for _, team := range roster.Teams {
		free := make([]string, 0, len(team.Drivers))
		for _, d := range team.Drivers {
			if _, held := taken[d]; !held {
				free = append(free, d)
			}
		}
		out = append(out, domain.TeamAvailability{Team: team.Name, AvailableDrivers: free})
	}
	return out
}

// NonEmpty drops teams with zero free drivers. This is the shape used
// by the team-selection step and the availability report.
func NonEmpty(byTeam []domain.TeamAvailability) []domain.TeamAvailability {
	out := make([]domain.TeamAvailability, 0, len(byTeam))
	for _, ta := range byTeam {
		if len(ta.AvailableDrivers) > 0 {
			out = append(out, ta)
		}
	}
	return out
}

// TeamChoices labels each team that still has free drivers with its
// free-driver count, for the team-selection dropdown.
func TeamChoices(byTeam []domain.TeamAvailability) []domain.TeamChoice {
	choices := make([]domain.TeamChoice, 0, len(byTeam))
	for _, ta := range byTeam {
		if len(ta.AvailableDrivers) == 0 {
			continue
		}
		choices = append(choices, domain.TeamChoice{
			Name:           ta.Team,
			AvailableCount: len(ta.AvailableDrivers),
		})
	}
	return choices
}

// Total is the global free-driver count: the roster's driver total
// minus every held driver. A pick whose driver is no longer on the
// current roster still counts against availability (it holds a seat a
// reload removed); the result is clamped at zero so such orphaned
// picks can never drive the count negative.
func Total(roster domain.Roster, takenCount int) int {
	n := roster.DriverCount() - takenCount
	if n < 0 {
		return 0
	}
	return n
}
