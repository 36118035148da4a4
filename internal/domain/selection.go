package domain

// SessionState names a step of the pick selection flow. The flow is
// strictly linear; no state is ever revisited.
type SessionState string

const (
	StateCollectingAlias SessionState = "collecting_alias"
	StateChoosingTeam    SessionState = "choosing_team"
	StateChoosingDriver  SessionState = "choosing_driver"
	StateCommitted       SessionState = "committed"
	StateLostRace        SessionState = "lost_race"
)

// AliasRequest carries the free-text alias for the first flow step.
type AliasRequest struct {
	Alias string `json:"alias"`
}

// TeamRequest carries the chosen team name.
type TeamRequest struct {
	Team string `json:"team"`
}

// DriverRequest carries the chosen driver name for the commit step.
type DriverRequest struct {
	Driver string `json:"driver"`
}

// StepResult is what a flow transition hands back to the presentation
// layer: the next state plus whatever that state needs rendered.
type StepResult struct {
	SessionID string       `json:"session_id"`
	State     SessionState `json:"state"`
	Teams     []TeamChoice `json:"teams,omitempty"`
	Drivers   []string     `json:"drivers,omitempty"`
	Pick      *Pick        `json:"pick,omitempty"`
	Message   string       `json:"message,omitempty"`
}
