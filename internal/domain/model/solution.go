package model

// RaceSelection lists the riders fielded for one race.
type RaceSelection struct {
	RaceID   string   `json:"race_id"`
	Selected []string `json:"selected"`
}

// Solution mirrors the /api/solve payload.
type Solution struct {
	Status      string          `json:"status,omitempty"`
	TotalPoints float64         `json:"total_points"`
	SquadRiders []string        `json:"squad_riders"`
	Races       []RaceSelection `json:"races"`
	Error       string          `json:"error,omitempty"`
}
