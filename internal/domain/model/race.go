package model

// RaceResult is a rider's official outcome in a completed race.
type RaceResult struct {
	Rank   int `json:"rank"`
	Points int `json:"points"`
}

// Race is a calendar entry. Date is a display string and not necessarily sortable.
type Race struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Date          string                `json:"date"`
	Class         string                `json:"class"`
	IsCompleted   bool                  `json:"is_completed,omitempty"`
	ActualResults map[string]RaceResult `json:"actual_results,omitempty"`
}

// PointsFor returns the official points scored by riderID, 0 when absent.
func (r Race) PointsFor(riderID string) int {
	return r.ActualResults[riderID].Points
}
