// Package model contains domain models passed between layers.
package model

// UnrankedSentinel is the rank assigned to riders without a forecast for a race.
const UnrankedSentinel = 999

// Rider is a professional rider as served by the data provider.
// Optional numeric fields are pointers so that "absent" survives a round trip.
type Rider struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	GlobalScore      int                `json:"global_score"`
	Starts           []string           `json:"starts"`
	TopRanks         map[string]int     `json:"top_ranks"`
	SporzaPrice      *float64           `json:"sporza_price,omitempty"`
	SporzaPopularity *float64           `json:"sporza_popularity,omitempty"`
	ROI              *float64           `json:"roi,omitempty"`
	Team             string             `json:"team,omitempty"`
	TeamLogo         string             `json:"team_logo,omitempty"`
	Expertises       map[string]float64 `json:"expertises,omitempty"`
	HistoricResults  []string           `json:"historic_results,omitempty"`
}

// Price returns the rider's cost in millions; riders without a price are free.
func (r Rider) Price() float64 {
	if r.SporzaPrice == nil {
		return 0
	}
	return *r.SporzaPrice
}

// ROIValue returns the score-per-cost ratio, 0 when unknown.
func (r Rider) ROIValue() float64 {
	if r.ROI == nil {
		return 0
	}
	return *r.ROI
}

// RankIn returns the forecast rank for raceID, or UnrankedSentinel.
// A zero rank is not a valid rank and counts as missing.
func (r Rider) RankIn(raceID string) int {
	if rank, ok := r.TopRanks[raceID]; ok && rank > 0 {
		return rank
	}
	return UnrankedSentinel
}

// IsRankedIn reports whether the rider carries a forecast for raceID.
func (r Rider) IsRankedIn(raceID string) bool {
	return r.RankIn(raceID) != UnrankedSentinel
}

// StartsIn reports whether raceID is part of the rider's program.
func (r Rider) StartsIn(raceID string) bool {
	for _, id := range r.Starts {
		if id == raceID {
			return true
		}
	}
	return false
}

// Float returns a pointer to v. Handy for optional price and roi fields.
func Float(v float64) *float64 { return &v }
