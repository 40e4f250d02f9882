package roster

import (
	"github.com/okian/peloton/internal/domain/catalog"
	"github.com/okian/peloton/internal/domain/model"
)

// Summary is the overview card of one roster.
type Summary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	RiderCount int     `json:"rider_count"`
	MaxRiders  int     `json:"max_riders"`
	Spent      float64 `json:"spent"`
	Remaining  float64 `json:"remaining"`
	// Points sums the global score of the riders the catalog still knows.
	Points int `json:"points"`
}

// Summarize computes the overview figures for r.
func Summarize(r model.Roster, cat *catalog.Catalog, p Policy) Summary {
	p = p.normalized()
	spent := Spent(r, cat.PriceOf)
	points := 0
	for _, rider := range cat.Resolve(r.Riders) {
		points += rider.GlobalScore
	}
	return Summary{
		ID:         r.ID,
		Name:       r.Name,
		RiderCount: len(r.Riders),
		MaxRiders:  p.MaxRiders,
		Spent:      spent,
		Remaining:  p.Budget - spent,
		Points:     points,
	}
}
