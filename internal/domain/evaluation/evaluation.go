// Package evaluation picks and ranks the starters a roster fields in a race.
package evaluation

import (
	"sort"

	"github.com/okian/peloton/internal/domain/catalog"
	"github.com/okian/peloton/internal/domain/model"
)

// DefaultStarters is the number of riders that score for a roster in one race.
const DefaultStarters = 12

// Result is the evaluation of one roster against one race.
type Result struct {
	RaceID    string   `json:"race_id"`
	Completed bool     `json:"completed"`
	Starters  []string `json:"starters"`
	// TotalPoints sums the official points of Starters; only set for completed races.
	TotalPoints int `json:"total_points"`
}

// Evaluate selects up to limit riders from riderIDs that start raceID.
//
// Completed races with published results rank by official points (descending,
// missing = 0); other races, including completed ones without results, rank
// by forecast rank (ascending, missing = 999). Ties keep roster
// order. Ids unknown to the catalog are dropped. An empty or unknown race
// yields an empty result.
func Evaluate(cat *catalog.Catalog, raceID string, riderIDs []string, limit int) Result {
	res := Result{RaceID: raceID, Starters: []string{}}
	if cat == nil || raceID == "" {
		return res
	}
	if limit <= 0 {
		limit = DefaultStarters
	}
	race, known := cat.Race(raceID)

	starters := make([]model.Rider, 0, len(riderIDs))
	for _, r := range cat.Resolve(riderIDs) {
		if r.StartsIn(raceID) {
			starters = append(starters, r)
		}
	}

	if known && race.IsCompleted && race.ActualResults != nil {
		res.Completed = true
		sort.SliceStable(starters, func(i, j int) bool {
			return race.PointsFor(starters[i].ID) > race.PointsFor(starters[j].ID)
		})
	} else {
		sort.SliceStable(starters, func(i, j int) bool {
			return starters[i].RankIn(raceID) < starters[j].RankIn(raceID)
		})
	}

	if len(starters) > limit {
		starters = starters[:limit]
	}
	for _, r := range starters {
		res.Starters = append(res.Starters, r.ID)
		if res.Completed {
			res.TotalPoints += race.PointsFor(r.ID)
		}
	}
	return res
}

// Plan evaluates riderIDs against every race in calendar order using the
// forecast ranking, the local counterpart of the provider's solve endpoint.
// TotalPoints is the squad's summed global score.
func Plan(cat *catalog.Catalog, riderIDs []string, limit int) model.Solution {
	sol := model.Solution{
		Status:      "Optimal",
		SquadRiders: []string{},
		Races:       []model.RaceSelection{},
	}
	if cat == nil {
		return sol
	}
	if limit <= 0 {
		limit = DefaultStarters
	}
	squad := cat.Resolve(riderIDs)
	total := 0
	for _, r := range squad {
		sol.SquadRiders = append(sol.SquadRiders, r.ID)
		total += r.GlobalScore
	}
	sol.TotalPoints = float64(total)

	for _, race := range cat.Races() {
		starters := make([]model.Rider, 0, len(squad))
		for _, r := range squad {
			if r.StartsIn(race.ID) {
				starters = append(starters, r)
			}
		}
		sort.SliceStable(starters, func(i, j int) bool {
			return starters[i].RankIn(race.ID) < starters[j].RankIn(race.ID)
		})
		if len(starters) > limit {
			starters = starters[:limit]
		}
		sel := model.RaceSelection{RaceID: race.ID, Selected: make([]string, len(starters))}
		for i, r := range starters {
			sel.Selected[i] = r.ID
		}
		sol.Races = append(sol.Races, sel)
	}
	return sol
}
