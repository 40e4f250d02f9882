// Package catalog holds the read-only rider and race reference data.
//
// A Catalog is immutable once built: loaders construct a fresh one and swap it
// in as a whole, so readers never observe a partially populated catalog.
package catalog

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/okian/peloton/internal/domain/model"
)

// Catalog indexes riders and races by id while keeping the provider order.
type Catalog struct {
	riders    map[string]model.Rider
	riderList []model.Rider
	races     map[string]model.Race
	raceList  []model.Race
	names     []string // lower-cased rider names, parallel to riderList
}

// New builds a catalog. Duplicate ids keep their first occurrence.
func New(riders []model.Rider, races []model.Race) *Catalog {
	c := &Catalog{
		riders:    make(map[string]model.Rider, len(riders)),
		riderList: make([]model.Rider, 0, len(riders)),
		races:     make(map[string]model.Race, len(races)),
		raceList:  make([]model.Race, 0, len(races)),
		names:     make([]string, 0, len(riders)),
	}
	for _, r := range riders {
		if _, dup := c.riders[r.ID]; dup {
			continue
		}
		c.riders[r.ID] = r
		c.riderList = append(c.riderList, r)
		c.names = append(c.names, strings.ToLower(r.Name))
	}
	for _, r := range races {
		if _, dup := c.races[r.ID]; dup {
			continue
		}
		c.races[r.ID] = r
		c.raceList = append(c.raceList, r)
	}
	return c
}

// Rider returns the rider with id.
func (c *Catalog) Rider(id string) (model.Rider, bool) {
	r, ok := c.riders[id]
	return r, ok
}

// Race returns the race with id.
func (c *Catalog) Race(id string) (model.Race, bool) {
	r, ok := c.races[id]
	return r, ok
}

// Riders returns the riders in provider order. The slice must not be modified.
func (c *Catalog) Riders() []model.Rider { return c.riderList }

// Races returns the races in provider order. The slice must not be modified.
func (c *Catalog) Races() []model.Race { return c.raceList }

// RiderCount returns the number of distinct riders.
func (c *Catalog) RiderCount() int { return len(c.riderList) }

// RaceCount returns the number of distinct races.
func (c *Catalog) RaceCount() int { return len(c.raceList) }

// DefaultRace is the initial active race: the first race in provider order,
// or "" for an empty calendar.
func (c *Catalog) DefaultRace() string {
	if len(c.raceList) == 0 {
		return ""
	}
	return c.raceList[0].ID
}

// Resolve maps ids to riders, silently skipping ids the catalog does not know.
func (c *Catalog) Resolve(ids []string) []model.Rider {
	out := make([]model.Rider, 0, len(ids))
	for _, id := range ids {
		if r, ok := c.riders[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// PriceOf returns the price of riderID; unknown riders are free.
func (c *Catalog) PriceOf(riderID string) float64 {
	return c.riders[riderID].Price()
}

// Teams lists the distinct non-empty pro-team names, sorted.
func (c *Catalog) Teams() []string {
	seen := make(map[string]struct{})
	teams := make([]string, 0)
	for _, r := range c.riderList {
		if r.Team == "" {
			continue
		}
		if _, ok := seen[r.Team]; ok {
			continue
		}
		seen[r.Team] = struct{}{}
		teams = append(teams, r.Team)
	}
	sort.Strings(teams)
	return teams
}

// StarterCount counts how many of riderIDs start raceID.
func (c *Catalog) StarterCount(raceID string, riderIDs []string) int {
	n := 0
	for _, r := range c.Resolve(riderIDs) {
		if r.StartsIn(raceID) {
			n++
		}
	}
	return n
}

// RankedRace is one forecast entry on a rider's profile.
type RankedRace struct {
	RaceID   string `json:"race_id"`
	RaceName string `json:"race_name"`
	Date     string `json:"date"`
	Rank     int    `json:"rank"`
}

// RankedRaces lists the races riderID is forecast in, best rank first.
// Races missing from the calendar are reported under their id.
func (c *Catalog) RankedRaces(riderID string) []RankedRace {
	r, ok := c.riders[riderID]
	if !ok {
		return nil
	}
	out := make([]RankedRace, 0, len(r.TopRanks))
	for raceID, rank := range r.TopRanks {
		if rank <= 0 {
			continue
		}
		entry := RankedRace{RaceID: raceID, RaceName: raceID, Date: "?", Rank: rank}
		if race, ok := c.races[raceID]; ok {
			entry.RaceName = race.Name
			entry.Date = race.Date
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].RaceID < out[j].RaceID
	})
	return out
}

// FindRider performs an accent- and case-insensitive fuzzy lookup by name.
// Matches are ordered by edit distance, then by catalog order. limit <= 0
// returns every match.
func (c *Catalog) FindRider(query string, limit int) []model.Rider {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	ranks := fuzzy.RankFindNormalizedFold(query, c.names)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})
	if limit > 0 && len(ranks) > limit {
		ranks = ranks[:limit]
	}
	out := make([]model.Rider, len(ranks))
	for i, rk := range ranks {
		out[i] = c.riderList[rk.OriginalIndex]
	}
	return out
}
