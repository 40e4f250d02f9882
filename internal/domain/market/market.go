// Package market filters and orders the rider catalog for transfer browsing.
package market

import (
	"sort"
	"strings"

	"github.com/okian/peloton/internal/domain/model"
)

// Mode selects the ordering of the market view.
type Mode string

// Supported sort modes.
const (
	SortScoreDesc  Mode = "score_desc"
	SortBudgetDesc Mode = "budget_desc"
	SortBudgetAsc  Mode = "budget_asc"
	SortROIDesc    Mode = "roi_desc"
	SortRaceRank   Mode = "race_desc"
)

// AllTeams is the team filter value that disables team filtering.
const AllTeams = "All Teams"

// ParseMode maps a query value to a Mode; unknown values select SortScoreDesc.
func ParseMode(s string) Mode {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case SortBudgetDesc, SortBudgetAsc, SortROIDesc, SortRaceRank:
		return m
	default:
		return SortScoreDesc
	}
}

// Query holds the filter and sort criteria of a market view.
type Query struct {
	// Search is a case-insensitive substring of the rider name.
	Search string
	// Team keeps only riders of this pro team; "" or AllTeams disables it.
	Team string
	// MaxPrice drops riders costing more; nil disables it.
	MaxPrice *float64
	Sort     Mode
	// ActiveRace is required by SortRaceRank.
	ActiveRace string
}

// Apply returns a new, filtered and sorted slice. riders is not modified.
func Apply(riders []model.Rider, q Query) []model.Rider {
	// A blank search disables the name filter; otherwise the term is matched as typed.
	search := ""
	if strings.TrimSpace(q.Search) != "" {
		search = strings.ToLower(q.Search)
	}
	team := q.Team
	if team == AllTeams {
		team = ""
	}

	out := make([]model.Rider, 0, len(riders))
	for _, r := range riders {
		if search != "" && !strings.Contains(strings.ToLower(r.Name), search) {
			continue
		}
		if team != "" && r.Team != team {
			continue
		}
		if q.MaxPrice != nil && r.Price() > *q.MaxPrice {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, less(out, q))
	return out
}

func less(rs []model.Rider, q Query) func(i, j int) bool {
	switch q.Sort {
	case SortBudgetDesc:
		return func(i, j int) bool { return rs[i].Price() > rs[j].Price() }
	case SortBudgetAsc:
		return func(i, j int) bool { return rs[i].Price() < rs[j].Price() }
	case SortROIDesc:
		return func(i, j int) bool { return rs[i].ROIValue() > rs[j].ROIValue() }
	case SortRaceRank:
		if q.ActiveRace != "" {
			race := q.ActiveRace
			return func(i, j int) bool { return rs[i].RankIn(race) < rs[j].RankIn(race) }
		}
	}
	return func(i, j int) bool { return rs[i].GlobalScore > rs[j].GlobalScore }
}
