package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/okian/peloton/internal/domain/market"
)

// CatalogHandler serves the rider and race catalog.
type CatalogHandler struct {
	deps CatalogDependencies
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps CatalogDependencies) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

// HandleListRiders handles GET /api/riders.
func (h *CatalogHandler) HandleListRiders(w http.ResponseWriter, r *http.Request) {
	riders, err := h.deps.Riders(r.Context())
	if err != nil {
		writeServiceError(w, "api.list_riders", err)
		return
	}
	writeJSON(w, http.StatusOK, riders)
}

// HandleListRaces handles GET /api/races.
func (h *CatalogHandler) HandleListRaces(w http.ResponseWriter, r *http.Request) {
	races, err := h.deps.Races(r.Context())
	if err != nil {
		writeServiceError(w, "api.list_races", err)
		return
	}
	writeJSON(w, http.StatusOK, races)
}

// HandleListTeams handles GET /api/teams.
func (h *CatalogHandler) HandleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.deps.Teams(r.Context())
	if err != nil {
		writeServiceError(w, "api.list_teams", err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

// HandleGetRider handles GET /api/riders/{id}.
func (h *CatalogHandler) HandleGetRider(w http.ResponseWriter, r *http.Request) {
	detail, err := h.deps.Rider(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, "api.get_rider", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleSearch handles GET /api/riders/search?q=&limit=.
func (h *CatalogHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	const op = "api.search_riders"
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		limit = n
	}
	riders, err := h.deps.SearchRiders(r.Context(), q, limit)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, riders)
}

// HandleMarket handles GET /api/market?search=&team=&max_price=&sort=&race=.
func (h *CatalogHandler) HandleMarket(w http.ResponseWriter, r *http.Request) {
	const op = "api.market"
	v := r.URL.Query()
	q := market.Query{
		Search:     v.Get("search"),
		Team:       v.Get("team"),
		Sort:       market.ParseMode(v.Get("sort")),
		ActiveRace: v.Get("race"),
	}
	if raw := v.Get("max_price"); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		q.MaxPrice = &p
	}
	riders, err := h.deps.Market(r.Context(), q)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, riders)
}
