package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SolverHandler serves the solver-assisted plan views.
type SolverHandler struct {
	deps SolverDependencies
}

// NewSolverHandler creates a new solver handler.
func NewSolverHandler(deps SolverDependencies) *SolverHandler {
	return &SolverHandler{deps: deps}
}

// HandlePlan handles GET /api/rosters/{id}/plan.
func (h *SolverHandler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	sol, err := h.deps.Plan(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, "api.plan_roster", err)
		return
	}
	writeJSON(w, http.StatusOK, sol)
}

// HandleSolve handles POST /api/solve.
func (h *SolverHandler) HandleSolve(w http.ResponseWriter, r *http.Request) {
	sol, err := h.deps.Solve(r.Context())
	if err != nil {
		writeServiceError(w, "api.solve", err)
		return
	}
	writeJSON(w, http.StatusOK, sol)
}
