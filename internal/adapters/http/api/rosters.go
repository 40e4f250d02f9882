package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RosterHandler serves a user's roster collection.
type RosterHandler struct {
	deps RosterDependencies
}

// NewRosterHandler creates a new roster handler.
func NewRosterHandler(deps RosterDependencies) *RosterHandler {
	return &RosterHandler{deps: deps}
}

type nameRequest struct {
	Name string `json:"name"`
}

type selectRequest struct {
	ID string `json:"id"`
}

// HandleList handles GET /api/rosters.
func (h *RosterHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	c, err := h.deps.Rosters(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, "api.list_rosters", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleCreate handles POST /api/rosters. A blank name gets a generated one.
func (h *RosterHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_roster"
	var req nameRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.CreateRoster(r.Context(), userID(r), req.Name)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HandleRename handles PATCH /api/rosters/{id}.
func (h *RosterHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	const op = "api.rename_roster"
	var req nameRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.RenameRoster(r.Context(), userID(r), mux.Vars(r)["id"], req.Name)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleDelete handles DELETE /api/rosters/{id}.
func (h *RosterHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteRoster(r.Context(), userID(r), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, "api.delete_roster", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSelect handles PUT /api/rosters/active.
func (h *RosterHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	const op = "api.select_roster"
	var req selectRequest
	if err := decodeBody(w, r, &req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.SelectRoster(r.Context(), userID(r), req.ID); err != nil {
		writeServiceError(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleToggle handles POST /api/rosters/{id}/riders/{riderID}.
func (h *RosterHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := h.deps.ToggleRider(r.Context(), userID(r), vars["id"], vars["riderID"], r.Header.Get(HeaderIdempotencyKey))
	if err != nil {
		writeServiceError(w, "api.toggle_rider", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleEvaluate handles GET /api/rosters/{id}/evaluation?race=.
func (h *RosterHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Evaluate(r.Context(), userID(r), mux.Vars(r)["id"], r.URL.Query().Get("race"))
	if err != nil {
		writeServiceError(w, "api.evaluate_roster", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
