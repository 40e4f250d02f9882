// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	service "github.com/okian/peloton/internal/app"
	"github.com/okian/peloton/internal/domain/evaluation"
	"github.com/okian/peloton/internal/domain/market"
	"github.com/okian/peloton/internal/domain/model"
	"github.com/okian/peloton/internal/domain/roster"
)

// Request headers.
const (
	HeaderUserID         = "X-User-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
)

const maxBodyBytes = 1 << 20

// CatalogDependencies exposes the read-only catalog views.
type CatalogDependencies interface {
	Riders(ctx context.Context) ([]model.Rider, error)
	Races(ctx context.Context) ([]model.Race, error)
	Teams(ctx context.Context) ([]string, error)
	Rider(ctx context.Context, id string) (service.RiderDetail, error)
	SearchRiders(ctx context.Context, query string, limit int) ([]model.Rider, error)
	Market(ctx context.Context, q market.Query) ([]model.Rider, error)
}

// RosterDependencies exposes a user's roster collection.
type RosterDependencies interface {
	Rosters(ctx context.Context, userID string) (service.Collection, error)
	CreateRoster(ctx context.Context, userID, name string) (service.RosterView, error)
	RenameRoster(ctx context.Context, userID, id, name string) (service.RosterView, error)
	DeleteRoster(ctx context.Context, userID, id string) error
	SelectRoster(ctx context.Context, userID, id string) error
	ToggleRider(ctx context.Context, userID, rosterID, riderID, idempotencyKey string) (service.ToggleResult, error)
	Evaluate(ctx context.Context, userID, rosterID, raceID string) (evaluation.Result, error)
}

// SolverDependencies exposes the solver-assisted views.
type SolverDependencies interface {
	SolverAssisted() bool
	Plan(ctx context.Context, userID, rosterID string) (model.Solution, error)
	Solve(ctx context.Context) (model.Solution, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CatalogDependencies
	RosterDependencies
	SolverDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	catalogHandler *CatalogHandler
	rosterHandler  *RosterHandler
	solverHandler  *SolverHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		catalogHandler: NewCatalogHandler(deps),
		rosterHandler:  NewRosterHandler(deps),
		solverHandler:  NewSolverHandler(deps),
	}
}

// Register attaches all HTTP routes to r. Solver routes are only added when
// the dependencies are solver-assisted.
func (s *Server) Register(_ context.Context, r *mux.Router, deps Dependencies) {
	r.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")).Methods(http.MethodGet)
	r.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats")).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Specific paths first (most specific to least specific)
	api.HandleFunc("/riders/search", MetricsMiddleware(s.catalogHandler.HandleSearch, "riders_search")).Methods(http.MethodGet)
	api.HandleFunc("/riders/{id}", MetricsMiddleware(s.catalogHandler.HandleGetRider, "rider")).Methods(http.MethodGet)
	api.HandleFunc("/riders", MetricsMiddleware(s.catalogHandler.HandleListRiders, "riders")).Methods(http.MethodGet)
	api.HandleFunc("/races", MetricsMiddleware(s.catalogHandler.HandleListRaces, "races")).Methods(http.MethodGet)
	api.HandleFunc("/teams", MetricsMiddleware(s.catalogHandler.HandleListTeams, "teams")).Methods(http.MethodGet)
	api.HandleFunc("/market", MetricsMiddleware(s.catalogHandler.HandleMarket, "market")).Methods(http.MethodGet)

	api.HandleFunc("/rosters/active", MetricsMiddleware(s.rosterHandler.HandleSelect, "rosters_active")).Methods(http.MethodPut)
	api.HandleFunc("/rosters/{id}/riders/{riderID}", MetricsMiddleware(s.rosterHandler.HandleToggle, "rosters_toggle")).Methods(http.MethodPost)
	api.HandleFunc("/rosters/{id}/evaluation", MetricsMiddleware(s.rosterHandler.HandleEvaluate, "rosters_evaluation")).Methods(http.MethodGet)
	api.HandleFunc("/rosters/{id}", MetricsMiddleware(s.rosterHandler.HandleRename, "rosters_rename")).Methods(http.MethodPatch)
	api.HandleFunc("/rosters/{id}", MetricsMiddleware(s.rosterHandler.HandleDelete, "rosters_delete")).Methods(http.MethodDelete)
	api.HandleFunc("/rosters", MetricsMiddleware(s.rosterHandler.HandleList, "rosters")).Methods(http.MethodGet)
	api.HandleFunc("/rosters", MetricsMiddleware(s.rosterHandler.HandleCreate, "rosters_create")).Methods(http.MethodPost)

	if deps.SolverAssisted() {
		api.HandleFunc("/rosters/{id}/plan", MetricsMiddleware(s.solverHandler.HandlePlan, "rosters_plan")).Methods(http.MethodGet)
		api.HandleFunc("/solve", MetricsMiddleware(s.solverHandler.HandleSolve, "solve")).Methods(http.MethodPost)
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Details carries the figures of a rejected insertion.
	Details *budgetDetails `json:"details,omitempty"`
}

type budgetDetails struct {
	RiderID   string  `json:"rider_id"`
	Price     float64 `json:"price"`
	Remaining float64 `json:"remaining"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	resp := errorResponse{Code: code, Message: msg}
	var be *roster.BudgetError
	if errors.As(err, &be) {
		resp.Details = &budgetDetails{RiderID: be.RiderID, Price: be.Price, Remaining: be.Remaining}
	}
	writeJSON(w, status, resp)
}

// writeServiceError classifies err and writes it.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	writeError(w, status, code, Wrap(op, err))
}

// userID returns the caller identity; blank selects the shared default user.
func userID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(HeaderUserID)); id != "" {
		return id
	}
	return roster.DefaultUserID
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid body: %w", err)
	}
	return nil
}
