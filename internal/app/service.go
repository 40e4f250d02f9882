// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/peloton/internal/domain/catalog"
	"github.com/okian/peloton/internal/domain/dedupe"
	"github.com/okian/peloton/internal/domain/evaluation"
	"github.com/okian/peloton/internal/domain/market"
	"github.com/okian/peloton/internal/domain/model"
	"github.com/okian/peloton/internal/domain/roster"
	"github.com/okian/peloton/pkg/logger"
	"github.com/okian/peloton/pkg/metrics"
)

// CatalogSource loads the full rider and race catalog.
type CatalogSource interface {
	Load(ctx context.Context) ([]model.Rider, []model.Race, error)
}

// Solver computes a per-race plan remotely.
type Solver interface {
	Solve(ctx context.Context) (model.Solution, error)
}

const defaultSearchLimit = 10

// RosterView is a roster with its overview figures.
type RosterView struct {
	model.Roster
	Summary roster.Summary `json:"summary"`
}

// Collection is everything a user sees on the overview page.
type Collection struct {
	// Selection is the raw active selection, possibly "overview".
	Selection string `json:"selection"`
	// Active is the roster the selection resolves to.
	Active            string       `json:"active"`
	Rosters           []RosterView `json:"rosters"`
	MaxRiders         int          `json:"max_riders"`
	Budget            float64      `json:"budget"`
	BudgetConstrained bool         `json:"budget_constrained"`
}

// ToggleResult reports the outcome of a toggle.
type ToggleResult struct {
	Roster    RosterView `json:"roster"`
	Added     bool       `json:"added"`
	Duplicate bool       `json:"duplicate"`
}

// RiderDetail is a rider with the races it is forecast in.
type RiderDetail struct {
	model.Rider
	RankedRaces []catalog.RankedRace `json:"ranked_races"`
}

// session serializes access to one user's roster store.
type session struct {
	mu    sync.Mutex
	store *roster.Store
}

// Service implements the API dependencies for the team manager.
type Service struct {
	mu sync.RWMutex

	// Core components
	source  CatalogSource
	solver  Solver
	repo    roster.Repository
	deduper dedupe.Deduper
	catalog atomic.Pointer[catalog.Catalog]

	sessionsMu sync.Mutex
	sessions   map[string]*session

	// Configuration
	policy          roster.Policy
	rosterOpts      []roster.Option
	starters        int
	solverAssisted  bool
	idempotencySize int

	// State
	started  bool
	loadedAt atomic.Int64

	// Logging
	logger logger.Logger
}

// New constructs a new Service reading the catalog from source and
// persisting rosters through repo.
func New(source CatalogSource, repo roster.Repository, opts ...Option) *Service {
	s := &Service{
		source:          source,
		repo:            repo,
		sessions:        make(map[string]*session),
		policy:          roster.DefaultPolicy(),
		starters:        evaluation.DefaultStarters,
		idempotencySize: 10_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.idempotencySize))
	return s
}

// Start loads the catalog. A failed initial load is returned to the caller
// and leaves the service stopped.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting team manager service...")

	if s.source == nil || s.repo == nil {
		return errors.New("service requires a catalog source and a roster repository")
	}
	if err := s.RefreshCatalog(ctx); err != nil {
		return err
	}

	s.started = true
	s.logger.Info(ctx, "team manager service started",
		logger.Int("maxRiders", s.policy.MaxRiders),
		logger.Float64("budget", s.policy.Budget),
		logger.Bool("budgetConstrained", s.policy.BudgetConstrained),
		logger.Int("starters", s.starters),
		logger.Bool("solverAssisted", s.solverAssisted),
	)
	return nil
}

// Stop drops cached user sessions.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.sessionsMu.Lock()
	s.sessions = make(map[string]*session)
	s.sessionsMu.Unlock()
	metrics.UpdateOpenSessions(0)

	s.started = false
	s.logger.Info(context.Background(), "team manager service stopped")
}

// RefreshCatalog fetches a new catalog and swaps it in whole. On failure the
// previous catalog stays in place.
func (s *Service) RefreshCatalog(ctx context.Context) error {
	start := time.Now()
	riders, races, err := s.source.Load(ctx)
	durationMs := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordCatalogLoad(false, durationMs, 0, 0, 0)
		s.log().Error(ctx, "catalog load failed", logger.Error(err))
		return fmt.Errorf("load catalog: %w", err)
	}

	cat := catalog.New(riders, races)
	if dup := len(riders) - cat.RiderCount(); dup > 0 {
		s.log().Warn(ctx, "dropped duplicate rider ids", logger.Int("count", dup))
	}
	if dup := len(races) - cat.RaceCount(); dup > 0 {
		s.log().Warn(ctx, "dropped duplicate race ids", logger.Int("count", dup))
	}
	s.catalog.Store(cat)
	now := time.Now()
	s.loadedAt.Store(now.Unix())

	metrics.RecordCatalogLoad(true, durationMs, cat.RiderCount(), cat.RaceCount(), now.Unix())
	s.log().Info(ctx, "catalog loaded",
		logger.Int("riders", cat.RiderCount()),
		logger.Int("races", cat.RaceCount()),
		logger.Float64("durationMs", durationMs),
	)
	return nil
}

// Catalog returns the current catalog.
func (s *Service) Catalog() (*catalog.Catalog, error) {
	cat := s.catalog.Load()
	if cat == nil {
		return nil, ErrCatalogUnavailable
	}
	return cat, nil
}

// Riders returns all riders in provider order.
func (s *Service) Riders(_ context.Context) ([]model.Rider, error) {
	cat, err := s.Catalog()
	if err != nil {
		return nil, err
	}
	return cat.Riders(), nil
}

// Races returns all races in calendar order.
func (s *Service) Races(_ context.Context) ([]model.Race, error) {
	cat, err := s.Catalog()
	if err != nil {
		return nil, err
	}
	return cat.Races(), nil
}

// Teams returns the distinct pro-team names.
func (s *Service) Teams(_ context.Context) ([]string, error) {
	cat, err := s.Catalog()
	if err != nil {
		return nil, err
	}
	return cat.Teams(), nil
}

// Rider returns one rider with its forecast races.
func (s *Service) Rider(_ context.Context, id string) (RiderDetail, error) {
	cat, err := s.Catalog()
	if err != nil {
		return RiderDetail{}, err
	}
	r, ok := cat.Rider(id)
	if !ok {
		return RiderDetail{}, fmt.Errorf("%w: %s", ErrUnknownRider, id)
	}
	return RiderDetail{Rider: r, RankedRaces: cat.RankedRaces(id)}, nil
}

// SearchRiders finds riders by approximate name.
func (s *Service) SearchRiders(_ context.Context, query string, limit int) ([]model.Rider, error) {
	cat, err := s.Catalog()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return cat.FindRider(query, limit), nil
}

// Market returns the filtered and ordered market view. A sort by race rank
// without a race uses the catalog's default race.
func (s *Service) Market(_ context.Context, q market.Query) ([]model.Rider, error) {
	cat, err := s.Catalog()
	if err != nil {
		return nil, err
	}
	if q.ActiveRace == "" {
		q.ActiveRace = cat.DefaultRace()
	}
	return market.Apply(cat.Riders(), q), nil
}

// Rosters returns the user's collection with summaries.
func (s *Service) Rosters(ctx context.Context, userID string) (Collection, error) {
	cat, err := s.Catalog()
	if err != nil {
		return Collection{}, err
	}
	var out Collection
	err = s.withStore(ctx, userID, func(st *roster.Store) error {
		out = s.collection(st, cat)
		return nil
	})
	return out, err
}

// CreateRoster adds an empty roster and makes it active.
func (s *Service) CreateRoster(ctx context.Context, userID, name string) (RosterView, error) {
	cat, err := s.Catalog()
	if err != nil {
		return RosterView{}, err
	}
	var out RosterView
	err = s.withStore(ctx, userID, func(st *roster.Store) error {
		id, err := st.Create(ctx, name)
		if err != nil {
			return err
		}
		r, err := st.Roster(id)
		if err != nil {
			return err
		}
		out = s.view(r, cat, st.Policy())
		return nil
	})
	s.recordMutation(ctx, "create", err)
	return out, err
}

// RenameRoster renames roster id.
func (s *Service) RenameRoster(ctx context.Context, userID, id, name string) (RosterView, error) {
	cat, err := s.Catalog()
	if err != nil {
		return RosterView{}, err
	}
	var out RosterView
	err = s.withStore(ctx, userID, func(st *roster.Store) error {
		if err := st.Rename(ctx, id, name); err != nil {
			return err
		}
		r, err := st.Roster(id)
		if err != nil {
			return err
		}
		out = s.view(r, cat, st.Policy())
		return nil
	})
	s.recordMutation(ctx, "rename", err)
	return out, err
}

// DeleteRoster removes roster id.
func (s *Service) DeleteRoster(ctx context.Context, userID, id string) error {
	err := s.withStore(ctx, userID, func(st *roster.Store) error {
		return st.Delete(ctx, id)
	})
	s.recordMutation(ctx, "delete", err)
	return err
}

// SelectRoster changes the active selection.
func (s *Service) SelectRoster(ctx context.Context, userID, id string) error {
	return s.withStore(ctx, userID, func(st *roster.Store) error {
		return st.Select(id)
	})
}

// ToggleRider adds or removes riderID from roster rosterID. A non-empty
// idempotencyKey that was already applied returns the current roster
// without toggling again.
func (s *Service) ToggleRider(ctx context.Context, userID, rosterID, riderID, idempotencyKey string) (ToggleResult, error) {
	cat, err := s.Catalog()
	if err != nil {
		return ToggleResult{}, err
	}
	var out ToggleResult
	err = s.withStore(ctx, userID, func(st *roster.Store) error {
		current, err := st.Roster(rosterID)
		if err != nil {
			return err
		}

		key := ""
		if idempotencyKey != "" {
			key = dedupe.Scope(roster.Key(userID), rosterID, riderID, idempotencyKey)
			if s.deduper.SeenAndRecord(ctx, key) {
				metrics.RecordIdempotentReplay()
				out = ToggleResult{Roster: s.view(current, cat, st.Policy()), Duplicate: true}
				return nil
			}
		}

		// Stale ids can always be removed; new ones must exist in the catalog.
		if _, ok := cat.Rider(riderID); !ok && !current.Has(riderID) {
			err = fmt.Errorf("%w: %s", ErrUnknownRider, riderID)
		} else {
			out.Added, err = st.Toggle(ctx, rosterID, riderID, cat.PriceOf)
		}
		if err != nil {
			if key != "" {
				s.deduper.Unrecord(ctx, key)
			}
			return err
		}
		r, err := st.Roster(rosterID)
		if err != nil {
			return err
		}
		out.Roster = s.view(r, cat, st.Policy())
		return nil
	})
	if !out.Duplicate {
		s.recordMutation(ctx, "toggle", err)
	}
	return out, err
}

// Evaluate picks the roster's starters for raceID. An empty raceID uses the
// catalog's default race.
func (s *Service) Evaluate(ctx context.Context, userID, rosterID, raceID string) (evaluation.Result, error) {
	cat, err := s.Catalog()
	if err != nil {
		return evaluation.Result{}, err
	}
	if raceID == "" {
		raceID = cat.DefaultRace()
	}
	var riders []string
	err = s.withStore(ctx, userID, func(st *roster.Store) error {
		r, err := st.Roster(rosterID)
		riders = r.Riders
		return err
	})
	if err != nil {
		return evaluation.Result{}, err
	}
	res := evaluation.Evaluate(cat, raceID, riders, s.starters)
	metrics.RecordEvaluation(res.Completed)
	return res, nil
}

// Plan evaluates the roster against every race.
func (s *Service) Plan(ctx context.Context, userID, rosterID string) (model.Solution, error) {
	if !s.solverAssisted {
		return model.Solution{}, ErrSolverDisabled
	}
	cat, err := s.Catalog()
	if err != nil {
		return model.Solution{}, err
	}
	var riders []string
	err = s.withStore(ctx, userID, func(st *roster.Store) error {
		r, err := st.Roster(rosterID)
		riders = r.Riders
		return err
	})
	if err != nil {
		return model.Solution{}, err
	}
	return evaluation.Plan(cat, riders, s.starters), nil
}

// Solve forwards to the provider's solver.
func (s *Service) Solve(ctx context.Context) (model.Solution, error) {
	if !s.solverAssisted {
		return model.Solution{}, ErrSolverDisabled
	}
	sol, err := s.solver.Solve(ctx)
	if err != nil {
		s.log().Warn(ctx, "provider solve failed", logger.Error(err))
		return model.Solution{}, err
	}
	return sol, nil
}

// SolverAssisted reports whether plan and solve are available.
func (s *Service) SolverAssisted() bool { return s.solverAssisted }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.sessionsMu.Lock()
	sessions := len(s.sessions)
	s.sessionsMu.Unlock()

	stats := map[string]interface{}{
		"started":           s.started,
		"maxRiders":         s.policy.MaxRiders,
		"budget":            s.policy.Budget,
		"budgetConstrained": s.policy.BudgetConstrained,
		"starters":          s.starters,
		"solverAssisted":    s.solverAssisted,
		"sessions":          sessions,
	}
	if cat := s.catalog.Load(); cat != nil {
		stats["riders"] = cat.RiderCount()
		stats["races"] = cat.RaceCount()
		stats["catalogLoadedAt"] = time.Unix(s.loadedAt.Load(), 0).UTC().Format(time.RFC3339)
	}
	stats["idempotencyKeys"] = s.deduper.Size()
	metrics.UpdateOpenSessions(sessions)
	return stats
}

// withStore runs fn with exclusive access to the user's store, opening it on
// first use. A failed open is not cached.
func (s *Service) withStore(ctx context.Context, userID string, fn func(*roster.Store) error) error {
	key := roster.Key(userID)

	s.sessionsMu.Lock()
	sess, ok := s.sessions[key]
	if !ok {
		sess = &session{}
		s.sessions[key] = sess
	}
	count := len(s.sessions)
	s.sessionsMu.Unlock()
	if !ok {
		metrics.UpdateOpenSessions(count)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.store == nil {
		opts := append([]roster.Option{roster.WithPolicy(s.policy)}, s.rosterOpts...)
		st, err := roster.Open(ctx, s.repo, userID, opts...)
		if err != nil {
			s.log().Error(ctx, "open roster store failed", logger.String("key", key), logger.Error(err))
			return err
		}
		sess.store = st
	}
	return fn(sess.store)
}

func (s *Service) collection(st *roster.Store, cat *catalog.Catalog) Collection {
	p := st.Policy()
	rosters := st.Rosters()
	out := Collection{
		Selection:         st.Selection(),
		Active:            st.Active().ID,
		Rosters:           make([]RosterView, len(rosters)),
		MaxRiders:         p.MaxRiders,
		Budget:            p.Budget,
		BudgetConstrained: p.BudgetConstrained,
	}
	for i, r := range rosters {
		out.Rosters[i] = s.view(r, cat, p)
	}
	return out
}

func (s *Service) view(r model.Roster, cat *catalog.Catalog, p roster.Policy) RosterView {
	return RosterView{Roster: r, Summary: roster.Summarize(r, cat, p)}
}

func (s *Service) recordMutation(ctx context.Context, op string, err error) {
	outcome := mutationOutcome(err)
	metrics.RecordRosterMutation(op, outcome)
	if err != nil && outcome == "error" {
		s.log().Error(ctx, "roster mutation failed", logger.String("op", op), logger.Error(err))
	}
}

func mutationOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, roster.ErrCapacity):
		return "capacity_exceeded"
	case errors.Is(err, roster.ErrBudget):
		return "budget_exceeded"
	case errors.Is(err, roster.ErrLastRoster):
		return "last_roster"
	case errors.Is(err, roster.ErrEmptyName):
		return "empty_name"
	case errors.Is(err, roster.ErrNotFound), errors.Is(err, ErrUnknownRider):
		return "not_found"
	default:
		return "error"
	}
}

// log returns the configured logger, falling back to the global one before Start.
func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Get()
	}
	return s.logger
}
