// Package roster owns users' roster collections and their constraints.
//
// A Store is the single writer of one user's persisted rosters. Every
// successful mutation is written through to the Repository before returning;
// a failed write restores the previous in-memory state. Store is not safe for
// concurrent use; callers serialize access.
package roster

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/peloton/internal/domain/model"
)

// Overview is the pseudo-selection showing all rosters side by side.
const Overview = "overview"

// Initial roster created on first use.
const (
	DefaultRosterID   = "default"
	DefaultRosterName = "My Simulator Team"
)

// PriceFunc returns the price of a rider; unknown riders are free.
type PriceFunc func(riderID string) float64

// Option applies a configuration option to a Store.
type Option func(*Store)

// WithPolicy sets the constraints enforced on insertions.
func WithPolicy(p Policy) Option {
	return func(s *Store) {
		s.policy = p.normalized()
	}
}

// WithIDGenerator replaces the roster id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// Store is the roster collection of one user.
type Store struct {
	key     string
	repo    Repository
	policy  Policy
	newID   func() string
	rosters []model.Roster
	active  string
}

// Open loads the collection stored for userID, or starts with the default
// roster when nothing is stored yet.
func Open(ctx context.Context, repo Repository, userID string, opts ...Option) (*Store, error) {
	s := &Store{
		key:    Key(userID),
		repo:   repo,
		policy: DefaultPolicy(),
		newID:  func() string { return "team_" + uuid.NewString() },
		active: Overview,
	}
	for _, opt := range opts {
		opt(s)
	}

	rosters, found, err := repo.Load(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load rosters %q: %w", s.key, err)
	}
	if !found || len(rosters) == 0 {
		rosters = []model.Roster{{ID: DefaultRosterID, Name: DefaultRosterName, Riders: []string{}}}
	}
	for i := range rosters {
		if rosters[i].Riders == nil {
			rosters[i].Riders = []string{}
		}
	}
	s.rosters = rosters
	return s, nil
}

// Key returns the storage key of this store.
func (s *Store) Key() string { return s.key }

// Policy returns the enforced constraints.
func (s *Store) Policy() Policy { return s.policy }

// Rosters returns a copy of the collection in display order.
func (s *Store) Rosters() []model.Roster { return model.CloneRosters(s.rosters) }

// Len returns the number of rosters.
func (s *Store) Len() int { return len(s.rosters) }

// Roster returns a copy of the roster with id.
func (s *Store) Roster(id string) (model.Roster, error) {
	i := s.index(id)
	if i < 0 {
		return model.Roster{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.rosters[i].Clone(), nil
}

// Selection returns the raw active selection, possibly Overview.
func (s *Store) Selection() string { return s.active }

// Active resolves the active selection to a roster. Overview or a stale
// selection resolves to the first roster.
func (s *Store) Active() model.Roster {
	if i := s.index(s.active); i >= 0 {
		return s.rosters[i].Clone()
	}
	return s.rosters[0].Clone()
}

// Select changes the active selection. Overview is always accepted.
func (s *Store) Select(id string) error {
	if id != Overview && s.index(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.active = id
	return nil
}

// Create appends an empty roster and selects it. Names are not deduplicated;
// a blank name becomes "Opslag N".
func (s *Store) Create(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Opslag %d", len(s.rosters)+1)
	}
	id := s.newID()
	next := append(model.CloneRosters(s.rosters), model.Roster{ID: id, Name: name, Riders: []string{}})
	if err := s.commit(ctx, next); err != nil {
		return "", err
	}
	s.active = id
	return id, nil
}

// Rename replaces the name of roster id. A name that trims to empty is rejected.
func (s *Store) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := model.CloneRosters(s.rosters)
	next[i].Name = name
	return s.commit(ctx, next)
}

// Delete removes roster id unless it is the last one. Deleting the active
// roster falls back to Overview.
func (s *Store) Delete(ctx context.Context, id string) error {
	if len(s.rosters) <= 1 {
		return ErrLastRoster
	}
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := make([]model.Roster, 0, len(s.rosters)-1)
	for j, r := range s.rosters {
		if j != i {
			next = append(next, r.Clone())
		}
	}
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	if s.active == id {
		s.active = Overview
	}
	return nil
}

// Toggle removes riderID from roster id when present, otherwise adds it at
// the end subject to the capacity and budget constraints. added reports the
// direction of a successful toggle.
func (s *Store) Toggle(ctx context.Context, id, riderID string, price PriceFunc) (added bool, err error) {
	i := s.index(id)
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if price == nil {
		price = func(string) float64 { return 0 }
	}
	next := model.CloneRosters(s.rosters)
	r := &next[i]

	if r.Has(riderID) {
		kept := make([]string, 0, len(r.Riders)-1)
		for _, rid := range r.Riders {
			if rid != riderID {
				kept = append(kept, rid)
			}
		}
		r.Riders = kept
		return false, s.commit(ctx, next)
	}

	if len(r.Riders) >= s.policy.MaxRiders {
		return false, fmt.Errorf("%w: at most %d riders", ErrCapacity, s.policy.MaxRiders)
	}
	if s.policy.BudgetConstrained {
		spent := Spent(*r, price)
		cost := price(riderID)
		if spent+cost > s.policy.Budget {
			return false, &BudgetError{RiderID: riderID, Price: cost, Remaining: s.policy.Budget - spent}
		}
	}
	r.Riders = append(r.Riders, riderID)
	return true, s.commit(ctx, next)
}

// commit persists next and adopts it only when the write succeeded.
func (s *Store) commit(ctx context.Context, next []model.Roster) error {
	if err := s.repo.Save(ctx, s.key, next); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	s.rosters = next
	return nil
}

func (s *Store) index(id string) int {
	for i, r := range s.rosters {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Spent sums the price of the roster's riders.
func Spent(r model.Roster, price PriceFunc) float64 {
	total := 0.0
	for _, id := range r.Riders {
		total += price(id)
	}
	return total
}
