package roster

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for roster mutations. All of them leave state unchanged.
var (
	ErrNotFound   = errors.New("roster not found")
	ErrEmptyName  = errors.New("roster name must not be empty")
	ErrLastRoster = errors.New("at least one roster must remain")
	ErrCapacity   = errors.New("roster is full")
	ErrBudget     = errors.New("budget exceeded")
	ErrPersist    = errors.New("persist rosters failed")
)

// BudgetError reports a rejected addition together with the figures shown to the user.
type BudgetError struct {
	RiderID   string
	Price     float64
	Remaining float64
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("budget exceeded: rider %s costs %gM, %gM remaining", e.RiderID, e.Price, e.Remaining)
}

// Unwrap lets errors.Is match ErrBudget.
func (e *BudgetError) Unwrap() error { return ErrBudget }
