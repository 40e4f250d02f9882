package provider

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrFetch  = errors.New("provider fetch failed")
	ErrDecode = errors.New("provider payload invalid")
	ErrSolve  = errors.New("provider solve failed")
)
