package service

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrUnknownRider       = errors.New("unknown rider")
	ErrSolverDisabled     = errors.New("solver assistance disabled")
)
