package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrUnknownBackend = errors.New("unknown storage backend")
	ErrMissingOption  = errors.New("missing storage option")
	ErrCorrupt        = errors.New("stored rosters are corrupt")
	ErrClosed         = errors.New("repository closed")
)
