// Package repository persists roster collections for the roster store.
//
// Every backend stores one JSON document per storage key, the same layout a
// browser keeps in local storage, so data can move between backends as-is.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/okian/peloton/internal/domain/model"
	"github.com/okian/peloton/internal/domain/roster"
	"github.com/okian/peloton/pkg/metrics"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Repository is a roster.Repository that owns closable resources.
type Repository interface {
	roster.Repository
	io.Closer
}

// Open returns the backend selected by name.
func Open(ctx context.Context, backend string, opts ...Option) (Repository, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	switch backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendFile:
		if o.path == "" {
			return nil, fmt.Errorf("%w: file backend needs a path", ErrMissingOption)
		}
		return NewFile(o.path)
	case BackendSQLite:
		if o.path == "" {
			return nil, fmt.Errorf("%w: sqlite backend needs a path", ErrMissingOption)
		}
		return NewSQLite(ctx, o.path)
	case BackendPostgres:
		if o.dsn == "" {
			return nil, fmt.Errorf("%w: postgres backend needs a dsn", ErrMissingOption)
		}
		return NewPostgres(ctx, o.dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

func encode(rosters []model.Roster) ([]byte, error) {
	if rosters == nil {
		rosters = []model.Roster{}
	}
	return json.Marshal(rosters)
}

func decode(key string, payload []byte) ([]model.Roster, error) {
	var rosters []model.Roster
	if err := json.Unmarshal(payload, &rosters); err != nil {
		return nil, fmt.Errorf("%w: key %q: %w", ErrCorrupt, key, err)
	}
	return rosters, nil
}

// observe records the latency and outcome of one repository call.
func observe(backend, op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordRepositoryOperation(backend, op, outcome, float64(time.Since(start).Microseconds())/1000)
}
