package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/peloton/internal/adapters/provider"
	service "github.com/okian/peloton/internal/app"
	"github.com/okian/peloton/internal/domain/roster"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// opError tags an error with the handler operation that produced it.
type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	switch {
	case e.err == nil:
		return fmt.Sprintf("%s: %v", e.op, e.kind)
	case e.kind == nil:
		return fmt.Sprintf("%s: %v", e.op, e.err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.op, e.kind, e.err)
	}
}

func (e *opError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.kind != nil {
		out = append(out, e.kind)
	}
	if e.err != nil {
		out = append(out, e.err)
	}
	return out
}

// Wrap annotates err with op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, err: err}
}

// WrapKind annotates err with op and classifies it as kind.
func WrapKind(op string, kind, err error) error {
	return &opError{op: op, kind: kind, err: err}
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &opError{op: op, kind: kind}
}

// classify maps a service error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, roster.ErrEmptyName):
		return http.StatusBadRequest, "empty_name"
	case errors.Is(err, roster.ErrCapacity):
		return http.StatusConflict, "capacity_exceeded"
	case errors.Is(err, roster.ErrBudget):
		return http.StatusConflict, "budget_exceeded"
	case errors.Is(err, roster.ErrLastRoster):
		return http.StatusConflict, "last_roster"
	case errors.Is(err, roster.ErrNotFound), errors.Is(err, service.ErrUnknownRider),
		errors.Is(err, service.ErrSolverDisabled):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable, "catalog_unavailable"
	case errors.Is(err, provider.ErrFetch), errors.Is(err, provider.ErrDecode), errors.Is(err, provider.ErrSolve):
		return http.StatusBadGateway, "provider_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
