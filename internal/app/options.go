package service

import (
	"github.com/okian/peloton/internal/domain/roster"
	"github.com/okian/peloton/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPolicy sets the roster constraints enforced for every user.
func WithPolicy(p roster.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithStarters sets how many riders score per race.
func WithStarters(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.starters = n
		}
	}
}

// WithSolver enables the per-race plan and the provider solve proxy.
func WithSolver(solver Solver) Option {
	return func(s *Service) {
		if solver != nil {
			s.solver = solver
			s.solverAssisted = true
		}
	}
}

// WithIdempotencySize bounds the number of remembered toggle keys.
func WithIdempotencySize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.idempotencySize = size
		}
	}
}

// WithRosterOptions passes extra options to every user's roster store.
func WithRosterOptions(opts ...roster.Option) Option {
	return func(s *Service) {
		s.rosterOpts = append(s.rosterOpts, opts...)
	}
}
