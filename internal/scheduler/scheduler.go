// Package scheduler runs the periodic catalog refresh.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/okian/peloton/pkg/logger"
)

// ErrInterval is returned for a non-positive refresh interval.
var ErrInterval = errors.New("refresh interval must be positive")

// Refresher reloads the catalog.
type Refresher interface {
	RefreshCatalog(ctx context.Context) error
}

// Scheduler refreshes the catalog on a fixed interval. Runs never overlap;
// a run still in progress when the next one is due delays it.
type Scheduler struct {
	s         gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    logger.Logger
}

// New creates a scheduler refreshing every interval. Each run is bounded by
// timeout when it is positive.
func New(refresher Refresher, interval, timeout time.Duration) (*Scheduler, error) {
	if interval <= 0 {
		return nil, ErrInterval
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{
		s:         s,
		refresher: refresher,
		interval:  interval,
		timeout:   timeout,
		logger:    logger.Named("scheduler"),
	}, nil
}

// Start registers the refresh job and starts the scheduler.
func (s *Scheduler) Start() error {
	_, err := s.s.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.refresh),
		gocron.WithName("catalog-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create catalog refresh job: %w", err)
	}
	s.s.Start()
	s.logger.Info(context.Background(), "catalog refresh scheduled", logger.Duration("interval", s.interval))
	return nil
}

// Stop waits for a running refresh and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	return s.s.Shutdown()
}

func (s *Scheduler) refresh() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.refresher.RefreshCatalog(ctx); err != nil {
		s.logger.Warn(ctx, "scheduled catalog refresh failed; keeping previous catalog", logger.Error(err))
	}
}
