package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/okian/peloton/internal/adapters/http/api"
	"github.com/okian/peloton/internal/adapters/http/swagger"
	"github.com/okian/peloton/internal/adapters/provider"
	"github.com/okian/peloton/internal/adapters/repository"
	app "github.com/okian/peloton/internal/app"
	"github.com/okian/peloton/internal/config"
	"github.com/okian/peloton/internal/domain/roster"
	"github.com/okian/peloton/internal/scheduler"
	"github.com/okian/peloton/pkg/logger"
	"github.com/okian/peloton/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	if err := logger.InitWith(cfg.LogFormat, os.Stdout); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		loggerInstance.Error(ctx, "failed to open roster repository", logger.String("backend", cfg.StorageBackend), logger.Error(err))
		return 1
	}
	defer func() {
		if err := repo.Close(); err != nil {
			loggerInstance.Error(ctx, "failed to close roster repository", logger.Error(err))
		}
	}()

	client := provider.NewClient(cfg.ProviderURL(), provider.WithTimeout(time.Duration(cfg.ProviderTimeoutMS)*time.Millisecond))
	svc := newService(cfg, client, repo, loggerInstance)

	// The initial catalog load blocks startup; without it nothing can be served.
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to load catalog", logger.String("provider", client.BaseURL()), logger.Error(err))
		return 1
	}
	defer svc.Stop()

	if cfg.CatalogRefreshIntervalS > 0 {
		sched, err := scheduler.New(svc, time.Duration(cfg.CatalogRefreshIntervalS)*time.Second, time.Duration(cfg.ProviderTimeoutMS)*time.Millisecond)
		if err == nil {
			err = sched.Start()
		}
		if err != nil {
			loggerInstance.Error(ctx, "failed to schedule catalog refresh", logger.Error(err))
			return 1
		}
		defer func() { _ = sched.Stop() }()
	}

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	code := 0
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
		code = 1
	}
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
	return code
}

// openRepository opens the configured roster backend.
func openRepository(ctx context.Context, cfg *config.Config) (repository.Repository, error) {
	return repository.Open(ctx, cfg.StorageBackend,
		repository.WithPath(cfg.StoragePath),
		repository.WithDSN(cfg.StorageDSN),
	)
}

// newService builds the team manager service from configuration.
func newService(cfg *config.Config, client *provider.Client, repo roster.Repository, l logger.Logger) *app.Service {
	opts := []app.Option{
		app.WithLogger(l),
		app.WithPolicy(roster.Policy{
			MaxRiders:         cfg.MaxRiders,
			Budget:            cfg.Budget,
			BudgetConstrained: cfg.BudgetConstrained,
		}),
		app.WithStarters(cfg.StartersPerRace),
		app.WithIdempotencySize(cfg.IdempotencySize),
	}
	if cfg.SolverAssisted {
		opts = append(opts, app.WithSolver(client))
	}
	return app.New(client, repo, opts...)
}

// newRouter registers the docs and business API routes.
func newRouter(ctx context.Context, svc *app.Service) *mux.Router {
	r := mux.NewRouter()
	swagger.Register(ctx, r)
	api.NewServer(svc, svc).Register(ctx, r, svc)
	return r
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that refreshes
// the gauges derived from service stats.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats updates the session gauge as a side effect.
			_ = svc.GetStats()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
