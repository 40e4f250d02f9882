package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/peloton/internal/adapters/provider"
	"github.com/okian/peloton/internal/config"
	"github.com/okian/peloton/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func fakeProvider() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/riders", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"a","name":"Alpha","global_score":10,"starts":["r1"],"top_ranks":{"r1":1},"sporza_price":5}]`))
	})
	mux.HandleFunc("/api/races", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"r1","name":"Omloop","date":"01/03","class":"1.UWT"}]`))
	})
	mux.HandleFunc("/api/solve", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"Optimal","total_points":10,"squad_riders":["a"],"races":[]}`))
	})
	return httptest.NewServer(mux)
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given configuration pointing at a provider", t, func() {
		prov := fakeProvider()
		defer prov.Close()

		_ = os.Setenv("PELOTON_PROVIDER_BASE_URL", prov.URL)
		_ = os.Setenv("PELOTON_STORAGE_BACKEND", "file")
		_ = os.Setenv("PELOTON_STORAGE_PATH", filepath.Join(t.TempDir(), "rosters"))
		_ = os.Setenv("PELOTON_SOLVER_ASSISTED", "true")
		defer func() {
			for _, k := range []string{"PELOTON_PROVIDER_BASE_URL", "PELOTON_STORAGE_BACKEND", "PELOTON_STORAGE_PATH", "PELOTON_SOLVER_ASSISTED"} {
				_ = os.Unsetenv(k)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)

		repo, err := openRepository(ctx, cfg)
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = repo.Close() }()

		client := provider.NewClient(cfg.ProviderURL())
		svc := newService(cfg, client, repo, logger.Get())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		router := newRouter(ctx, svc)

		convey.Convey("Then the API, docs and solver routes are served", func() {
			for _, tc := range []struct {
				method, path string
				status       int
			}{
				{http.MethodGet, "/api/riders", http.StatusOK},
				{http.MethodGet, "/api/rosters", http.StatusOK},
				{http.MethodPost, "/api/rosters/default/riders/a", http.StatusOK},
				{http.MethodGet, "/api/rosters/default/plan", http.StatusOK},
				{http.MethodPost, "/api/solve", http.StatusOK},
				{http.MethodGet, "/openapi.yaml", http.StatusOK},
				{http.MethodGet, "/healthz", http.StatusOK},
			} {
				w := httptest.NewRecorder()
				router.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, tc.status)
			}
		})

		convey.Convey("Then toggles persist to the configured file backend", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/rosters/default/riders/a", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

			_, err := os.Stat(filepath.Join(cfg.StoragePath, "wielermanager_teams_default.json"))
			convey.So(err, convey.ShouldBeNil)
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given an unreachable provider", t, func() {
		prov := fakeProvider()
		url := prov.URL
		prov.Close()

		cfg := config.New()
		cfg.StorageBackend = "memory"
		ctx := context.Background()

		repo, err := openRepository(ctx, cfg)
		convey.So(err, convey.ShouldBeNil)
		svc := newService(cfg, provider.NewClient(url, provider.WithTimeout(time.Second)), repo, logger.Get())

		convey.Convey("Then startup fails", func() {
			convey.So(svc.Start(ctx), convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given an unknown storage backend", t, func() {
		cfg := config.New()
		cfg.StorageBackend = "redis"

		_, err := openRepository(context.Background(), cfg)

		convey.Convey("Then the repository cannot be opened", func() {
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given the background metric updaters", t, func() {
		convey.Convey("Then the system metrics updater stops with its context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() {
				startSystemMetricsUpdater(ctx)
			}, convey.ShouldNotPanic)
		})

		convey.Convey("Then a system metrics update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}
