package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/okian/peloton/internal/adapters/http/api"
	"github.com/okian/peloton/internal/adapters/provider"
	"github.com/okian/peloton/internal/adapters/repository"
	service "github.com/okian/peloton/internal/app"
	"github.com/okian/peloton/internal/domain/model"
	"github.com/okian/peloton/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type stubSource struct {
	riders []model.Rider
	races  []model.Race
}

func (s stubSource) Load(_ context.Context) ([]model.Rider, []model.Race, error) {
	return s.riders, s.races, nil
}

type stubSolver struct {
	err error
}

func (s stubSolver) Solve(_ context.Context) (model.Solution, error) {
	if s.err != nil {
		return model.Solution{}, s.err
	}
	return model.Solution{Status: "Optimal", TotalPoints: 42, SquadRiders: []string{"A"}}, nil
}

func fixture() stubSource {
	return stubSource{
		riders: []model.Rider{
			{ID: "A", Name: "Alpha", GlobalScore: 50, Starts: []string{"R1"}, TopRanks: map[string]int{"R1": 2}, SporzaPrice: model.Float(10), Team: "Lotto"},
			{ID: "B", Name: "Bravo", GlobalScore: 80, Starts: []string{"R1"}, TopRanks: map[string]int{"R1": 1}, SporzaPrice: model.Float(115), Team: "Visma"},
		},
		races: []model.Race{{ID: "R1", Name: "Omloop", Date: "01/03"}},
	}
}

func newRouter(svc *service.Service) *mux.Router {
	r := mux.NewRouter()
	api.NewServer(svc, svc).Register(context.Background(), r, svc)
	return r
}

func startedRouter(opts ...service.Option) *mux.Router {
	svc := service.New(fixture(), repository.NewMemory(), opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return newRouter(svc)
}

func do(h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder, v any) {
	So(json.Unmarshal(w.Body.Bytes(), v), ShouldBeNil)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details *struct {
		RiderID   string  `json:"rider_id"`
		Price     float64 `json:"price"`
		Remaining float64 `json:"remaining"`
	} `json:"details"`
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		r := startedRouter()

		Convey("Then the health endpoint exposes metrics", func() {
			w := do(r, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then the stats endpoint reports the catalog", func() {
			w := do(r, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]any
			decode(w, &stats)
			So(stats["riders"], ShouldEqual, 2.0)
		})

		Convey("Then unknown paths are not found", func() {
			w := do(r, http.MethodGet, "/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then solver routes are absent without solver assistance", func() {
			w := do(r, http.MethodPost, "/api/solve", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestCatalogRoutes(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		r := startedRouter()

		Convey("When listing riders and races", func() {
			riders := do(r, http.MethodGet, "/api/riders", "")
			races := do(r, http.MethodGet, "/api/races", "")

			Convey("Then they come back in provider order", func() {
				So(riders.Code, ShouldEqual, http.StatusOK)
				var rs []model.Rider
				decode(riders, &rs)
				So(len(rs), ShouldEqual, 2)
				So(rs[0].ID, ShouldEqual, "A")

				So(races.Code, ShouldEqual, http.StatusOK)
				var rcs []model.Race
				decode(races, &rcs)
				So(rcs[0].ID, ShouldEqual, "R1")
			})
		})

		Convey("When fetching a rider", func() {
			w := do(r, http.MethodGet, "/api/riders/A", "")
			missing := do(r, http.MethodGet, "/api/riders/Z", "")

			Convey("Then the detail includes ranked races", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var d service.RiderDetail
				decode(w, &d)
				So(d.Name, ShouldEqual, "Alpha")
				So(len(d.RankedRaces), ShouldEqual, 1)
				So(missing.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When searching riders", func() {
			w := do(r, http.MethodGet, "/api/riders/search?q=brav", "")
			empty := do(r, http.MethodGet, "/api/riders/search", "")

			Convey("Then matches are returned and a missing query is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var rs []model.Rider
				decode(w, &rs)
				So(len(rs), ShouldEqual, 1)
				So(rs[0].ID, ShouldEqual, "B")
				So(empty.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When browsing the market", func() {
			cheap := do(r, http.MethodGet, "/api/market?max_price=50", "")
			byRank := do(r, http.MethodGet, "/api/market?sort=race_desc&race=R1", "")
			bad := do(r, http.MethodGet, "/api/market?max_price=lots", "")

			Convey("Then filters and sorts apply", func() {
				var rs []model.Rider
				decode(cheap, &rs)
				So(len(rs), ShouldEqual, 1)
				So(rs[0].ID, ShouldEqual, "A")

				decode(byRank, &rs)
				So(rs[0].ID, ShouldEqual, "B")

				So(bad.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When listing teams", func() {
			w := do(r, http.MethodGet, "/api/teams", "")
			var teams []string
			decode(w, &teams)
			So(teams, ShouldResemble, []string{"Lotto", "Visma"})
		})
	})

	Convey("Given a service whose catalog never loaded", t, func() {
		svc := service.New(fixture(), repository.NewMemory())
		r := newRouter(svc)

		w := do(r, http.MethodGet, "/api/riders", "")

		Convey("Then catalog routes are unavailable", func() {
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			var body errorBody
			decode(w, &body)
			So(body.Code, ShouldEqual, "catalog_unavailable")
		})
	})
}

func TestRosterRoutes(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		r := startedRouter()
		user := []string{api.HeaderUserID, "alice"}

		Convey("When listing rosters for a new user", func() {
			w := do(r, http.MethodGet, "/api/rosters", "", user...)

			Convey("Then the default roster is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var c service.Collection
				decode(w, &c)
				So(len(c.Rosters), ShouldEqual, 1)
				So(c.Rosters[0].Name, ShouldEqual, "My Simulator Team")
				So(c.Selection, ShouldEqual, "overview")
			})
		})

		Convey("When managing rosters", func() {
			created := do(r, http.MethodPost, "/api/rosters", `{"name":"Classics"}`, user...)
			So(created.Code, ShouldEqual, http.StatusCreated)
			var view service.RosterView
			decode(created, &view)

			renamed := do(r, http.MethodPatch, "/api/rosters/"+view.ID, `{"name":"Spring"}`, user...)
			emptyName := do(r, http.MethodPatch, "/api/rosters/"+view.ID, `{"name":"  "}`, user...)
			selected := do(r, http.MethodPut, "/api/rosters/active", `{"id":"default"}`, user...)
			badSelect := do(r, http.MethodPut, "/api/rosters/active", `{}`, user...)
			deleted := do(r, http.MethodDelete, "/api/rosters/"+view.ID, "", user...)
			last := do(r, http.MethodDelete, "/api/rosters/default", "", user...)

			Convey("Then each operation maps to its status", func() {
				So(renamed.Code, ShouldEqual, http.StatusOK)
				So(emptyName.Code, ShouldEqual, http.StatusBadRequest)
				var body errorBody
				decode(emptyName, &body)
				So(body.Code, ShouldEqual, "empty_name")

				So(selected.Code, ShouldEqual, http.StatusNoContent)
				So(badSelect.Code, ShouldEqual, http.StatusBadRequest)
				So(deleted.Code, ShouldEqual, http.StatusNoContent)

				So(last.Code, ShouldEqual, http.StatusConflict)
				decode(last, &body)
				So(body.Code, ShouldEqual, "last_roster")
			})
		})

		Convey("When creating a roster with a malformed body", func() {
			w := do(r, http.MethodPost, "/api/rosters", `{"name":`, user...)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When toggling riders", func() {
			added := do(r, http.MethodPost, "/api/rosters/default/riders/A", "", user...)
			overBudget := do(r, http.MethodPost, "/api/rosters/default/riders/B", "", user...)
			missing := do(r, http.MethodPost, "/api/rosters/nope/riders/A", "", user...)

			Convey("Then additions are applied and constraint violations reported", func() {
				So(added.Code, ShouldEqual, http.StatusOK)
				var res service.ToggleResult
				decode(added, &res)
				So(res.Added, ShouldBeTrue)
				So(res.Roster.Riders, ShouldResemble, []string{"A"})

				So(overBudget.Code, ShouldEqual, http.StatusConflict)
				var body errorBody
				decode(overBudget, &body)
				So(body.Code, ShouldEqual, "budget_exceeded")
				So(body.Details, ShouldNotBeNil)
				So(body.Details.Price, ShouldEqual, 115.0)
				So(body.Details.Remaining, ShouldEqual, 110.0)

				So(missing.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When replaying a toggle with the same idempotency key", func() {
			headers := append([]string{api.HeaderIdempotencyKey, "k1"}, user...)
			first := do(r, http.MethodPost, "/api/rosters/default/riders/A", "", headers...)
			second := do(r, http.MethodPost, "/api/rosters/default/riders/A", "", headers...)

			Convey("Then the rider stays in the roster", func() {
				var res service.ToggleResult
				decode(first, &res)
				So(res.Duplicate, ShouldBeFalse)
				decode(second, &res)
				So(res.Duplicate, ShouldBeTrue)
				So(res.Roster.Riders, ShouldResemble, []string{"A"})
			})
		})

		Convey("When evaluating a roster", func() {
			do(r, http.MethodPost, "/api/rosters/default/riders/A", "", user...)
			w := do(r, http.MethodGet, "/api/rosters/default/evaluation", "", user...)

			Convey("Then the default race is evaluated", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res struct {
					RaceID   string   `json:"race_id"`
					Starters []string `json:"starters"`
				}
				decode(w, &res)
				So(res.RaceID, ShouldEqual, "R1")
				So(res.Starters, ShouldResemble, []string{"A"})
			})
		})

		Convey("Then requests without a user share the default collection", func() {
			do(r, http.MethodPost, "/api/rosters", `{"name":"Shared"}`)
			w := do(r, http.MethodGet, "/api/rosters", "", api.HeaderUserID, "default")
			var c service.Collection
			decode(w, &c)
			So(len(c.Rosters), ShouldEqual, 2)
		})
	})
}

func TestSolverRoutes(t *testing.T) {
	Convey("Given a solver-assisted API server", t, func() {
		r := startedRouter(service.WithSolver(stubSolver{}))

		Convey("Then the plan and the solve proxy are served", func() {
			do(r, http.MethodPost, "/api/rosters/default/riders/A", "")
			plan := do(r, http.MethodGet, "/api/rosters/default/plan", "")
			So(plan.Code, ShouldEqual, http.StatusOK)
			var sol model.Solution
			decode(plan, &sol)
			So(sol.TotalPoints, ShouldEqual, 50.0)
			So(sol.Races[0].Selected, ShouldResemble, []string{"A"})

			solve := do(r, http.MethodPost, "/api/solve", "")
			So(solve.Code, ShouldEqual, http.StatusOK)
		})
	})

	Convey("Given a solver that fails upstream", t, func() {
		failure := fmt.Errorf("%w: infeasible", provider.ErrSolve)
		r := startedRouter(service.WithSolver(stubSolver{err: failure}))

		w := do(r, http.MethodPost, "/api/solve", "")

		Convey("Then a bad gateway is reported", func() {
			So(w.Code, ShouldEqual, http.StatusBadGateway)
			var body errorBody
			decode(w, &body)
			So(body.Code, ShouldEqual, "provider_error")
		})
	})
}

func TestOpErrors(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		inner := errors.New("boom")

		Convey("Then kinds and causes stay matchable", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, inner)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, inner), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: boom")

			So(api.Wrap("api.op", nil), ShouldBeNil)
			So(api.NewKind("api.op", api.ErrBadRequest).Error(), ShouldEqual, "api.op: bad request")
		})
	})
}
