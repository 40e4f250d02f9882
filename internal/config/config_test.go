package config_test

import (
	"testing"

	"github.com/okian/peloton/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.MaxRiders, convey.ShouldEqual, 20)
			convey.So(cfg.Budget, convey.ShouldEqual, 120.0)
			convey.So(cfg.BudgetConstrained, convey.ShouldBeTrue)
			convey.So(cfg.StartersPerRace, convey.ShouldEqual, 12)
			convey.So(cfg.StorageBackend, convey.ShouldEqual, "file")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the development provider is used outside production", func() {
			convey.So(cfg.ProviderURL(), convey.ShouldEqual, "http://localhost:8000")
		})

		convey.Convey("When production is enabled", func() {
			cfg.Production = true
			cfg.SameOriginURL = "https://wielermanager.example"

			convey.Convey("Then same-origin routing is used", func() {
				convey.So(cfg.ProviderURL(), convey.ShouldEqual, "https://wielermanager.example")
			})
		})
	})
}
