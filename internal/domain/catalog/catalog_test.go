package catalog_test

import (
	"testing"

	"github.com/okian/peloton/internal/domain/catalog"
	"github.com/okian/peloton/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func fixture() *catalog.Catalog {
	riders := []model.Rider{
		{ID: "pogacar", Name: "Tadej Pogačar", GlobalScore: 900, Team: "UAE Team Emirates",
			Starts: []string{"strade", "sanremo"}, TopRanks: map[string]int{"strade": 1, "sanremo": 2},
			SporzaPrice: model.Float(15)},
		{ID: "evenepoel", Name: "Remco Evenepoel", GlobalScore: 700, Team: "Red Bull",
			Starts: []string{"strade"}, TopRanks: map[string]int{"strade": 3}, SporzaPrice: model.Float(14)},
		{ID: "vanaert", Name: "Wout van Aert", GlobalScore: 650, Team: "Visma",
			Starts: []string{"sanremo"}},
		{ID: "pogacar", Name: "Duplicate", GlobalScore: 1},
	}
	races := []model.Race{
		{ID: "strade", Name: "Strade Bianche", Date: "7 Mar"},
		{ID: "sanremo", Name: "Milano-Sanremo", Date: "21 Mar"},
	}
	return catalog.New(riders, races)
}

func TestCatalog_New(t *testing.T) {
	Convey("Given a catalog built from provider data", t, func() {
		c := fixture()

		Convey("Then duplicates are dropped and order is preserved", func() {
			So(c.RiderCount(), ShouldEqual, 3)
			So(c.Riders()[0].Name, ShouldEqual, "Tadej Pogačar")
			So(c.Riders()[2].ID, ShouldEqual, "vanaert")
			So(c.RaceCount(), ShouldEqual, 2)
		})

		Convey("Then the default race is the first race", func() {
			So(c.DefaultRace(), ShouldEqual, "strade")
		})

		Convey("Then lookups resolve by id", func() {
			r, ok := c.Rider("evenepoel")
			So(ok, ShouldBeTrue)
			So(r.Price(), ShouldEqual, 14.0)
			_, ok = c.Race("unknown")
			So(ok, ShouldBeFalse)
		})

		Convey("Then unknown ids are skipped on resolve", func() {
			rs := c.Resolve([]string{"ghost", "vanaert", "pogacar"})
			So(len(rs), ShouldEqual, 2)
			So(rs[0].ID, ShouldEqual, "vanaert")
			So(c.PriceOf("ghost"), ShouldEqual, 0.0)
		})
	})

	Convey("Given an empty calendar", t, func() {
		c := catalog.New(nil, nil)

		Convey("Then there is no default race", func() {
			So(c.DefaultRace(), ShouldEqual, "")
			So(c.Teams(), ShouldBeEmpty)
		})
	})
}

func TestCatalog_Views(t *testing.T) {
	Convey("Given a catalog", t, func() {
		c := fixture()

		Convey("Then teams are distinct and sorted", func() {
			So(c.Teams(), ShouldResemble, []string{"Red Bull", "UAE Team Emirates", "Visma"})
		})

		Convey("Then starters are counted per race", func() {
			ids := []string{"pogacar", "evenepoel", "vanaert", "ghost"}
			So(c.StarterCount("strade", ids), ShouldEqual, 2)
			So(c.StarterCount("sanremo", ids), ShouldEqual, 2)
		})

		Convey("Then ranked races are ordered best first", func() {
			rr := c.RankedRaces("pogacar")
			So(len(rr), ShouldEqual, 2)
			So(rr[0].RaceName, ShouldEqual, "Strade Bianche")
			So(rr[1].Rank, ShouldEqual, 2)
			So(c.RankedRaces("ghost"), ShouldBeNil)
		})

		Convey("Then fuzzy lookup ignores accents and case", func() {
			found := c.FindRider("pogacar", 5)
			So(len(found), ShouldEqual, 1)
			So(found[0].ID, ShouldEqual, "pogacar")
			So(c.FindRider("  ", 5), ShouldBeNil)
		})

		Convey("Then fuzzy lookup honours the limit", func() {
			found := c.FindRider("e", 1)
			So(len(found), ShouldEqual, 1)
		})
	})
}
