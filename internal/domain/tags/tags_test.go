package tags_test

import (
	"testing"

	"github.com/okian/localscan/internal/domain/model"
	"github.com/okian/localscan/internal/domain/tags"
	. "github.com/smartystreets/goconvey/convey"
)

func texts(ts []model.Tag) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Text)
	}
	return out
}

func withShips(names ...string) []model.TopList {
	values := make([]model.ShipUsageEntry, len(names))
	for i, n := range names {
		values[i] = model.ShipUsageEntry{ID: int64(i + 1), Name: n}
	}
	return []model.TopList{{Type: model.TopListShipType, Values: values}}
}

func TestClassify_GangSoloAxis(t *testing.T) {
	Convey("Given stats with only a gang ratio", t, func() {
		classify := func(v float64) []string {
			return texts(tags.Classify(&model.KillboardStats{GangRatio: model.Some(v)}))
		}

		Convey("Then ratios of 90 and above should be GANG", func() {
			for _, v := range []float64{90, 95, 100} {
				So(classify(v), ShouldResemble, []string{tags.TextGang})
			}
		})

		Convey("And ratios of 30 and below should be SOLO", func() {
			for _, v := range []float64{0, 12, 30} {
				So(classify(v), ShouldResemble, []string{tags.TextSolo})
			}
		})

		Convey("And ratios strictly between 30 and 90 should yield neither", func() {
			for _, v := range []float64{30.5, 50, 89.9} {
				So(classify(v), ShouldBeEmpty)
			}
		})
	})
}

func TestClassify_DangerAxis(t *testing.T) {
	Convey("Given stats with only a danger ratio", t, func() {
		classify := func(v float64) []string {
			return texts(tags.Classify(&model.KillboardStats{DangerRatio: model.Some(v)}))
		}

		Convey("Then 80 should be only VERY DANGEROUS", func() {
			So(classify(80), ShouldResemble, []string{tags.TextVeryDangerous})
		})

		Convey("And 75 should be VERY DANGEROUS and 50 DANGEROUS", func() {
			So(classify(75), ShouldResemble, []string{tags.TextVeryDangerous})
			So(classify(50), ShouldResemble, []string{tags.TextDangerous})
		})

		Convey("And 20 should be only SNUGGLY", func() {
			So(classify(20), ShouldResemble, []string{tags.TextSnuggly})
		})

		Convey("And 10 and 15 should be only VERY SNUGGLY", func() {
			So(classify(10), ShouldResemble, []string{tags.TextVerySnuggly})
			So(classify(15), ShouldResemble, []string{tags.TextVerySnuggly})
		})

		Convey("And ratios in (25, 50) should yield nothing", func() {
			So(classify(25.5), ShouldBeEmpty)
			So(classify(40), ShouldBeEmpty)
		})
	})
}

func TestClassify_Carebear(t *testing.T) {
	Convey("Given stats with ISK and loss counts", t, func() {
		Convey("When iskDestroyed=1, iskLost=10, shipsLost=11", func() {
			s := &model.KillboardStats{ISKDestroyed: model.Some(1), ISKLost: model.Some(10), ShipsLost: model.Some(11)}

			Convey("Then CAREBEAR should be present", func() {
				So(texts(tags.Classify(s)), ShouldContain, tags.TextCarebear)
			})
		})

		Convey("When shipsLost is exactly 10", func() {
			s := &model.KillboardStats{ISKDestroyed: model.Some(1), ISKLost: model.Some(10), ShipsLost: model.Some(10)}

			Convey("Then CAREBEAR should be absent", func() {
				So(texts(tags.Classify(s)), ShouldNotContain, tags.TextCarebear)
			})
		})

		Convey("When iskDestroyed is zero or absent", func() {
			zero := &model.KillboardStats{ISKDestroyed: model.Some(0), ISKLost: model.Some(10), ShipsLost: model.Some(50)}
			absent := &model.KillboardStats{ISKLost: model.Some(10), ShipsLost: model.Some(50)}

			Convey("Then CAREBEAR should be absent", func() {
				So(texts(tags.Classify(zero)), ShouldNotContain, tags.TextCarebear)
				So(texts(tags.Classify(absent)), ShouldNotContain, tags.TextCarebear)
			})
		})

		Convey("When the ISK ratio is 0.2 exactly", func() {
			s := &model.KillboardStats{ISKDestroyed: model.Some(2), ISKLost: model.Some(10), ShipsLost: model.Some(50)}

			Convey("Then CAREBEAR should be absent", func() {
				So(texts(tags.Classify(s)), ShouldNotContain, tags.TextCarebear)
			})
		})
	})
}

func TestClassify_RegionAxis(t *testing.T) {
	Convey("Given stats with region activity", t, func() {
		region := func(groups model.RegionGroups) []string {
			return texts(tags.Classify(&model.KillboardStats{Groups: groups}))
		}

		Convey("Then highsec=85 and nullsec=90 should yield only HIGHSEC", func() {
			got := region(model.RegionGroups{
				model.RegionHighsec: {KillsRatio: model.Some(85)},
				model.RegionNullsec: {KillsRatio: model.Some(90)},
			})
			So(got, ShouldResemble, []string{tags.TextHighsec})
		})

		Convey("And lowsec should win over nullsec", func() {
			got := region(model.RegionGroups{
				model.RegionLowsec:  {KillsRatio: model.Some(80)},
				model.RegionNullsec: {KillsRatio: model.Some(99)},
			})
			So(got, ShouldResemble, []string{tags.TextLowsec})
		})

		Convey("And wormhole should need only 50", func() {
			got := region(model.RegionGroups{
				model.RegionHighsec:  {KillsRatio: model.Some(40)},
				model.RegionWormhole: {KillsRatio: model.Some(50)},
			})
			So(got, ShouldResemble, []string{tags.TextWormhole})
		})

		Convey("And no region above threshold should yield nothing", func() {
			got := region(model.RegionGroups{
				model.RegionHighsec:  {KillsRatio: model.Some(79)},
				model.RegionWormhole: {KillsRatio: model.Some(49)},
			})
			So(got, ShouldBeEmpty)
		})
	})
}

func TestClassify_HaulerAxis(t *testing.T) {
	Convey("Given stats with recent ships", t, func() {
		Convey("Then any hauler hull name should yield one HAULER", func() {
			s := &model.KillboardStats{TopLists: withShips("Charon Freighter", "Badger Industrial", "Crane Blockade Runner")}
			So(texts(tags.Classify(s)), ShouldResemble, []string{tags.TextHauler})
		})

		Convey("And a Transport alone should be enough", func() {
			s := &model.KillboardStats{TopLists: withShips("Rifter", "Bustard Deep Space Transport")}
			So(texts(tags.Classify(s)), ShouldResemble, []string{tags.TextHauler})
		})

		Convey("And combat hulls should yield no HAULER", func() {
			s := &model.KillboardStats{TopLists: withShips("Rifter", "Sabre", "Loki")}
			So(tags.Classify(s), ShouldBeEmpty)
		})
	})

	Convey("Given the hull predicate", t, func() {
		So(tags.IsHaulerHull("Providence"), ShouldBeFalse)
		So(tags.IsHaulerHull("Obelisk Freighter"), ShouldBeTrue)
		So(tags.IsHaulerHull("freighter"), ShouldBeFalse)
	})
}

func TestClassify_CombinedAxes(t *testing.T) {
	Convey("Given stats that trigger every axis", t, func() {
		s := &model.KillboardStats{
			GangRatio:    model.Some(12),
			DangerRatio:  model.Some(90),
			ISKDestroyed: model.Some(1),
			ISKLost:      model.Some(100),
			ShipsLost:    model.Some(40),
			Groups:       model.RegionGroups{model.RegionLowsec: {KillsRatio: model.Some(88)}},
			TopLists:     withShips("Viator Blockade Runner"),
		}

		Convey("Then one tag per axis should be emitted in axis order", func() {
			got := tags.Classify(s)
			So(texts(got), ShouldResemble, []string{
				tags.TextSolo, tags.TextVeryDangerous, tags.TextCarebear, tags.TextLowsec, tags.TextHauler,
			})
			So(got[1].Category, ShouldEqual, "very-dangerous")
			So(got[3].Category, ShouldEqual, "lowsec")
		})
	})

	Convey("Given absent or nil stats", t, func() {
		Convey("Then no tags should be emitted", func() {
			So(tags.Classify(nil), ShouldBeEmpty)
			So(tags.Classify(&model.KillboardStats{}), ShouldBeEmpty)
		})
	})
}

func TestIsDangerous(t *testing.T) {
	Convey("Given danger ratios", t, func() {
		So(tags.IsDangerous(&model.KillboardStats{DangerRatio: model.Some(50)}), ShouldBeTrue)
		So(tags.IsDangerous(&model.KillboardStats{DangerRatio: model.Some(49.9)}), ShouldBeFalse)
		So(tags.IsDangerous(&model.KillboardStats{}), ShouldBeFalse)
		So(tags.IsDangerous(nil), ShouldBeFalse)
	})
}
