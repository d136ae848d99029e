package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	service "github.com/okian/localscan/internal/app"
	"github.com/okian/localscan/internal/domain/model"
	"github.com/okian/localscan/internal/domain/tags"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeResolver struct {
	known map[string]int64
	calls atomic.Int32
}

func (f *fakeResolver) ResolveNames(_ context.Context, names []string) []model.CharacterRef {
	f.calls.Add(1)
	out := []model.CharacterRef{}
	for _, n := range names {
		if id, ok := f.known[strings.TrimSpace(n)]; ok {
			out = append(out, model.CharacterRef{ID: id, Name: strings.TrimSpace(n)})
		}
	}
	return out
}

type fakeSources struct {
	stats    map[int64]*model.KillboardStats
	corps    map[int64]*model.Affiliation
	alliance map[int64]*model.Affiliation
	ships    map[int64][]model.ShipUsageEntry
	fleets   map[int64]*model.FleetAnalysis
	panicOn  int64
	delay    time.Duration

	mu       sync.Mutex
	inFlight int
	maxSeen  int
}

func (f *fakeSources) enter() func() {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()
	time.Sleep(f.delay)
	return func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}
}

func (f *fakeSources) Stats(_ context.Context, id int64) *model.KillboardStats {
	defer f.enter()()
	if id == f.panicOn {
		panic("stats exploded")
	}
	if s, ok := f.stats[id]; ok {
		cp := *s
		return &cp
	}
	return nil
}

func (f *fakeSources) Corporation(_ context.Context, id int64) *model.Affiliation {
	defer f.enter()()
	return f.corps[id]
}

func (f *fakeSources) Alliance(_ context.Context, id int64) *model.Affiliation {
	defer f.enter()()
	return f.alliance[id]
}

func (f *fakeSources) RecentShips(_ context.Context, id int64) []model.ShipUsageEntry {
	defer f.enter()()
	return f.ships[id]
}

func (f *fakeSources) EstimateFleet(_ context.Context, id int64) *model.FleetAnalysis {
	defer f.enter()()
	return f.fleets[id]
}

type fakeProfiles struct {
	mu    sync.Mutex
	ships map[int]int
	text  string
}

func (f *fakeProfiles) Generate(_ context.Context, _ *model.KillboardStats, ships []model.ShipUsageEntry) *string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ships == nil {
		f.ships = make(map[int]int)
	}
	f.ships[len(ships)]++
	if f.text == "" {
		return nil
	}
	t := f.text
	return &t
}

func newService(res *fakeResolver, src *fakeSources, prof *fakeProfiles) *service.Service {
	opts := []service.Option{
		service.WithResolver(res),
		service.WithStatsSource(src),
		service.WithAffiliations(src),
		service.WithActivity(src),
		service.WithPortraitURL(func(id int64) string { return fmt.Sprintf("portrait/%d", id) }),
	}
	if prof != nil {
		opts = append(opts, service.WithProfiles(prof))
	}
	return service.New(opts...)
}

func TestService_New(t *testing.T) {
	Convey("Given a service without sources", t, func() {
		svc := service.New()

		Convey("Then lookups should report it is not configured", func() {
			_, err := svc.Lookup(context.Background(), []string{"Alice"})
			So(errors.Is(err, service.ErrNotConfigured), ShouldBeTrue)
		})

		Convey("And stats should report profiles disabled", func() {
			So(svc.GetStats()["profilesEnabled"], ShouldEqual, false)
		})
	})
}

func TestService_Lookup(t *testing.T) {
	Convey("Given two names where only one resolves", t, func() {
		res := &fakeResolver{known: map[string]int64{"Alice": 1}}
		src := &fakeSources{
			stats: map[int64]*model.KillboardStats{1: {
				DangerRatio: model.Some(90),
				GangRatio:   model.Some(95),
				TopLists:    []model.TopList{{Type: "alliance"}},
			}},
			corps:    map[int64]*model.Affiliation{1: {ID: 10, Name: "Corp", Ticker: "CRP"}},
			alliance: map[int64]*model.Affiliation{},
			ships:    map[int64][]model.ShipUsageEntry{1: {{ID: 20, Name: "Charon Freighter"}}},
			fleets: map[int64]*model.FleetAnalysis{1: {FleetMembers: []model.FleetMember{
				{ShipID: 11, ShipName: "Loki", Count: 2},
			}}},
		}
		prof := &fakeProfiles{text: "Pilot Type: Hauler"}
		svc := newService(res, src, prof)

		Convey("When looking them up", func() {
			records, err := svc.Lookup(context.Background(), []string{"Alice", "Nobody"})

			Convey("Then exactly one record should come back", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 1)
			})

			Convey("And the record should be fully assembled", func() {
				r := records[0]
				So(r.CharacterID, ShouldEqual, 1)
				So(r.Name, ShouldEqual, "Alice")
				So(r.Portrait, ShouldEqual, "portrait/1")
				So(r.Corporation.Ticker, ShouldEqual, "CRP")
				So(r.Alliance, ShouldBeNil)
				So(r.FleetAnalysis.FleetMembers[0].ShipName, ShouldEqual, "Loki")
				So(*r.PilotProfile, ShouldEqual, "Pilot Type: Hauler")
			})

			Convey("And topLists should be replaced by the recent ships", func() {
				So(records[0].KillboardStats.TopLists, ShouldResemble, []model.TopList{{
					Type:   model.TopListShipType,
					Values: []model.ShipUsageEntry{{ID: 20, Name: "Charon Freighter"}},
				}})
			})

			Convey("And tags should be derived from the final stats", func() {
				var texts []string
				for _, tg := range records[0].Tags {
					texts = append(texts, tg.Text)
				}
				So(texts, ShouldResemble, []string{tags.TextGang, tags.TextVeryDangerous, tags.TextHauler})
			})

			Convey("And the profile should have seen the recent ships", func() {
				So(prof.ships[1], ShouldEqual, 1)
			})
		})
	})

	Convey("Given a character with no data anywhere", t, func() {
		res := &fakeResolver{known: map[string]int64{"Ghost": 2}}
		svc := newService(res, &fakeSources{}, nil)

		Convey("When looking it up", func() {
			records, err := svc.Lookup(context.Background(), []string{"Ghost"})

			Convey("Then every facet should fall back to its default", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 1)
				r := records[0]
				So(r.Corporation, ShouldBeNil)
				So(r.Alliance, ShouldBeNil)
				So(r.FleetAnalysis, ShouldBeNil)
				So(r.PilotProfile, ShouldBeNil)
				So(r.Tags, ShouldBeEmpty)
			})

			Convey("And stats should hold only an empty ship list", func() {
				s := records[0].KillboardStats
				So(s, ShouldNotBeNil)
				So(s.DangerRatio.Valid, ShouldBeFalse)
				So(s.TopLists, ShouldHaveLength, 1)
				So(s.TopLists[0].Values, ShouldNotBeNil)
				So(s.TopLists[0].Values, ShouldBeEmpty)
			})
		})
	})

	Convey("Given no name resolves", t, func() {
		res := &fakeResolver{known: map[string]int64{}}
		svc := newService(res, &fakeSources{}, nil)

		Convey("Then ErrNoCharacters should be returned", func() {
			records, err := svc.Lookup(context.Background(), []string{"Nobody"})
			So(records, ShouldBeNil)
			So(errors.Is(err, service.ErrNoCharacters), ShouldBeTrue)
		})
	})

	Convey("Given one character whose assembly panics", t, func() {
		res := &fakeResolver{known: map[string]int64{"Alice": 1, "Bob": 2, "Carol": 3}}
		src := &fakeSources{panicOn: 2}
		svc := newService(res, src, nil)

		Convey("When looking all three up", func() {
			records, err := svc.Lookup(context.Background(), []string{"Alice", "Bob", "Carol"})

			Convey("Then only that character should be dropped, order kept", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 2)
				So(records[0].Name, ShouldEqual, "Alice")
				So(records[1].Name, ShouldEqual, "Carol")
			})

			Convey("And the drop should be counted", func() {
				stats := svc.GetStats()
				So(stats["charactersDropped"], ShouldEqual, int64(1))
				So(stats["charactersEnriched"], ShouldEqual, int64(2))
				So(stats["charactersResolved"], ShouldEqual, int64(3))
			})
		})
	})

	Convey("Given slow sources and several characters", t, func() {
		res := &fakeResolver{known: map[string]int64{"A": 1, "B": 2, "C": 3}}
		src := &fakeSources{delay: 30 * time.Millisecond}
		svc := newService(res, src, nil)

		Convey("When looking them up", func() {
			start := time.Now()
			records, err := svc.Lookup(context.Background(), []string{"A", "B", "C"})
			elapsed := time.Since(start)

			Convey("Then branches and characters should run concurrently", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 3)
				So(src.maxSeen, ShouldBeGreaterThan, 5)
				So(elapsed, ShouldBeLessThan, 15*30*time.Millisecond)
			})
		})
	})

	Convey("Given a caller that cancels mid-lookup", t, func() {
		res := &fakeResolver{known: map[string]int64{"A": 1}}
		src := &fakeSources{delay: 20 * time.Millisecond}
		svc := newService(res, src, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("Then the lookup should still complete", func() {
			records, err := svc.Lookup(ctx, []string{"A"})
			So(err, ShouldBeNil)
			So(records, ShouldHaveLength, 1)
		})
	})
}
