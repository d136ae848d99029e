package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

// withManager swaps the global manager for one on a fresh registry.
func withManager(t *testing.T) *Manager {
	t.Helper()
	prev := globalManager
	m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))
	globalManager = m
	t.Cleanup(func() { globalManager = prev })
	return m
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

			Convey("Then it should be created with the default refresh interval", func() {
				So(manager, ShouldNotBeNil)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
				So(manager.namespace, ShouldEqual, "localscan")
			})
		})

		Convey("When creating with custom options", func() {
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRefreshInterval(3*time.Second),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test-namespace")
				So(manager.subsystem, ShouldEqual, "test-subsystem")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.RefreshInterval(), ShouldEqual, 3*time.Second)
			})
		})

		Convey("When empty option values are passed", func() {
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(0),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "localscan")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestLookupMetrics(t *testing.T) {
	Convey("Given a fresh metrics manager", t, func() {
		m := withManager(t)

		Convey("When recording characters", func() {
			RecordCharactersResolved(3)
			RecordCharacterEnriched()
			RecordCharacterEnriched()
			RecordCharacterDropped()

			Convey("Then the counters should reflect the calls", func() {
				So(testutil.ToFloat64(m.charactersResolved), ShouldEqual, 3)
				So(testutil.ToFloat64(m.charactersEnriched), ShouldEqual, 2)
				So(testutil.ToFloat64(m.charactersDropped), ShouldEqual, 1)
			})
		})

		Convey("When a lookup starts and finishes", func() {
			done := LookupStarted()
			inFlight := testutil.ToFloat64(m.lookupsInFlight)
			done()
			RecordLookup("ok", 2*time.Second)

			Convey("Then the gauge should return to zero and the outcome be counted", func() {
				So(inFlight, ShouldEqual, 1)
				So(testutil.ToFloat64(m.lookupsInFlight), ShouldEqual, 0)
				So(testutil.ToFloat64(m.lookups.WithLabelValues("ok")), ShouldEqual, 1)
			})
		})

		Convey("When recording upstream calls", func() {
			RecordUpstream("zkill", "stats", OutcomeOK, 100*time.Millisecond)
			RecordUpstream("zkill", "stats", OutcomeOK, 200*time.Millisecond)
			RecordUpstream("esi", "ids", OutcomeHTTPError, time.Millisecond)

			Convey("Then each label set should be counted separately", func() {
				So(testutil.ToFloat64(m.upstreamRequests.WithLabelValues("zkill", "stats", OutcomeOK)), ShouldEqual, 2)
				So(testutil.ToFloat64(m.upstreamRequests.WithLabelValues("esi", "ids", OutcomeHTTPError)), ShouldEqual, 1)
			})
		})

		Convey("When recording profiles", func() {
			RecordProfile("generated")
			RecordProfile("disabled")
			RecordProfile("generated")

			Convey("Then outcomes should be counted", func() {
				So(testutil.ToFloat64(m.profiles.WithLabelValues("generated")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.profiles.WithLabelValues("disabled")), ShouldEqual, 1)
			})
		})
	})
}

func TestHTTPAndSystemMetrics(t *testing.T) {
	Convey("Given a fresh metrics manager", t, func() {
		m := withManager(t)

		Convey("When recording HTTP and error metrics", func() {
			RecordHTTPRequest("/api/characters", "POST", "200")
			RecordHTTPRequestDuration("/api/characters", "POST", "200", 12.5)
			RecordErrorByEndpoint("/api/characters", "POST", "bad_request")
			RecordErrorByComponent("esi", "transport_error")

			Convey("Then the counters should be incremented", func() {
				So(testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/characters", "POST", "200")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.errorRateByEndpoint.WithLabelValues("/api/characters", "POST", "bad_request")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.errorRateByComponent.WithLabelValues("esi", "transport_error")), ShouldEqual, 1)
			})
		})

		Convey("When updating system gauges", func() {
			UpdateSystemMemoryUsage(1024)
			UpdateSystemGoroutineCount(42)

			Convey("Then the gauges should hold the latest values", func() {
				So(testutil.ToFloat64(m.systemMemoryUsage), ShouldEqual, 1024)
				So(testutil.ToFloat64(m.systemGoroutineCount), ShouldEqual, 42)
			})

			Convey("And histogram observations should not panic", func() {
				So(func() {
					RecordSystemGCPauseTime(0.3)
					RecordFleetSize(4)
				}, ShouldNotPanic)
			})
		})
	})

	Convey("Given the package registry", t, func() {
		So(GetRegistry(), ShouldNotBeNil)
		So(DefaultRefreshInterval(), ShouldEqual, defaultRefreshInterval)
	})
}
