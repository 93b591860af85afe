package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(m.namespace, ShouldEqual, "test_ns")
				So(m.subsystem, ShouldEqual, "test_sub")
				So(m.histogramBuckets, ShouldResemble, []float64{1, 5, 10})
			})
		})

		Convey("When empty values are passed", func() {
			m := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the defaults are kept", func() {
				So(m.namespace, ShouldEqual, "dealdesk")
				So(m.subsystem, ShouldEqual, "crm")
				So(m.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording store operations", func() {
			before := testutil.ToFloat64(globalManager.storeOperations.WithLabelValues("deal", "get"))
			RecordStoreOperation("deal", "get", 1.5)
			RecordStoreError("deal", "get", "not_found")
			UpdateStoreRecords("deal", 12)

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.storeOperations.WithLabelValues("deal", "get")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.storeRecords.WithLabelValues("deal")), ShouldEqual, 12)
			})
		})

		Convey("When recording timeline gestures", func() {
			moves := testutil.ToFloat64(globalManager.timelineGestures.WithLabelValues("move"))
			clamped := testutil.ToFloat64(globalManager.timelineClampedMoves)
			rejected := testutil.ToFloat64(globalManager.timelineRejectedSpans)
			RecordTimelineGesture("move")
			RecordTimelineClampedMove()
			RecordTimelineRejectedSpan()

			Convey("Then each counter increments once", func() {
				So(testutil.ToFloat64(globalManager.timelineGestures.WithLabelValues("move")), ShouldEqual, moves+1)
				So(testutil.ToFloat64(globalManager.timelineClampedMoves), ShouldEqual, clamped+1)
				So(testutil.ToFloat64(globalManager.timelineRejectedSpans), ShouldEqual, rejected+1)
			})
		})

		Convey("When recording dispatcher state", func() {
			rejected := testutil.ToFloat64(globalManager.dispatchRejected)
			replays := testutil.ToFloat64(globalManager.idempotentReplays)
			UpdateDispatchQueue(3, 64)
			RecordDispatchRejected()
			RecordDispatchLatency(2)
			RecordIdempotentReplay()
			RecordLeaderboardBuild(4)

			Convey("Then gauges and counters reflect it", func() {
				So(testutil.ToFloat64(globalManager.dispatchQueueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.dispatchQueueCapacity), ShouldEqual, 64)
				So(testutil.ToFloat64(globalManager.dispatchRejected), ShouldEqual, rejected+1)
				So(testutil.ToFloat64(globalManager.idempotentReplays), ShouldEqual, replays+1)
				So(testutil.ToFloat64(globalManager.leaderboardReps), ShouldEqual, 4)
			})
		})

		Convey("When recording http and system metrics", func() {
			So(func() {
				RecordHTTPRequest("/api/deals", "GET", "200", 3.2)
				RecordErrorByComponent("api", "not_found")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(8)
			}, ShouldNotPanic)

			Convey("Then the registry gathers them", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				names := make(map[string]bool, len(families))
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["dealdesk_crm_http_requests_total"], ShouldBeTrue)
				So(names["dealdesk_crm_system_goroutine_count"], ShouldBeTrue)
			})
		})
	})
}
