package smoke_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/okian/dealdesk/internal/adapters/http/api"
	"github.com/okian/dealdesk/internal/adapters/repository"
	service "github.com/okian/dealdesk/internal/app"
	"github.com/okian/dealdesk/internal/seed"
	"github.com/okian/dealdesk/internal/smoke"
	"github.com/okian/dealdesk/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	gin.SetMode(gin.TestMode)

	Convey("Given a seeded server", t, func() {
		ctx := context.Background()
		store := repository.NewMemory()
		ds, err := seed.Load("")
		So(err, ShouldBeNil)
		_, err = seed.Apply(ctx, store, ds, logger.Nop())
		So(err, ShouldBeNil)

		svc := service.New(store, service.WithLanes(4, 512))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		srv := httptest.NewServer(api.NewServer(svc).Handler(ctx))
		defer srv.Close()

		Convey("When the smoke test runs", func() {
			stats, err := smoke.Run(ctx, &smoke.Config{
				BaseURL: srv.URL,
				Deals:   20,
				Workers: 8,
				Timeout: 5 * time.Second,
				Year:    2031,
				Seed:    7,
			}, logger.Nop())

			Convey("Then every check passes", func() {
				So(err, ShouldBeNil)
				So(stats.DealsCreated, ShouldEqual, 20)
				So(stats.Replays, ShouldEqual, 20)
				So(stats.Moves+stats.Resizes+stats.RejectedSpans+stats.Backpressured, ShouldEqual, 80)
				So(stats.TimelineDeals, ShouldEqual, 20)
				So(stats.RepsChecked, ShouldEqual, 5)
				So(stats.LeaderboardTop, ShouldEqual, "Michael Chen")
				So(smoke.Summary(stats), ShouldContainSubstring, "deals created:   20")
			})
		})
	})

	Convey("Given no server", t, func() {
		_, err := smoke.Run(context.Background(), &smoke.Config{
			BaseURL: "http://127.0.0.1:1",
			Deals:   1,
			Timeout: 200 * time.Millisecond,
		}, logger.Nop())

		Convey("Then the health check fails", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "health check")
		})
	})
}

func TestShowHelp(t *testing.T) {
	Convey("Given the help text", t, func() {
		var buf bytes.Buffer
		smoke.ShowHelp(&buf)
		So(buf.String(), ShouldContainSubstring, "-deals int")
	})
}
