package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/okian/dealdesk/internal/adapters/repository"
	service "github.com/okian/dealdesk/internal/app"
	"github.com/okian/dealdesk/internal/config"
	"github.com/okian/dealdesk/pkg/logger"
	"github.com/okian/dealdesk/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When loading configuration from the environment", func() {
			_ = os.Setenv("DEALDESK_ADDR", ":8080")
			_ = os.Setenv("DEALDESK_DISPATCH_LANES", "4")
			_ = os.Setenv("DEALDESK_DISPATCH_QUEUE_SIZE", "32")
			defer func() {
				_ = os.Unsetenv("DEALDESK_ADDR")
				_ = os.Unsetenv("DEALDESK_DISPATCH_LANES")
				_ = os.Unsetenv("DEALDESK_DISPATCH_QUEUE_SIZE")
			}()

			convey.Convey("Then the overrides should apply", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DispatchLanes, convey.ShouldEqual, 4)
				convey.So(cfg.DispatchQueueSize, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When creating a metrics manager", func() {
			manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
			convey.So(manager, convey.ShouldNotBeNil)
		})

		convey.Convey("When testing system metrics updater", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { updateSystemMetrics() }, convey.ShouldNotPanic)
		})

		convey.Convey("When testing service metrics updater", func() {
			svc := service.New(repository.NewMemory())
			convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
			defer func() { _ = svc.Stop(context.Background()) }()

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given a default configuration with seeding", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg := config.New()
		app, err := newApplication(ctx, cfg, logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = app.close(context.Background()) }()

		convey.Convey("Then the store should hold the fixtures", func() {
			empty, err := app.store.Empty(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(empty, convey.ShouldBeFalse)
		})

		convey.Convey("Then the API and docs should be routed", func() {
			for _, path := range []string{"/healthz", "/api/deals", "/api/leaderboard", "/api-docs", "/openapi.yaml"} {
				rec := httptest.NewRecorder()
				app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then the service should report dispatcher stats", func() {
			stats := app.svc.GetStats()
			convey.So(stats["started"], convey.ShouldEqual, true)
			convey.So(stats["lanes"], convey.ShouldEqual, cfg.DispatchLanes)
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given main application error handling", t, func() {
		convey.Convey("When the listen address is empty", func() {
			_ = os.Setenv("DEALDESK_ADDR", "")
			defer func() { _ = os.Unsetenv("DEALDESK_ADDR") }()

			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When the currency code is unknown", func() {
			cfg := config.New()
			cfg.CurrencyCode = "NOPE"

			app, err := newApplication(context.Background(), cfg, logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(app, convey.ShouldBeNil)
		})

		convey.Convey("When the seed file does not exist", func() {
			cfg := config.New()
			cfg.SeedFile = "does-not-exist.yaml"

			app, err := newApplication(context.Background(), cfg, logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(app, convey.ShouldBeNil)
		})
	})
}
