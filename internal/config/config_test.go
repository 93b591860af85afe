package config_test

import (
	"errors"
	"testing"

	"github.com/okian/dealdesk/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.Seed, convey.ShouldBeTrue)
			convey.So(cfg.DispatchLanes, convey.ShouldEqual, 16)
			convey.So(cfg.DispatchQueueSize, convey.ShouldEqual, 256)
			convey.So(cfg.IdempotencyCacheSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.CurrencyCode, convey.ShouldEqual, "USD")
			convey.So(cfg.CurrencyLocale, convey.ShouldEqual, "en-US")
			convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When a persistent driver has no DSN", func() {
			cfg.StoreDriver = "SQLite"
			err := cfg.Validate()

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "store_dsn")
			})
		})

		convey.Convey("When the driver name has mixed case and a DSN", func() {
			cfg.StoreDriver = " SQLite "
			cfg.StoreDSN = "file::memory:"

			convey.Convey("Then it is normalised", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverSQLite)
			})
		})

		convey.Convey("When the driver is unknown", func() {
			cfg.StoreDriver = "postgres"
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(errors.Is(err, config.ErrUnknownDriver), convey.ShouldBeTrue)
		})

		convey.Convey("When latency bounds are inverted", func() {
			cfg.StoreLatencyMinMS = 50
			cfg.StoreLatencyMaxMS = 10
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When dispatch lanes is zero", func() {
			cfg.DispatchLanes = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
