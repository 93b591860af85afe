package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/dealdesk/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
				convey.So(cfg.DispatchLanes, convey.ShouldEqual, 16)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("DEALDESK_ADDR", ":8080")
			_ = os.Setenv("DEALDESK_DISPATCH_LANES", "4")
			_ = os.Setenv("DEALDESK_STORE_DRIVER", "sqlite")
			_ = os.Setenv("DEALDESK_STORE_DSN", "file::memory:")
			_ = os.Setenv("DEALDESK_SEED", "false")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DispatchLanes, convey.ShouldEqual, 4)
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverSQLite)
				convey.So(cfg.StoreDSN, convey.ShouldEqual, "file::memory:")
				convey.So(cfg.Seed, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
dispatch_queue_size: 32
currency_code: EUR
currency_locale: de-DE
cors_origins:
  - http://localhost:5173
store_latency_min_ms: 5
store_latency_max_ms: 20
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv(config.FileEnv, tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DispatchQueueSize, convey.ShouldEqual, 32)
				convey.So(cfg.CurrencyCode, convey.ShouldEqual, "EUR")
				convey.So(cfg.CurrencyLocale, convey.ShouldEqual, "de-DE")
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"http://localhost:5173"})
				convey.So(cfg.StoreLatencyMinMS, convey.ShouldEqual, 5)
				convey.So(cfg.StoreLatencyMaxMS, convey.ShouldEqual, 20)
				convey.So(cfg.DispatchLanes, convey.ShouldEqual, 16) // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
dispatch_lanes: 8
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv(config.FileEnv, tmpFile)
			_ = os.Setenv("DEALDESK_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DispatchLanes, convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv(config.FileEnv, tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv(config.FileEnv, "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("DEALDESK_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "dealdesk-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	_ = tmpFile.Close()
	return tmpFile.Name()
}

func clearConfigEnvVars() {
	for _, name := range []string{
		config.FileEnv,
		"DEALDESK_ADDR",
		"DEALDESK_DISPATCH_LANES",
		"DEALDESK_STORE_DRIVER",
		"DEALDESK_STORE_DSN",
		"DEALDESK_SEED",
	} {
		_ = os.Unsetenv(name)
	}
}
