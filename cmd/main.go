package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/okian/dealdesk/internal/adapters/http/api"
	"github.com/okian/dealdesk/internal/adapters/http/swagger"
	"github.com/okian/dealdesk/internal/adapters/repository"
	service "github.com/okian/dealdesk/internal/app"
	"github.com/okian/dealdesk/internal/config"
	"github.com/okian/dealdesk/internal/domain/currency"
	"github.com/okian/dealdesk/internal/seed"
	"github.com/okian/dealdesk/pkg/logger"
	"github.com/okian/dealdesk/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Drop default Go metrics; system gauges are published by our own updater.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		os.Exit(1)
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "dealdesk exited with error", logger.Error(err))
		os.Exit(1)
	}
}

// application is the wired process minus the listener.
type application struct {
	store   repository.Backend
	svc     *service.Service
	handler http.Handler
}

// newApplication opens the store, seeds it, starts the service and builds
// the HTTP handler.
func newApplication(ctx context.Context, cfg *config.Config, log logger.Logger) (*application, error) {
	formatter, err := currency.New(cfg.CurrencyLocale, cfg.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("currency: %w", err)
	}

	store, err := repository.Open(ctx, cfg.StoreDriver, cfg.StoreDSN,
		repository.WithLogger(log.Named("store")),
		repository.WithLatencyRange(
			time.Duration(cfg.StoreLatencyMinMS)*time.Millisecond,
			time.Duration(cfg.StoreLatencyMaxMS)*time.Millisecond,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if cfg.Seed {
		ds, err := seed.Load(cfg.SeedFile)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		seeded, err := seed.Apply(ctx, store, ds, log.Named("seed"))
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		log.Info(ctx, "seed checked", logger.Bool("seeded", seeded), logger.String("file", cfg.SeedFile))
	}

	svc := service.New(store,
		service.WithLogger(log.Named("service")),
		service.WithLanes(cfg.DispatchLanes, cfg.DispatchQueueSize),
		service.WithIdempotencyCacheSize(cfg.IdempotencyCacheSize),
		service.WithFormatter(formatter),
		service.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
	)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("start service: %w", err)
	}

	engine := api.NewServer(svc,
		api.WithLogger(log.Named("http")),
		api.WithCORSOrigins(cfg.CORSOrigins),
	).Handler(ctx)
	swagger.Register(ctx, engine)

	return &application{store: store, svc: svc, handler: engine}, nil
}

// close stops the service and then the store.
func (a *application) close(ctx context.Context) error {
	return errors.Join(a.svc.Stop(ctx), a.store.Close())
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, app.svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := app.close(shutdownCtx); err != nil {
		log.Error(ctx, "application shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return runErr
}

// startSystemMetricsUpdater updates system metrics until ctx ends.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}

// startServiceMetricsUpdater publishes dispatcher depth until ctx ends.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()
	pending, _ := stats["pendingMutations"].(int)
	capacity, _ := stats["dispatchCapacity"].(int)
	metrics.UpdateDispatchQueue(pending, capacity)
}
