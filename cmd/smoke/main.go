package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/dealdesk/internal/smoke"
	"github.com/okian/dealdesk/pkg/logger"
)

// Default configuration constants.
const (
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", smoke.DefaultBaseURL, "Base URL of the service")
		deals   = flag.Int("deals", smoke.DefaultDeals, "Number of deals to create")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		year    = flag.Int("year", smoke.DefaultYear, "Timeline year for the deals")
		seed    = flag.Uint64("seed", 1, "Payload generator seed")
		timeout = flag.Duration("timeout", smoke.DefaultTimeout, "HTTP request timeout")
		verbose = flag.Bool("verbose", false, "Log every gesture")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoke.ShowHelp(os.Stdout)
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}
	log := logger.Named("smoke")

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := smoke.Run(ctx, &smoke.Config{
		BaseURL: *baseURL,
		Deals:   *deals,
		Workers: *workers,
		Timeout: *timeout,
		Year:    *year,
		Seed:    *seed,
		Verbose: *verbose,
	}, log)
	if stats != nil {
		os.Stdout.WriteString(smoke.Summary(stats))
	}
	if err != nil {
		log.Error(ctx, "smoke test failed", logger.Error(err))
		os.Exit(1)
	}
}
