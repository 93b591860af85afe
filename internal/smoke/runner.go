// Package smoke drives a running dealdesk server through its HTTP API and
// checks the answers against the domain engines.
package smoke

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/dealdesk/internal/domain/model"
	"github.com/okian/dealdesk/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// ErrCheckFailed is returned when the server answered but a check did not
// hold.
var ErrCheckFailed = errors.New("smoke check failed")

type envelope[T any] struct {
	Data      T    `json:"data"`
	Duplicate bool `json:"duplicate"`
}

// Run executes the complete smoke test.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Stats, error) {
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU() * 2
	}
	if cfg.Year == 0 {
		cfg.Year = DefaultYear
	}
	stats := &Stats{StartTime: time.Now()}
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting dealdesk smoke test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("deals", cfg.Deals),
		logger.Int("workers", cfg.Workers),
		logger.Int("year", cfg.Year))

	// Step 1: Check service health
	if err := c.get(ctx, "/healthz", &map[string]any{}); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate payloads up front so a seed reproduces a run
	gen := newGenerator(cfg.Seed)
	deals := make([]model.Deal, cfg.Deals)
	gestures := make([][]gesture, cfg.Deals)
	stages := make([]model.Stage, cfg.Deals)
	for i := range deals {
		deals[i] = gen.deal(i, cfg.Year)
		gestures[i] = make([]gesture, gesturesPerDeal)
		for j := range gestures[i] {
			gestures[i][j] = gen.gesture()
		}
		stages[i] = gen.stage()
	}

	// Step 3: Create deals, replaying every create once
	ids := make([]int, len(deals))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range deals {
		g.Go(func() error {
			id, err := createDeal(gctx, c, deals[i], stats)
			ids[i] = id
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return stats, fmt.Errorf("deal creation failed: %w", err)
	}
	log.Info(ctx, "deals created", logger.Int64("created", stats.DealsCreated), logger.Int64("replays", stats.Replays))

	// Step 4: Fire timeline gestures and stage changes concurrently. The
	// server applies those for one deal in arrival order.
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, id := range ids {
		for _, gs := range gestures[i] {
			g.Go(func() error { return sendGesture(gctx, c, id, gs, stats, log, cfg.Verbose) })
		}
		g.Go(func() error { return changeStage(gctx, c, id, stages[i], stats) })
	}
	if err := g.Wait(); err != nil {
		return stats, fmt.Errorf("gestures failed: %w", err)
	}
	log.Info(ctx, "gestures applied",
		logger.Int64("moves", stats.Moves),
		logger.Int64("resizes", stats.Resizes),
		logger.Int64("rejected", stats.RejectedSpans),
		logger.Int64("backpressured", stats.Backpressured))

	// Step 5: Verify the aggregate views
	if err := verifyTimeline(ctx, c, cfg.Year, ids, stats); err != nil {
		return stats, err
	}
	if err := verifyLeaderboard(ctx, c, stats); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(stats.StartTime)
	if n := atomic.LoadInt64(&stats.Failures); n > 0 {
		return stats, fmt.Errorf("%w: %d requests failed", ErrCheckFailed, n)
	}
	log.Info(ctx, "smoke test passed",
		logger.String("duration", stats.Duration.String()),
		logger.Int("timelineDeals", stats.TimelineDeals),
		logger.String("leader", stats.LeaderboardTop))
	return stats, nil
}

func createDeal(ctx context.Context, c *client, d model.Deal, stats *Stats) (int, error) {
	key := uuid.NewString()

	first, err := c.do(ctx, http.MethodPost, "/api/deals", d, key)
	if err != nil {
		return 0, err
	}
	if first.status != http.StatusCreated {
		return 0, fmt.Errorf("%w: create returned %d: %s", ErrCheckFailed, first.status, first.body)
	}
	var created envelope[model.Deal]
	if err := first.decode(&created); err != nil {
		return 0, err
	}
	atomic.AddInt64(&stats.DealsCreated, 1)

	again, err := c.do(ctx, http.MethodPost, "/api/deals", d, key)
	if err != nil {
		return 0, err
	}
	var replay envelope[model.Deal]
	if err := again.decode(&replay); err != nil {
		return 0, err
	}
	if again.status != http.StatusOK || !replay.Duplicate || replay.Data.ID != created.Data.ID {
		return 0, fmt.Errorf("%w: replay of deal %d returned %d duplicate=%t id=%d",
			ErrCheckFailed, created.Data.ID, again.status, replay.Duplicate, replay.Data.ID)
	}
	atomic.AddInt64(&stats.Replays, 1)
	return created.Data.ID, nil
}

func sendGesture(ctx context.Context, c *client, id int, gs gesture, stats *Stats, log logger.Logger, verbose bool) error {
	path := "/api/deals/" + strconv.Itoa(id)
	var (
		resp response
		err  error
	)
	if gs.resize {
		resp, err = c.do(ctx, http.MethodPost, path+"/resize", map[string]int{"end_month": gs.month}, "")
	} else {
		resp, err = c.do(ctx, http.MethodPost, path+"/move", map[string]int{"start_month": gs.month}, "")
	}
	if err != nil {
		return err
	}
	if verbose {
		log.Debug(ctx, "gesture", logger.Int("deal", id), logger.Bool("resize", gs.resize),
			logger.Int("month", gs.month), logger.Int("status", resp.status))
	}

	switch resp.status {
	case http.StatusOK:
		if gs.resize {
			atomic.AddInt64(&stats.Resizes, 1)
		} else {
			atomic.AddInt64(&stats.Moves, 1)
		}
	case http.StatusUnprocessableEntity:
		atomic.AddInt64(&stats.RejectedSpans, 1)
	case http.StatusTooManyRequests:
		atomic.AddInt64(&stats.Backpressured, 1)
	default:
		atomic.AddInt64(&stats.Failures, 1)
	}
	return nil
}

func changeStage(ctx context.Context, c *client, id int, stage model.Stage, stats *Stats) error {
	resp, err := c.do(ctx, http.MethodPut, "/api/deals/"+strconv.Itoa(id)+"/stage", map[string]string{"stage": stage.String()}, "")
	if err != nil {
		return err
	}
	switch resp.status {
	case http.StatusOK:
		atomic.AddInt64(&stats.StageChanges, 1)
	case http.StatusTooManyRequests:
		atomic.AddInt64(&stats.Backpressured, 1)
	default:
		atomic.AddInt64(&stats.Failures, 1)
	}
	return nil
}
