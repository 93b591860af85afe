package service

import (
	"context"
	"fmt"

	"github.com/okian/dealdesk/internal/domain/model"
	"github.com/okian/dealdesk/internal/domain/pipeline"
	"github.com/okian/dealdesk/internal/domain/ranking"
	"github.com/okian/dealdesk/internal/domain/timeline"
	"github.com/okian/dealdesk/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// TimelineView is one year of the deal timeline.
type TimelineView struct {
	Year           int                  `json:"year"`
	Lanes          []timeline.LaneEntry `json:"lanes"`
	Stats          timeline.Stats       `json:"stats"`
	FormattedTotal string               `json:"formatted_total"`
	PeakMonthName  string               `json:"peak_month_name"`
}

// PipelineView is the kanban board and its summary.
type PipelineView struct {
	Columns        []pipeline.Column `json:"columns"`
	Stats          pipeline.Summary  `json:"stats"`
	FormattedTotal string            `json:"formatted_total"`
}

// LeaderboardView is the ranked sales team.
type LeaderboardView struct {
	Standings []ranking.Standing `json:"standings"`
	Team      ranking.Team       `json:"team"`
}

// DashboardView is the landing page.
type DashboardView struct {
	pipeline.Overview
	PipelineValue string          `json:"pipeline_value"`
	WinRate       float64         `json:"win_rate"`
	TopPerformer  *model.SalesRep `json:"top_performer"`
}

// Timeline builds the lanes and statistics of year.
func (s *Service) Timeline(ctx context.Context, year int) (TimelineView, error) {
	var (
		deals    []model.Deal
		contacts []model.Contact
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		deals, err = s.store.Deals().ListByYear(gctx, year)
		return err
	})
	g.Go(func() (err error) {
		contacts, err = s.store.Contacts().List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return TimelineView{}, fmt.Errorf("service.Timeline: %w", err)
	}

	stats := timeline.YearlyStatistics(deals, year)
	return TimelineView{
		Year:           year,
		Lanes:          timeline.Lane(deals, contacts, year, s.formatter),
		Stats:          stats,
		FormattedTotal: s.formatter.Format(stats.TotalValue),
		PeakMonthName:  timeline.MonthName(stats.PeakMonth),
	}, nil
}

// Pipeline builds the kanban board.
func (s *Service) Pipeline(ctx context.Context) (PipelineView, error) {
	deals, err := s.store.Deals().List(ctx)
	if err != nil {
		return PipelineView{}, fmt.Errorf("service.Pipeline: %w", err)
	}
	stats := pipeline.Stats(deals)
	return PipelineView{
		Columns:        pipeline.Board(deals),
		Stats:          stats,
		FormattedTotal: s.formatter.Format(stats.TotalValue),
	}, nil
}

// Leaderboard ranks the sales team. limit bounds the standings; zero or
// less means the configured maximum. Team statistics always cover every
// rep.
func (s *Service) Leaderboard(ctx context.Context, limit int) (LeaderboardView, error) {
	reps, err := s.store.Reps().List(ctx)
	if err != nil {
		return LeaderboardView{}, fmt.Errorf("service.Leaderboard: %w", err)
	}
	if limit <= 0 || limit > s.maxLimit {
		limit = s.maxLimit
	}

	standings := ranking.Standings(reps)
	metrics.RecordLeaderboardBuild(len(reps))
	return LeaderboardView{
		Standings: standings[:min(limit, len(standings))],
		Team:      ranking.TeamStats(reps),
	}, nil
}

// TopPerformer returns the highest scoring rep. ok is false for an empty
// team.
func (s *Service) TopPerformer(ctx context.Context) (rep model.SalesRep, ok bool, err error) {
	reps, err := s.store.Reps().List(ctx)
	if err != nil {
		return model.SalesRep{}, false, fmt.Errorf("service.TopPerformer: %w", err)
	}
	rep, ok = ranking.TopPerformer(reps)
	return rep, ok, nil
}

// Dashboard loads every record type in parallel and builds the overview.
func (s *Service) Dashboard(ctx context.Context) (DashboardView, error) {
	var (
		contacts []model.Contact
		deals    []model.Deal
		reps     []model.SalesRep
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		contacts, err = s.store.Contacts().List(gctx)
		return err
	})
	g.Go(func() (err error) {
		deals, err = s.store.Deals().List(gctx)
		return err
	})
	g.Go(func() (err error) {
		reps, err = s.store.Reps().List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardView{}, fmt.Errorf("service.Dashboard: %w", err)
	}

	stats := pipeline.Stats(deals)
	view := DashboardView{
		Overview:      pipeline.Dashboard(contacts, deals),
		PipelineValue: s.formatter.Format(stats.TotalValue),
		WinRate:       stats.WinRate,
	}
	if top, ok := ranking.TopPerformer(reps); ok {
		view.TopPerformer = &top
	}
	return view, nil
}
