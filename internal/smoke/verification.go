package smoke

import (
	"context"
	"fmt"
	"strconv"

	service "github.com/okian/dealdesk/internal/app"
	"github.com/okian/dealdesk/internal/domain/model"
	"github.com/okian/dealdesk/internal/domain/ranking"
)

// verifyTimeline checks every created deal sits on the year's timeline
// with a valid span.
func verifyTimeline(ctx context.Context, c *client, year int, ids []int, stats *Stats) error {
	var v service.TimelineView
	if err := c.get(ctx, "/api/timeline/"+strconv.Itoa(year), &v); err != nil {
		return fmt.Errorf("timeline: %w", err)
	}
	if v.Stats.Count != len(v.Lanes) {
		return fmt.Errorf("%w: timeline count %d but %d lanes", ErrCheckFailed, v.Stats.Count, len(v.Lanes))
	}

	seen := make(map[int]bool, len(v.Lanes))
	for _, l := range v.Lanes {
		d := l.Deal
		if d.StartMonth < model.FirstMonth || d.EndMonth > model.LastMonth || d.StartMonth > d.EndMonth {
			return fmt.Errorf("%w: deal %d has span %d..%d", ErrCheckFailed, d.ID, d.StartMonth, d.EndMonth)
		}
		if l.DurationMonths != d.EndMonth-d.StartMonth+1 {
			return fmt.Errorf("%w: deal %d duration %d", ErrCheckFailed, d.ID, l.DurationMonths)
		}
		seen[d.ID] = true
	}
	for _, id := range ids {
		if !seen[id] {
			return fmt.Errorf("%w: deal %d missing from %d timeline", ErrCheckFailed, id, year)
		}
	}
	if len(v.Lanes) > 0 && v.Stats.PeakMonth == nil {
		return fmt.Errorf("%w: non-empty timeline without a peak month", ErrCheckFailed)
	}
	stats.TimelineDeals = len(v.Lanes)
	return nil
}

// verifyLeaderboard recomputes the ranking from /api/reps and compares it
// with /api/leaderboard.
func verifyLeaderboard(ctx context.Context, c *client, stats *Stats) error {
	var reps []model.SalesRep
	if err := c.get(ctx, "/api/reps", &reps); err != nil {
		return fmt.Errorf("reps: %w", err)
	}
	var board service.LeaderboardView
	if err := c.get(ctx, "/api/leaderboard?limit="+strconv.Itoa(max(len(reps), 1)), &board); err != nil {
		return fmt.Errorf("leaderboard: %w", err)
	}
	stats.RepsChecked = len(reps)

	want := ranking.Rank(reps)
	if len(board.Standings) != len(want) {
		return fmt.Errorf("%w: leaderboard has %d rows, want %d", ErrCheckFailed, len(board.Standings), len(want))
	}
	for i, st := range board.Standings {
		if st.Rep.ID != want[i].ID || st.Score != ranking.Score(want[i]) || st.Position != i+1 {
			return fmt.Errorf("%w: position %d is rep %d score %d, want rep %d score %d",
				ErrCheckFailed, i+1, st.Rep.ID, st.Score, want[i].ID, ranking.Score(want[i]))
		}
	}
	if top, ok := ranking.TopPerformer(reps); ok {
		stats.LeaderboardTop = top.Name
		if board.Team.TopPerformer == nil || board.Team.TopPerformer.ID != top.ID {
			return fmt.Errorf("%w: team top performer does not match rep %d", ErrCheckFailed, top.ID)
		}
	}
	return nil
}
