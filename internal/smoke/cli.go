package smoke

import (
	"fmt"
	"io"
)

// ShowHelp prints usage information for the smoke tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `dealdesk smoke test
===================

Drives a running dealdesk server: creates deals with idempotency keys,
replays each create, fires concurrent timeline moves, resizes and stage
changes, then checks the timeline and leaderboard views.

Usage:
  smoke [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -deals int         Number of deals to create (default 200)
  -workers int       Number of concurrent workers (default CPU cores * 2)
  -year int          Timeline year for the deals (default 2025)
  -seed uint         Payload generator seed (default 1)
  -timeout duration  HTTP request timeout (default 10s)
  -verbose           Log every gesture
  -help              Show this help message
`)
}

// Summary renders stats for the terminal.
func Summary(s *Stats) string {
	return fmt.Sprintf(`deals created:   %d (replays %d)
moves/resizes:   %d/%d
stage changes:   %d
rejected spans:  %d
backpressured:   %d
failures:        %d
timeline deals:  %d
reps checked:    %d (leader %q)
duration:        %s
`, s.DealsCreated, s.Replays, s.Moves, s.Resizes, s.StageChanges, s.RejectedSpans,
		s.Backpressured, s.Failures, s.TimelineDeals, s.RepsChecked, s.LeaderboardTop, s.Duration)
}
