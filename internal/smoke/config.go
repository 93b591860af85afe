package smoke

import "time"

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL string        // Base URL of the service
	Deals   int           // Number of synthetic deals to create
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	Year    int           // Timeline year the synthetic deals are placed in
	Seed    uint64        // Seed for the payload generator
	Verbose bool          // Log every request
}

// Stats summarises a smoke run.
type Stats struct {
	StartTime time.Time
	Duration  time.Duration

	DealsCreated   int64
	Replays        int64
	Moves          int64
	Resizes        int64
	StageChanges   int64
	RejectedSpans  int64
	Backpressured  int64
	Failures       int64
	RepsChecked    int
	TimelineDeals  int
	LeaderboardTop string
}
