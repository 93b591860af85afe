package smoke

import "time"

// Defaults for a smoke run.
const (
	DefaultBaseURL = "http://localhost:9080"
	DefaultDeals   = 200
	DefaultYear    = 2025
	DefaultTimeout = 10 * time.Second

	// gesturesPerDeal is the number of move/resize requests sent per deal.
	gesturesPerDeal = 4
)
