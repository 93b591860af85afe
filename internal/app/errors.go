package service

import "errors"

var (
	// ErrNotStarted is returned by deal mutations before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrInFlight is returned when a request repeats an Idempotency-Key whose
	// first application has not finished yet.
	ErrInFlight = errors.New("request with this idempotency key is in progress")
)
