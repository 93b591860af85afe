package worker

import "errors"

// Sentinel kinds for dispatch failures.
var (
	ErrStopped      = errors.New("worker pool stopped")
	ErrBackpressure = errors.New("lane full")
)
