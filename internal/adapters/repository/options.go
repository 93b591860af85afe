package repository

import (
	"time"

	"github.com/okian/dealdesk/pkg/logger"
)

// Option applies a configuration option to a store backend.
type Option func(*options)

type options struct {
	minLatency time.Duration
	maxLatency time.Duration
	now        func() time.Time
	log        logger.Logger
}

func defaultOptions() options {
	return options{
		now: time.Now,
		log: logger.Nop(),
	}
}

// WithLatencyRange makes the memory backend wait a random duration in
// [minLatency, maxLatency] before each call, honouring ctx.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(o *options) {
		if minLatency >= 0 && maxLatency >= minLatency {
			o.minLatency = minLatency
			o.maxLatency = maxLatency
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the backend logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
