// Package service implements the CRM operations served by the HTTP API. It
// joins the record stores with the timeline and ranking engines and
// serialises mutations of the same deal.
package service

import (
	"context"
	"sync"

	"github.com/okian/dealdesk/internal/adapters/mq/worker"
	"github.com/okian/dealdesk/internal/adapters/repository"
	"github.com/okian/dealdesk/internal/domain/currency"
	"github.com/okian/dealdesk/internal/domain/dedupe"
	"github.com/okian/dealdesk/pkg/logger"
)

const (
	defaultLanes            = 16
	defaultLaneCapacity     = 256
	defaultIdempotencySize  = 10_000
	defaultLeaderboardLimit = 100
)

// Service implements the API dependencies for the CRM.
type Service struct {
	mu sync.RWMutex

	store     repository.Backend
	deduper   dedupe.Deduper
	pool      *worker.Pool
	formatter *currency.Formatter

	lanes        int
	laneCapacity int
	dedupeSize   int
	maxLimit     int

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLanes sets the number of deal mutation lanes and their capacity.
func WithLanes(lanes, capacity int) Option {
	return func(s *Service) {
		if lanes > 0 {
			s.lanes = lanes
		}
		if capacity > 0 {
			s.laneCapacity = capacity
		}
	}
}

// WithIdempotencyCacheSize bounds the number of remembered Idempotency-Keys.
func WithIdempotencyCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDeduper replaces the idempotency cache.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithFormatter sets the money formatter used by the views.
func WithFormatter(f *currency.Formatter) Option {
	return func(s *Service) {
		if f != nil {
			s.formatter = f
		}
	}
}

// WithMaxLeaderboardLimit caps the limit accepted by Leaderboard.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service over store.
func New(store repository.Backend, opts ...Option) *Service {
	s := &Service{
		store:        store,
		formatter:    currency.Default,
		lanes:        defaultLanes,
		laneCapacity: defaultLaneCapacity,
		dedupeSize:   defaultIdempotencySize,
		maxLimit:     defaultLeaderboardLimit,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	}
	return s
}

// Start launches the deal mutation lanes.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.pool = worker.NewPool(s.lanes, s.laneCapacity,
		worker.WithName("deals"),
		worker.WithLogger(s.logger.Named("dispatch")),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "crm service started",
		logger.Int("lanes", s.lanes),
		logger.Int("laneCapacity", s.laneCapacity),
		logger.Int("idempotencyCacheSize", s.dedupeSize),
		logger.String("currency", s.formatter.Code()),
	)
	return nil
}

// Stop drains pending deal mutations. The store is left open.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping crm service...")

	err := s.pool.Shutdown(ctx)
	s.started = false
	if err != nil {
		s.logger.Error(ctx, "dispatcher shutdown failed", logger.Error(err))
		return err
	}
	s.logger.Info(ctx, "crm service stopped")
	return nil
}

// Formatter returns the money formatter in use.
func (s *Service) Formatter() *currency.Formatter { return s.formatter }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":         s.started,
		"lanes":           s.lanes,
		"laneCapacity":    s.laneCapacity,
		"idempotencyKeys": s.deduper.Size(),
		"currency":        s.formatter.Code(),
		"maxLeaderboardN": s.maxLimit,
	}
	if s.started {
		stats["pendingMutations"] = s.pool.Len()
		stats["dispatchCapacity"] = s.pool.Capacity()
	}
	return stats
}

// dispatcher returns the running pool or ErrNotStarted.
func (s *Service) dispatcher() (*worker.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.pool, nil
}
